//go:build integration

package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.0.5",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	c, err := NewRedisCache("redis://"+host+":"+port.Port(), "wallet:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(ctx, "nigeria")
	require.NoError(t, err)
	assert.False(t, ok)

	banks := []gateway.Bank{{Name: "Zenith Bank", Code: "057", Active: true}}
	require.NoError(t, c.Set(ctx, "nigeria", banks, time.Minute))

	got, ok, err := c.Get(ctx, "nigeria")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, banks, got)

	require.NoError(t, c.Delete(ctx, "nigeria"))
	_, ok, err = c.Get(ctx, "nigeria")
	require.NoError(t, err)
	assert.False(t, ok)
}
