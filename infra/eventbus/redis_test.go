//go:build integration

package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/amirasaad/wallet/pkg/domain/events"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisBus starts a Redis container and returns a bus and its URL.
func setupRedisBus(tb testing.TB) (*RedisEventBus, string) {
	tb.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.0.5",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(tb, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(tb, err)

	url := "redis://" + host + ":" + port.Port()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bus, err := NewWithRedis(url, "wallet", "wallet-test", logger)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = bus.Close() })
	return bus, url
}

func TestRedisEventBus_HandlerReceivesEvent(t *testing.T) {
	bus, _ := setupRedisBus(t)

	received := make(chan events.FundingSettled, 1)
	bus.Register(events.EventTypeFundingSettled.String(), func(_ context.Context, e events.Event) error {
		received <- e.(events.FundingSettled)
		return nil
	})

	sent := events.FundingSettled{Reference: "ref-redis", Amount: 500000, Status: "success", ProcessingFee: 7500}
	require.NoError(t, bus.Emit(context.Background(), sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.Reference, got.Reference)
		assert.Equal(t, sent.ProcessingFee, got.ProcessingFee)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRedisEventBus_FailedHandlerGoesToDLQ(t *testing.T) {
	bus, url := setupRedisBus(t)

	done := make(chan struct{}, 1)
	bus.Register(events.EventTypeSettlementAmbiguous.String(), func(context.Context, events.Event) error {
		defer func() { done <- struct{}{} }()
		return errors.New("reconciler offline")
	})
	require.NoError(t, bus.Emit(context.Background(), events.SettlementAmbiguous{Reference: "wd-9", Operation: "withdrawal"}))

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("handler never ran")
	}

	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer func() { _ = client.Close() }()

	dlq := dlqNameFor("wallet", events.EventTypeSettlementAmbiguous.String())
	require.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), dlq).Result()
		return err == nil && n == 1
	}, 5*time.Second, 100*time.Millisecond)
}

func TestNewWithRedis_RequiresSettings(t *testing.T) {
	_, err := NewWithRedis("", "wallet", "group", slog.Default())
	require.Error(t, err)
	_, err = NewWithRedis("://bad", "wallet", "group", slog.Default())
	require.Error(t, err)
}
