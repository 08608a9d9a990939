package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	infra_eventbus "github.com/amirasaad/wallet/infra/eventbus"
	"github.com/amirasaad/wallet/infra/provider/mockgateway"
	"github.com/amirasaad/wallet/infra/provider/paystack"
	"github.com/amirasaad/wallet/infra/repository/memory"
	"github.com/amirasaad/wallet/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseConfig() *config.App {
	return &config.App{
		Env:      "test",
		Log:      &config.Log{Format: "text", TimeFormat: time.Kitchen, Prefix: "[test]"},
		DB:       &config.DB{},
		Redis:    &config.Redis{},
		Kafka:    &config.Kafka{},
		EventBus: &config.EventBus{Driver: "memory", Stream: "wallet-events", Group: "wallet"},
		Gateway: &config.Gateway{
			Provider:     "mock",
			Timeout:      time.Second,
			Country:      "nigeria",
			BankCacheTTL: time.Hour,
			Paystack:     &config.Paystack{BaseURL: "https://api.paystack.co"},
			Stripe:       &config.Stripe{},
		},
		Ledger: &config.Ledger{Reserve: 10000},
	}
}

func TestInitializeDependencies_Defaults(t *testing.T) {
	deps, err := InitializeDependencies(baseConfig())
	require.NoError(t, err)

	assert.IsType(t, &memory.UoW{}, deps.Uow)
	assert.IsType(t, &infra_eventbus.MemoryEventBus{}, deps.EventBus)
	assert.NotNil(t, deps.Gateway)
	assert.NotNil(t, deps.Metrics)
	assert.NotNil(t, deps.Logger)
	assert.Empty(t, deps.Webhooks)

	families, err := deps.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestInitEventBus(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		cfg := baseConfig()
		cfg.EventBus.Driver = "nats"
		_, err := initEventBus(cfg, discard())
		assert.ErrorContains(t, err, "unknown event bus driver")
	})

	t.Run("redis needs a url", func(t *testing.T) {
		cfg := baseConfig()
		cfg.EventBus.Driver = "redis"
		_, err := initEventBus(cfg, discard())
		assert.ErrorContains(t, err, "REDIS_URL")
	})

	t.Run("kafka needs brokers", func(t *testing.T) {
		cfg := baseConfig()
		cfg.EventBus.Driver = "kafka"
		_, err := initEventBus(cfg, discard())
		assert.ErrorContains(t, err, "KAFKA_BROKERS")
	})
}

func TestInitGateway(t *testing.T) {
	t.Run("mock", func(t *testing.T) {
		gw, hooks, err := initGateway(baseConfig().Gateway, discard())
		require.NoError(t, err)
		assert.IsType(t, &mockgateway.Gateway{}, gw)
		assert.Empty(t, hooks)
	})

	t.Run("paystack", func(t *testing.T) {
		cfg := baseConfig().Gateway
		cfg.Provider = "paystack"
		cfg.Paystack.SecretKey = "sk_test_123"
		gw, hooks, err := initGateway(cfg, discard())
		require.NoError(t, err)
		assert.IsType(t, &paystack.Client{}, gw)
		assert.Contains(t, hooks, "paystack")
	})

	t.Run("paystack without key", func(t *testing.T) {
		cfg := baseConfig().Gateway
		cfg.Provider = "paystack"
		_, _, err := initGateway(cfg, discard())
		assert.Error(t, err)
	})

	t.Run("stripe checkout over paystack payouts", func(t *testing.T) {
		cfg := baseConfig().Gateway
		cfg.Provider = "paystack"
		cfg.CheckoutProvider = "stripe"
		cfg.Paystack.SecretKey = "sk_test_123"
		cfg.Stripe.ApiKey = "sk_test_stripe"
		gw, hooks, err := initGateway(cfg, discard())
		require.NoError(t, err)
		assert.NotNil(t, gw)
		assert.Contains(t, hooks, "paystack")
		assert.Contains(t, hooks, "stripe")
	})

	t.Run("stripe checkout without key", func(t *testing.T) {
		cfg := baseConfig().Gateway
		cfg.CheckoutProvider = "stripe"
		_, _, err := initGateway(cfg, discard())
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := baseConfig().Gateway
		cfg.Provider = "flutterwave"
		_, _, err := initGateway(cfg, discard())
		assert.ErrorContains(t, err, "unknown payment gateway")
	})
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", TimeFormat: time.RFC3339, Prefix: "[t]"})
	logger.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
