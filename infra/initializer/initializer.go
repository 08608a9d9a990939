package initializer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/wallet/infra"
	"github.com/amirasaad/wallet/infra/cache"
	infra_eventbus "github.com/amirasaad/wallet/infra/eventbus"
	"github.com/amirasaad/wallet/infra/provider/mockgateway"
	"github.com/amirasaad/wallet/infra/provider/paystack"
	"github.com/amirasaad/wallet/infra/provider/stripepayment"
	infra_repository "github.com/amirasaad/wallet/infra/repository"
	"github.com/amirasaad/wallet/infra/repository/memory"
	"github.com/amirasaad/wallet/pkg/app"
	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/eventbus"
	"github.com/amirasaad/wallet/pkg/metrics"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{}
	logger := SetupLogger(cfg.Log)
	deps.Logger = logger

	// Initialize store
	if cfg.DB != nil && cfg.DB.Url != "" {
		db, err := infra.NewDBConnection(cfg.DB, cfg.Env, logger)
		if err != nil {
			logger.Error("Failed to initialize database", "error", err)
			return nil, err
		}
		deps.Uow = infra_repository.NewUoW(db)
	} else {
		logger.Warn("DATABASE_URL is not set; using the in-memory store")
		deps.Uow = memory.NewUoW(memory.New())
	}

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Registry = reg
	deps.Metrics = metrics.New(reg)

	// Initialize event bus
	deps.EventBus, err = initEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize payment gateway
	gw, webhooks, err := initGateway(cfg.Gateway, logger)
	if err != nil {
		return nil, err
	}
	banks, err := initBankCache(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.Gateway = cache.WithBankCache(gw, banks, cfg.Gateway.BankCacheTTL, logger)
	deps.Webhooks = webhooks

	return deps, nil
}

func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	driver := "memory"
	if cfg.EventBus != nil && cfg.EventBus.Driver != "" {
		driver = strings.ToLower(cfg.EventBus.Driver)
	}
	switch driver {
	case "memory":
		return infra_eventbus.NewWithMemory(logger), nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, fmt.Errorf("event bus driver redis requires REDIS_URL")
		}
		bus, err := infra_eventbus.NewWithRedis(cfg.Redis.URL, cfg.EventBus.Stream, cfg.EventBus.Group, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis event bus: %w", err)
		}
		return bus, nil
	case "kafka":
		if cfg.Kafka == nil || len(cfg.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("event bus driver kafka requires KAFKA_BROKERS")
		}
		bus, err := infra_eventbus.NewWithKafka(cfg.Kafka.Brokers, infra_eventbus.KafkaEventBusConfig{
			GroupID:     cfg.Kafka.GroupID,
			TopicPrefix: cfg.Kafka.TopicPrefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unknown event bus driver %q", driver)
	}
}

// initGateway builds the payment gateway from cfg. Provider serves payouts
// and, unless CheckoutProvider overrides it, checkouts.
func initGateway(cfg *config.Gateway, logger *slog.Logger) (
	gateway.Gateway,
	map[string]gateway.Webhooks,
	error,
) {
	webhooks := make(map[string]gateway.Webhooks)

	var full gateway.Gateway
	switch strings.ToLower(cfg.Provider) {
	case "", "mock":
		logger.Warn("using the mock payment gateway")
		full = mockgateway.New()
	case "paystack":
		if cfg.Paystack == nil || cfg.Paystack.SecretKey == "" {
			return nil, nil, fmt.Errorf("gateway paystack requires GATEWAY_PAYSTACK_SECRET_KEY")
		}
		client := paystack.New(cfg.Paystack, cfg.Timeout, logger)
		full = client
		webhooks["paystack"] = client
	default:
		return nil, nil, fmt.Errorf("unknown payment gateway %q", cfg.Provider)
	}

	switch strings.ToLower(cfg.CheckoutProvider) {
	case "", strings.ToLower(cfg.Provider):
		return full, webhooks, nil
	case "stripe":
		if cfg.Stripe == nil || cfg.Stripe.ApiKey == "" {
			return nil, nil, fmt.Errorf("checkout provider stripe requires GATEWAY_STRIPE_API_KEY")
		}
		checkout := stripepayment.New(cfg.Stripe, logger)
		webhooks["stripe"] = checkout
		return gateway.Compose(checkout, full), webhooks, nil
	case "paystack":
		if cfg.Paystack == nil || cfg.Paystack.SecretKey == "" {
			return nil, nil, fmt.Errorf("checkout provider paystack requires GATEWAY_PAYSTACK_SECRET_KEY")
		}
		client := paystack.New(cfg.Paystack, cfg.Timeout, logger)
		webhooks["paystack"] = client
		return gateway.Compose(client, full), webhooks, nil
	default:
		return nil, nil, fmt.Errorf("unknown checkout provider %q", cfg.CheckoutProvider)
	}
}

func initBankCache(cfg *config.App, logger *slog.Logger) (cache.BankCache, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(cfg.Redis.URL, "wallet:", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis bank cache: %w", err)
	}
	return c, nil
}
