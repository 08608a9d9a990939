package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/wallet/pkg/money"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first env file found among envFilePath (searching parent
// directories), falls back to ./.env, then processes the environment.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	for _, path := range envFilePath {
		logger.Debug("Looking for environment file", "path", path)
		foundPath, err := findEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using default .env")
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"event_bus", cfg.EventBus.Driver,
		"gateway", cfg.Gateway.Provider,
		"gateway_timeout", cfg.Gateway.Timeout,
		"paystack_key", maskValue(cfg.Gateway.Paystack.SecretKey),
		"stripe_key", maskValue(cfg.Gateway.Stripe.ApiKey),
		"ledger_reserve", cfg.Ledger.Reserve,
		"withdrawal_fee", cfg.Ledger.WithdrawalFee,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
	)
	return &cfg, nil
}

// Validate checks cross-field rules envconfig cannot express.
func (c *App) Validate() error {
	var errs []error
	if c.Ledger.Reserve < 0 || c.Ledger.Reserve > money.MaxAmount {
		errs = append(errs, fmt.Errorf("LEDGER_RESERVE must be in [0, %d]", money.MaxAmount))
	}
	if c.Ledger.WithdrawalFee < 0 || c.Ledger.WithdrawalFee > money.MaxAmount {
		errs = append(errs, fmt.Errorf("LEDGER_WITHDRAWAL_FEE must be in [0, %d]", money.MaxAmount))
	}
	if c.Ledger.SplitPercentage < 0 || c.Ledger.SplitPercentage >= 1 {
		errs = append(errs, errors.New("LEDGER_SPLIT_PERCENTAGE must be in [0, 1)"))
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_TIMEOUT must be positive"))
	}
	switch c.EventBus.Driver {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis event bus"))
		}
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka event bus"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_BUS_DRIVER %q", c.EventBus.Driver))
	}
	for _, p := range []string{c.Gateway.Provider, c.Gateway.CheckoutProvider} {
		switch p {
		case "", "mock", "paystack", "stripe":
		default:
			errs = append(errs, fmt.Errorf("unknown gateway provider %q", p))
		}
	}
	if c.Gateway.Provider == "stripe" {
		errs = append(errs, errors.New("GATEWAY_PROVIDER=stripe cannot serve payouts; use GATEWAY_CHECKOUT_PROVIDER=stripe"))
	}
	return errors.Join(errs...)
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
