package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/wallet/infra/initializer"
	"github.com/amirasaad/wallet/pkg/app"
	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/webapi"
	log "github.com/charmbracelet/log"
)

// @title Wallet API
// @version 1.0.0
// @description Custodial wallet: card funding, transfers between handles and bank withdrawals.
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	// Initialize all dependencies
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger
	defer closeBus(deps, logger)

	// Create and start the application
	a := app.New(deps, cfg)

	// Setup Fiber app with all routes and middleware
	fiberApp := webapi.SetupApp(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		if err := fiberApp.ShutdownWithTimeout(30 * time.Second); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
		"gateway", cfg.Gateway.Provider,
		"event_bus", cfg.EventBus.Driver,
	)
	return fiberApp.Listen(addr)
}

func closeBus(deps *app.Deps, logger *slog.Logger) {
	if c, ok := deps.EventBus.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Error("failed to close event bus", "error", err)
		}
	}
}
