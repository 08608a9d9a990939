// Package webapi provides the HTTP surface of the wallet. It is organized
// into sub-packages:
// - wallet: funding, transfers, withdrawals and history
// - user: profile and handle management
// - webhook: payment gateway callbacks
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/wallet/pkg/app"
	"github.com/amirasaad/wallet/pkg/middleware"
	"github.com/amirasaad/wallet/webapi/common"
	userweb "github.com/amirasaad/wallet/webapi/user"
	walletweb "github.com/amirasaad/wallet/webapi/wallet"
	"github.com/amirasaad/wallet/webapi/webhook"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	// Configure rate limiting middleware
	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        a.Config.RateLimit.MaxRequests,
		Expiration: a.Config.RateLimit.Window,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/webhooks/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Wallet API is running! 🚀")
	})
	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if a.Deps.Registry != nil {
		fiberApp.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(a.Deps.Registry, promhttp.HandlerOpts{Registry: a.Deps.Registry}),
		))
	}

	protected := []fiber.Handler{
		middleware.JwtProtected(a.Config.Auth.Jwt),
		middleware.RequireAccount(a.AccountService),
	}
	walletweb.Routes(fiberApp, walletweb.Services{
		Ledger:     a.LedgerService,
		Pin:        a.PinService,
		Transfer:   a.TransferService,
		Settlement: a.SettlementService,
		Currency:   a.Config.Ledger.Currency,
	}, protected...)
	userweb.Routes(fiberApp, a.AccountService, protected...)
	webhook.Routes(fiberApp, a.SettlementService, a.Deps.Webhooks)
	return fiberApp
}
