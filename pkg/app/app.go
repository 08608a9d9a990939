package app

import (
	"log/slog"

	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/eventbus"
	"github.com/amirasaad/wallet/pkg/metrics"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/amirasaad/wallet/pkg/repository"
	"github.com/amirasaad/wallet/pkg/service/account"
	"github.com/amirasaad/wallet/pkg/service/ledger"
	"github.com/amirasaad/wallet/pkg/service/pin"
	"github.com/amirasaad/wallet/pkg/service/settlement"
	"github.com/amirasaad/wallet/pkg/service/transfer"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps contains the infrastructure the services are built from.
type Deps struct {
	Uow      repository.UnitOfWork
	EventBus eventbus.Bus
	Gateway  gateway.Gateway
	// Webhooks maps a provider name ("paystack", "stripe") to its callback parser.
	Webhooks map[string]gateway.Webhooks
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type App struct {
	Deps              *Deps
	Config            *config.App
	AccountService    *account.Service
	PinService        *pin.Service
	LedgerService     *ledger.Service
	TransferService   *transfer.Service
	SettlementService *settlement.Service
}

func New(deps *Deps, cfg *config.App) *App {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.AccountService = account.New(deps.Uow, deps.Logger)
	app.PinService = pin.New(deps.Uow, deps.Logger)
	app.LedgerService = ledger.New(deps.Uow, deps.Logger)
	app.TransferService = transfer.New(deps.Uow, deps.EventBus, cfg.Ledger, deps.Metrics, deps.Logger)
	app.SettlementService = settlement.New(deps.Uow, deps.Gateway, deps.EventBus, cfg, deps.Metrics, deps.Logger)
	app.setupEventBus()
	return app
}
