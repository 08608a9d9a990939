// Package app wires the wallet services together and registers the event
// handlers that react to ledger changes.
package app

import (
	"context"
	"log/slog"

	"github.com/amirasaad/wallet/pkg/domain/events"
	"github.com/amirasaad/wallet/pkg/eventbus"
	"github.com/amirasaad/wallet/pkg/service/settlement"
)

// setupEventBus registers all event handlers with the application bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	logger := a.Deps.Logger

	settlement.NewReconciler(a.Deps.Uow, logger).Register(bus)

	for _, t := range []events.EventType{
		events.EventTypeTransferCompleted,
		events.EventTypeFundingInitiated,
		events.EventTypeFundingSettled,
		events.EventTypeWithdrawalCompleted,
	} {
		bus.Register(t.String(), auditLog(logger))
	}
}

// auditLog writes every ledger event to the audit trail.
func auditLog(logger *slog.Logger) eventbus.HandlerFunc {
	log := logger.With("handler", "audit")
	return func(ctx context.Context, e events.Event) error {
		log.InfoContext(ctx, "ledger event", "type", e.Type(), "event", e)
		return nil
	}
}
