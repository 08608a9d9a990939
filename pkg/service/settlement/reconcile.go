package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/events"
	"github.com/amirasaad/wallet/pkg/eventbus"
	"github.com/amirasaad/wallet/pkg/repository"
)

// Reconciler consumes settlement.ambiguous events. It checks whether the
// ledger holds a record for the reference after all and raises an operator
// alert when it does not.
type Reconciler struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func NewReconciler(uow repository.UnitOfWork, logger *slog.Logger) *Reconciler {
	return &Reconciler{uow: uow, logger: logger.With("handler", "settlement.Reconciler")}
}

// Register subscribes the reconciler to bus.
func (r *Reconciler) Register(bus eventbus.Bus) {
	bus.Register(events.EventTypeSettlementAmbiguous.String(), r.Handle)
}

// Handle implements eventbus.HandlerFunc.
func (r *Reconciler) Handle(ctx context.Context, e events.Event) error {
	var evt events.SettlementAmbiguous
	switch v := e.(type) {
	case events.SettlementAmbiguous:
		evt = v
	case *events.SettlementAmbiguous:
		evt = *v
	default:
		return fmt.Errorf("unexpected event %T", e)
	}

	log := r.logger.With(
		"reference", evt.Reference,
		"account_id", evt.AccountID,
		"operation", evt.Operation,
		"amount", evt.Amount,
	)
	records, err := r.uow.TransactionRepository()
	if err != nil {
		return fmt.Errorf("failed to get transaction repository: %w", err)
	}
	rec, err := records.GetByReference(ctx, evt.Reference)
	switch {
	case err == nil:
		log.Info("ambiguous settlement is recorded in the ledger", "status", rec.Status)
		return nil
	case errors.Is(err, domain.ErrRecordNotFound):
		log.Error("RECONCILIATION REQUIRED: gateway may have moved money the ledger does not show",
			"cause", evt.Cause)
		return nil
	default:
		return err
	}
}
