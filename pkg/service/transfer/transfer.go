// Package transfer moves value between two wallet accounts by handle.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/amirasaad/wallet/pkg/domain/events"
	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/amirasaad/wallet/pkg/eventbus"
	"github.com/amirasaad/wallet/pkg/metrics"
	"github.com/amirasaad/wallet/pkg/money"
	"github.com/amirasaad/wallet/pkg/repository"
	"github.com/amirasaad/wallet/pkg/service/ledger"
	"github.com/amirasaad/wallet/pkg/service/pin"
	"github.com/google/uuid"
)

// Request is an authenticated transfer instruction. Reference is optional;
// a fresh one is generated when empty.
type Request struct {
	OriginatorID    uuid.UUID
	RecipientHandle string
	Amount          int64
	PIN             string
	Comment         string
	Reference       string
}

type Service struct {
	uow     repository.UnitOfWork
	bus     eventbus.Bus
	reserve int64
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	cfg *config.Ledger,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:     uow,
		bus:     bus,
		reserve: cfg.Reserve,
		metrics: m,
		logger:  logger,
	}
}

// Transfer debits the originator and credits the account owning
// RecipientHandle. Each check below is a precondition of the write; on any
// failure the ledger is left untouched.
func (s *Service) Transfer(ctx context.Context, req Request) (rec *transaction.Record, err error) {
	log := s.logger.With(
		"handler", "transfer.Transfer",
		"originator_id", req.OriginatorID,
		"recipient_handle", req.RecipientHandle,
		"amount", req.Amount,
	)
	defer func() { s.metrics.ObserveTransfer(req.Amount, err) }()

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, transaction.ErrAmountMustBePositive)
	}
	if req.Amount > money.MaxAmount {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, money.ErrAmountExceedsMaxSafeInt)
	}
	handle, err := account.NormalizeHandle(req.RecipientHandle)
	if err != nil {
		// a malformed handle cannot name anybody
		return nil, domain.ErrRecipientNotFound
	}
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = uuid.NewString()
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return fmt.Errorf("failed to get account repository: %w", err)
		}
		records, err := uow.TransactionRepository()
		if err != nil {
			return fmt.Errorf("failed to get transaction repository: %w", err)
		}

		recipient, err := accounts.GetByHandle(ctx, handle)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return domain.ErrRecipientNotFound
			}
			return err
		}
		if recipient.ID == req.OriginatorID {
			return domain.ErrSameAccount
		}

		originator, err := accounts.Lock(ctx, req.OriginatorID)
		if err != nil {
			return err
		}
		balance, err := ledger.BalanceOf(ctx, records, originator.ID)
		if err != nil {
			return err
		}
		if !ledger.Covers(balance, req.Amount, s.reserve) {
			log.Info("insufficient funds", "balance", balance, "reserve", s.reserve)
			return domain.ErrInsufficientFunds
		}

		if !pin.Matches(originator, req.PIN) {
			return domain.ErrInvalidPin
		}

		rec, err = transaction.NewTransfer(transaction.TransferParams{
			Originator:      originator.ID,
			Recipient:       recipient.ID,
			SenderHandle:    originator.Handle,
			RecipientHandle: recipient.Handle,
			Amount:          req.Amount,
			Comment:         req.Comment,
			Reference:       reference,
		})
		if err != nil {
			return err
		}
		return records.Create(ctx, rec)
	})
	if err != nil {
		log.Warn("transfer rejected", "error", err)
		return nil, err
	}

	log.Info("transfer completed", "reference", rec.Reference, "transaction_id", rec.ID)
	if err := s.bus.Emit(ctx, events.TransferCompleted{
		ID:              rec.ID,
		Reference:       rec.Reference,
		OriginatorID:    *rec.Originator,
		RecipientID:     *rec.Recipient,
		RecipientHandle: rec.RecipientHandle,
		Amount:          rec.Amount,
		OccurredAt:      rec.CreatedAt,
	}); err != nil {
		log.Error("failed to emit transfer completed event", "error", err)
	}
	return rec, nil
}
