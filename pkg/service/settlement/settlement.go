// Package settlement moves money between wallets and the outside world:
// card funding through a gateway checkout and bank withdrawals through
// gateway payouts.
//
// Payouts are never retried. When a payout may have been accepted but the
// ledger does not show it, callers get a *domain.AmbiguousSettlementError and
// a settlement.ambiguous event is published for reconciliation.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/events"
	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/amirasaad/wallet/pkg/eventbus"
	"github.com/amirasaad/wallet/pkg/metrics"
	"github.com/amirasaad/wallet/pkg/money"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/amirasaad/wallet/pkg/repository"
	txrepo "github.com/amirasaad/wallet/pkg/repository/transaction"
	"github.com/amirasaad/wallet/pkg/service/ledger"
	"github.com/amirasaad/wallet/pkg/service/pin"
	"github.com/google/uuid"
)

const (
	OperationFunding    = "funding"
	OperationWithdrawal = "withdrawal"
)

// FundingRequest asks to credit Amount (kobo) to AccountID by card.
type FundingRequest struct {
	AccountID uuid.UUID
	Email     string
	Amount    int64
}

// Funding is an opened checkout and the pending record that tracks it.
type Funding struct {
	Reference        string
	AccessCode       string
	AuthorizationURL string
	Quote            Quote
	Record           *transaction.Record
}

// WithdrawalRequest asks to pay Amount (kobo) out to a bank account.
type WithdrawalRequest struct {
	AccountID     uuid.UUID
	Amount        int64
	Reason        string
	PayeeName     string
	AccountNumber string
	BankCode      string
	PIN           string
}

type Service struct {
	uow     repository.UnitOfWork
	gateway gateway.Gateway
	bus     eventbus.Bus
	ledger  *config.Ledger
	timeout time.Duration
	country string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(
	uow repository.UnitOfWork,
	gw gateway.Gateway,
	bus eventbus.Bus,
	cfg *config.App,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	s := &Service{
		uow:     uow,
		gateway: gw,
		bus:     bus,
		ledger:  cfg.Ledger,
		metrics: m,
		logger:  logger,
	}
	if cfg.Gateway != nil {
		s.timeout = cfg.Gateway.Timeout
		s.country = cfg.Gateway.Country
	}
	return s
}

// Quote prices a funding of amount without opening a checkout.
func (s *Service) Quote(amount int64) Quote {
	return QuoteFunding(s.ledger, s.gateway.Fees(), amount)
}

// call runs one gateway request under the configured timeout and records
// its latency.
func (s *Service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveGatewayCall(op, start, err)
	return err
}

// InitiateFunding opens a checkout for the gross amount and stores a pending
// credit of the base amount under the checkout's reference.
func (s *Service) InitiateFunding(ctx context.Context, req FundingRequest) (f *Funding, err error) {
	log := s.logger.With(
		"handler", "settlement.InitiateFunding",
		"account_id", req.AccountID,
		"amount", req.Amount,
	)
	// nothing has settled yet, so no amount is counted
	defer func() { s.metrics.ObserveSettlement("funding_initiate", 0, err) }()

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, transaction.ErrAmountMustBePositive)
	}
	if req.Amount > money.MaxAmount {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, money.ErrAmountExceedsMaxSafeInt)
	}
	if err := s.ensureAccount(ctx, req.AccountID); err != nil {
		return nil, err
	}

	quote := s.Quote(req.Amount)
	var session *gateway.Session
	err = s.call(ctx, "initiate_checkout", func(ctx context.Context) error {
		var err error
		session, err = s.gateway.InitiateCheckout(ctx, gateway.CheckoutParams{
			Email:     req.Email,
			Amount:    quote.Gross,
			Reference: uuid.NewString(),
			Currency:  s.ledger.Currency,
			Metadata:  map[string]string{"account_id": req.AccountID.String()},
		})
		return err
	})
	if err != nil {
		log.Error("failed to open checkout", "error", err)
		return nil, domain.GatewayError("initiate checkout", err)
	}
	if session == nil || session.Reference == "" {
		return nil, domain.GatewayError("initiate checkout", errors.New("empty checkout session"))
	}

	rec, err := transaction.NewFund(req.AccountID, req.Amount, session.Reference, session.AccessCode)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		records, err := uow.TransactionRepository()
		if err != nil {
			return fmt.Errorf("failed to get transaction repository: %w", err)
		}
		return records.Create(ctx, rec)
	})
	if err != nil {
		// nothing was charged yet; the orphaned checkout simply expires
		log.Error("failed to store pending funding", "reference", session.Reference, "error", err)
		return nil, err
	}

	log.Info("funding initiated", "reference", rec.Reference, "gross", quote.Gross)
	s.emit(ctx, events.FundingInitiated{
		Reference:  rec.Reference,
		AccountID:  req.AccountID,
		Amount:     rec.Amount,
		Gross:      quote.Gross,
		OccurredAt: rec.CreatedAt,
	})
	return &Funding{
		Reference:        rec.Reference,
		AccessCode:       session.AccessCode,
		AuthorizationURL: session.AuthorizationURL,
		Quote:            quote,
		Record:           rec,
	}, nil
}

// VerifyFunding asks the gateway how the checkout ended and finalizes the
// pending record once. Later calls return the terminal record unchanged.
func (s *Service) VerifyFunding(ctx context.Context, reference string) (rec *transaction.Record, err error) {
	reference = strings.TrimSpace(reference)
	log := s.logger.With("handler", "settlement.VerifyFunding", "reference", reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, transaction.ErrMissingReference)
	}

	var v *gateway.Verification
	err = s.call(ctx, "verify_checkout", func(ctx context.Context) error {
		var err error
		v, err = s.gateway.VerifyCheckout(ctx, reference)
		return err
	})
	if err != nil {
		log.Error("failed to verify checkout", "error", err)
		return nil, domain.GatewayError("verify checkout", err)
	}
	if v == nil {
		return nil, domain.GatewayError("verify checkout", errors.New("empty verification"))
	}

	status := transaction.ParseStatus(v.Status)
	var applied bool
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		records, err := uow.TransactionRepository()
		if err != nil {
			return fmt.Errorf("failed to get transaction repository: %w", err)
		}
		rec, applied, err = records.Finalize(ctx, reference, txrepo.Finalization{
			Status:        status,
			ProcessingFee: v.ProcessingFee(),
			Authorization: v.Authorization,
		})
		return err
	})
	if err != nil {
		log.Warn("failed to finalize funding", "error", err)
		return nil, err
	}
	if !applied {
		log.Debug("funding not transitioned", "status", rec.Status, "gateway_status", v.Status)
		return rec, nil
	}

	log.Info("funding settled", "status", rec.Status, "processing_fee", rec.ProcessingFee)
	if rec.Status == transaction.StatusSuccess {
		s.metrics.ObserveSettlement(OperationFunding, rec.Amount, nil)
	}
	var accountID uuid.UUID
	if rec.Recipient != nil {
		accountID = *rec.Recipient
	}
	s.emit(ctx, events.FundingSettled{
		Reference:     rec.Reference,
		AccountID:     accountID,
		Amount:        rec.Amount,
		Status:        string(rec.Status),
		ProcessingFee: rec.ProcessingFee,
		OccurredAt:    rec.UpdatedAt,
	})
	return rec, nil
}

// InitiateWithdrawal pays req.Amount plus the withdrawal fee out to a bank
// account and records the debit. The account stays locked from the balance
// check until the record is written, so concurrent withdrawals cannot
// overspend.
func (s *Service) InitiateWithdrawal(ctx context.Context, req WithdrawalRequest) (rec *transaction.Record, err error) {
	log := s.logger.With(
		"handler", "settlement.InitiateWithdrawal",
		"account_id", req.AccountID,
		"amount", req.Amount,
		"bank_code", req.BankCode,
	)
	defer func() { s.metrics.ObserveSettlement(OperationWithdrawal, req.Amount, err) }()

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, transaction.ErrAmountMustBePositive)
	}
	if req.Amount > money.MaxAmount {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, money.ErrAmountExceedsMaxSafeInt)
	}

	var recipient *gateway.Recipient
	err = s.call(ctx, "create_recipient", func(ctx context.Context) error {
		var err error
		recipient, err = s.gateway.CreatePayoutRecipient(ctx, gateway.RecipientParams{
			Name:          strings.TrimSpace(req.PayeeName),
			AccountNumber: strings.TrimSpace(req.AccountNumber),
			BankCode:      strings.TrimSpace(req.BankCode),
			Currency:      s.ledger.Currency,
			Description:   req.Reason,
		})
		return err
	})
	if err != nil {
		log.Warn("payout recipient rejected", "error", err)
		if errors.Is(err, domain.ErrInvalidBankAccount) {
			return nil, err
		}
		return nil, domain.GatewayError("create payout recipient", err)
	}

	reference := uuid.NewString()
	total := req.Amount + s.ledger.WithdrawalFee
	var (
		payout  *gateway.Payout
		payErr  error
		reached bool // the payout request left this process
	)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return fmt.Errorf("failed to get account repository: %w", err)
		}
		records, err := uow.TransactionRepository()
		if err != nil {
			return fmt.Errorf("failed to get transaction repository: %w", err)
		}

		acc, err := accounts.Lock(ctx, req.AccountID)
		if err != nil {
			return err
		}
		if !pin.Matches(acc, req.PIN) {
			return domain.ErrInvalidPin
		}
		balance, err := ledger.BalanceOf(ctx, records, acc.ID)
		if err != nil {
			return err
		}
		if !ledger.Covers(balance, req.Amount, s.ledger.Reserve) {
			log.Info("insufficient funds", "balance", balance, "reserve", s.ledger.Reserve)
			return domain.ErrInsufficientFunds
		}

		reached = true
		payErr = s.call(ctx, "initiate_payout", func(ctx context.Context) error {
			var err error
			payout, err = s.gateway.InitiatePayout(ctx, gateway.PayoutParams{
				Amount:        total,
				RecipientCode: recipient.Code,
				Reason:        req.Reason,
				Reference:     reference,
				Currency:      s.ledger.Currency,
			})
			return err
		})
		if payErr != nil {
			if mayHaveActed(payErr) {
				return payErr
			}
			reached = false
			return domain.GatewayError("initiate payout", payErr)
		}
		if payout == nil {
			return errors.New("empty payout response")
		}
		if transaction.ParseStatus(payout.Status) == transaction.StatusFailed {
			reached = false
			return domain.GatewayError("initiate payout", fmt.Errorf("payout %s", payout.Status))
		}

		rec, err = transaction.NewWithdrawal(transaction.WithdrawalParams{
			Originator:  acc.ID,
			Amount:      total,
			Fee:         s.ledger.WithdrawalFee,
			Reason:      req.Reason,
			Reference:   reference,
			BankDetails: recipient.Details,
		})
		if err != nil {
			return err
		}
		return records.Create(ctx, rec)
	})
	if err != nil {
		if reached {
			return nil, s.ambiguous(ctx, log, req.AccountID, reference, total, err)
		}
		log.Warn("withdrawal rejected", "error", err)
		return nil, err
	}

	log.Info("withdrawal completed", "reference", rec.Reference, "transfer_code", payout.TransferCode)
	s.emit(ctx, events.WithdrawalCompleted{
		ID:           rec.ID,
		Reference:    rec.Reference,
		AccountID:    req.AccountID,
		Amount:       rec.Amount,
		Fee:          rec.ProcessingFee,
		TransferCode: payout.TransferCode,
		OccurredAt:   rec.CreatedAt,
	})
	return rec, nil
}

// ambiguous reports a payout whose outcome the ledger does not reflect.
func (s *Service) ambiguous(
	ctx context.Context,
	log *slog.Logger,
	accountID uuid.UUID,
	reference string,
	amount int64,
	cause error,
) error {
	log.Error("withdrawal outcome unknown, reconciliation required",
		"reference", reference, "error", cause)
	s.metrics.ObserveAmbiguous(OperationWithdrawal)
	// the request context may already be done; the alert must still go out
	s.emit(context.WithoutCancel(ctx), events.SettlementAmbiguous{
		Reference:  reference,
		AccountID:  accountID,
		Amount:     amount,
		Operation:  OperationWithdrawal,
		Cause:      cause.Error(),
		OccurredAt: time.Now().UTC(),
	})
	return &domain.AmbiguousSettlementError{Reference: reference, Err: cause}
}

// mayHaveActed reports whether the remote side may have performed a request
// whose answer was lost or whose failure it could not vouch for.
func mayHaveActed(err error) bool {
	return gateway.IsTimeout(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, gateway.ErrOutcomeUnknown)
}

// ListBanks returns the payout banks of the configured country.
func (s *Service) ListBanks(ctx context.Context) ([]gateway.Bank, error) {
	var banks []gateway.Bank
	err := s.call(ctx, "list_banks", func(ctx context.Context) error {
		var err error
		banks, err = s.gateway.ListBanks(ctx, s.country)
		return err
	})
	if err != nil {
		s.logger.Error("failed to list banks", "handler", "settlement.ListBanks", "error", err)
		return nil, domain.GatewayError("list banks", err)
	}
	return banks, nil
}

// ResolveAccount looks up the holder name of a bank account.
func (s *Service) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*gateway.ResolvedAccount, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	bankCode = strings.TrimSpace(bankCode)
	if accountNumber == "" || bankCode == "" {
		return nil, fmt.Errorf("%w: account number and bank code are required", domain.ErrValidation)
	}
	var resolved *gateway.ResolvedAccount
	err := s.call(ctx, "resolve_account", func(ctx context.Context) error {
		var err error
		resolved, err = s.gateway.ResolveAccount(ctx, accountNumber, bankCode)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBankAccount) {
			return nil, err
		}
		return nil, domain.GatewayError("resolve account", err)
	}
	return resolved, nil
}

func (s *Service) ensureAccount(ctx context.Context, id uuid.UUID) error {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return fmt.Errorf("failed to get account repository: %w", err)
	}
	_, err = accounts.Get(ctx, id)
	return err
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if err := s.bus.Emit(ctx, e); err != nil {
		s.logger.Error("failed to emit event", "type", e.Type(), "error", err)
	}
}
