package settlement_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/wallet/infra/eventbus"
	"github.com/amirasaad/wallet/infra/provider/mockgateway"
	"github.com/amirasaad/wallet/infra/repository/memory"
	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/amirasaad/wallet/pkg/domain/events"
	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/amirasaad/wallet/pkg/metrics"
	"github.com/amirasaad/wallet/pkg/money"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/amirasaad/wallet/pkg/repository"
	txrepo "github.com/amirasaad/wallet/pkg/repository/transaction"
	"github.com/amirasaad/wallet/pkg/service/ledger"
	"github.com/amirasaad/wallet/pkg/service/settlement"
	"github.com/amirasaad/wallet/pkg/service/transfer"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testPin       = "2468"
	accountNumber = "0123456789"
	bankCode      = "058"
)

func ledgerConfig() *config.Ledger {
	return &config.Ledger{
		Reserve:              10000,
		WithdrawalFee:        1500,
		PlatformFeeThreshold: 250000,
		PlatformFeeAbove:     15000,
		PlatformFeeBelow:     1000,
		SplitPercentage:      0.01,
		Currency:             "NGN",
	}
}

type fixture struct {
	store   *memory.Store
	uow     *memory.UoW
	gw      *mockgateway.Gateway
	bus     *eventbus.MemoryEventBus
	reg     *prometheus.Registry
	cfg     *config.App
	logger  *slog.Logger
	svc     *settlement.Service
	pinHash []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPin), bcrypt.MinCost)
	require.NoError(t, err)
	f := &fixture{
		store:  store,
		uow:    memory.NewUoW(store),
		gw:     mockgateway.New(),
		bus:    eventbus.NewWithMemory(logger),
		reg:    prometheus.NewRegistry(),
		logger: logger,
		cfg: &config.App{
			Ledger:  ledgerConfig(),
			Gateway: &config.Gateway{Timeout: time.Second, Country: "nigeria"},
		},
		pinHash: hash,
	}
	f.svc = f.service(f.uow)
	return f
}

func (f *fixture) service(uow repository.UnitOfWork) *settlement.Service {
	return settlement.New(uow, f.gw, f.bus, f.cfg, metrics.New(prometheus.NewRegistry()), f.logger)
}

func (f *fixture) account(t *testing.T, handle string) *account.Account {
	t.Helper()
	acc, err := account.New().
		WithEmail(handle + "@example.com").
		WithHandle(handle).
		WithPinHash(f.pinHash).
		Build()
	require.NoError(t, err)
	repo, err := f.uow.AccountRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), acc))
	return acc
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	repo, err := f.uow.TransactionRepository()
	require.NoError(t, err)
	bal, err := ledger.BalanceOf(context.Background(), repo, id)
	require.NoError(t, err)
	return bal
}

// fund runs a full successful card funding of amount.
func (f *fixture) fund(t *testing.T, acc *account.Account, amount, fee int64) *transaction.Record {
	t.Helper()
	ctx := context.Background()
	funding, err := f.svc.InitiateFunding(ctx, settlement.FundingRequest{
		AccountID: acc.ID, Email: acc.Email, Amount: amount,
	})
	require.NoError(t, err)
	require.NoError(t, f.gw.Settle(funding.Reference, "success", fee))
	rec, err := f.svc.VerifyFunding(ctx, funding.Reference)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusSuccess, rec.Status)
	return rec
}

func (f *fixture) withdrawal(acc *account.Account, amount int64) settlement.WithdrawalRequest {
	return settlement.WithdrawalRequest{
		AccountID:     acc.ID,
		Amount:        amount,
		Reason:        "rent",
		PayeeName:     "Ada Lovelace",
		AccountNumber: accountNumber,
		BankCode:      bankCode,
		PIN:           testPin,
	}
}

func published[T events.Event](bus *eventbus.MemoryEventBus) []T {
	var out []T
	for _, e := range bus.Published() {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestQuoteFunding(t *testing.T) {
	cfg := ledgerConfig()

	q := settlement.QuoteFunding(cfg, gateway.PaystackLocal, 500000)
	assert.Equal(t, settlement.Quote{
		Amount:      500000,
		GatewayFee:  17768,
		PlatformFee: 15000,
		Split:       5000,
		Gross:       537768,
	}, q)

	q = settlement.QuoteFunding(cfg, gateway.PaystackLocal, 100000)
	assert.Equal(t, int64(1524), q.GatewayFee)
	assert.Equal(t, int64(1000), q.PlatformFee)
	assert.Equal(t, int64(1000), q.Split)
	assert.Equal(t, int64(103524), q.Gross)

	q = settlement.QuoteFunding(cfg, gateway.NoFees, 250000)
	assert.Equal(t, int64(250000+15000+2500), q.Gross)
}

func TestSplitFee_RoundsUp(t *testing.T) {
	cfg := ledgerConfig()
	assert.Equal(t, int64(2), settlement.SplitFee(cfg, 101))
	assert.Equal(t, int64(0), settlement.SplitFee(&config.Ledger{}, 101))
	assert.Equal(t, int64(1000), settlement.PlatformFee(cfg, 249999))
	assert.Equal(t, int64(15000), settlement.PlatformFee(cfg, 250000))
}

func TestInitiateFunding(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")

	funding, err := f.svc.InitiateFunding(context.Background(), settlement.FundingRequest{
		AccountID: acc.ID, Email: acc.Email, Amount: 500000,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, funding.Reference)
	assert.Equal(t, "ac_"+funding.Reference, funding.AccessCode)
	assert.NotEmpty(t, funding.AuthorizationURL)
	assert.Equal(t, transaction.StatusPending, funding.Record.Status)
	assert.Equal(t, int64(500000), funding.Record.Amount)

	params, ok := f.gw.Checkout(funding.Reference)
	require.True(t, ok)
	assert.Equal(t, funding.Quote.Gross, params.Amount)
	assert.Equal(t, acc.Email, params.Email)
	assert.Equal(t, "NGN", params.Currency)

	// pending funding is not spendable
	assert.Equal(t, int64(0), f.balance(t, acc.ID))
	require.Len(t, published[events.FundingInitiated](f.bus), 1)
}

func TestInitiateFunding_Failures(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	ctx := context.Background()

	_, err := f.svc.InitiateFunding(ctx, settlement.FundingRequest{AccountID: acc.ID, Amount: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.InitiateFunding(ctx, settlement.FundingRequest{AccountID: uuid.New(), Amount: 1000})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	f.gw.FailOn(mockgateway.OpInitiateCheckout, errors.New("503 service unavailable"))
	_, err = f.svc.InitiateFunding(ctx, settlement.FundingRequest{AccountID: acc.ID, Email: acc.Email, Amount: 1000})
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.True(t, domain.Retryable(err))

	list, err := ledger.New(f.uow, f.logger).Transactions(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVerifyFunding_Idempotent(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	ctx := context.Background()

	funding, err := f.svc.InitiateFunding(ctx, settlement.FundingRequest{AccountID: acc.ID, Email: acc.Email, Amount: 500000})
	require.NoError(t, err)

	rec, err := f.svc.VerifyFunding(ctx, funding.Reference)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, rec.Status)

	require.NoError(t, f.gw.Settle(funding.Reference, "success", 7500))
	first, err := f.svc.VerifyFunding(ctx, funding.Reference)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusSuccess, first.Status)
	assert.Equal(t, int64(7500), first.ProcessingFee)
	assert.NotEmpty(t, first.Authorization)

	// the gateway changing its mind does not re-apply anything
	require.NoError(t, f.gw.Settle(funding.Reference, "reversed", 9999))
	second, err := f.svc.VerifyFunding(ctx, funding.Reference)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ProcessingFee, second.ProcessingFee)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, int64(500000), f.balance(t, acc.ID))
	assert.Len(t, published[events.FundingSettled](f.bus), 1)
}

func TestVerifyFunding_Failed(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	ctx := context.Background()

	funding, err := f.svc.InitiateFunding(ctx, settlement.FundingRequest{AccountID: acc.ID, Email: acc.Email, Amount: 100000})
	require.NoError(t, err)
	require.NoError(t, f.gw.Settle(funding.Reference, "abandoned", 0))

	rec, err := f.svc.VerifyFunding(ctx, funding.Reference)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusFailed, rec.Status)
	assert.Equal(t, int64(0), f.balance(t, acc.ID))
}

func TestVerifyFunding_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.VerifyFunding(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.VerifyFunding(ctx, "unknown-ref")
	assert.ErrorIs(t, err, domain.ErrGateway)

	// the gateway knows the checkout, the ledger does not
	_, err = f.gw.InitiateCheckout(ctx, gateway.CheckoutParams{Reference: "foreign-ref", Amount: 1000})
	require.NoError(t, err)
	require.NoError(t, f.gw.Settle("foreign-ref", "success", 10))
	_, err = f.svc.VerifyFunding(ctx, "foreign-ref")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestInitiateWithdrawal(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	f.fund(t, acc, 500000, 7500)

	rec, err := f.svc.InitiateWithdrawal(context.Background(), f.withdrawal(acc, 100000))
	require.NoError(t, err)

	assert.Equal(t, transaction.KindWithdrawal, rec.Kind)
	assert.Equal(t, transaction.StatusSuccess, rec.Status)
	assert.Equal(t, int64(101500), rec.Amount)
	assert.Equal(t, int64(1500), rec.ProcessingFee)
	assert.Contains(t, string(rec.BankDetails), accountNumber)

	payouts := f.gw.Payouts()
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(101500), payouts[0].Amount)
	assert.Equal(t, rec.Reference, payouts[0].Reference)

	assert.Equal(t, int64(500000-101500), f.balance(t, acc.ID))
	completed := published[events.WithdrawalCompleted](f.bus)
	require.Len(t, completed, 1)
	assert.NotEmpty(t, completed[0].TransferCode)
}

func TestInitiateWithdrawal_Rejections(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	f.fund(t, acc, 200000, 0)

	badBank := f.withdrawal(acc, 1000)
	badBank.AccountNumber = "123"
	wrongPin := f.withdrawal(acc, 1000)
	wrongPin.PIN = "0000"

	tests := []struct {
		name string
		req  settlement.WithdrawalRequest
		want error
	}{
		{"zero amount", f.withdrawal(acc, 0), domain.ErrValidation},
		{"invalid bank account", badBank, domain.ErrInvalidBankAccount},
		{"wrong pin", wrongPin, domain.ErrInvalidPin},
		{"insufficient funds", f.withdrawal(acc, 190000), domain.ErrInsufficientFunds},
		{"unknown account", f.withdrawal(&account.Account{ID: uuid.New()}, 1000), domain.ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.InitiateWithdrawal(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, domain.ErrSettlementAmbiguous)
		})
	}

	assert.Empty(t, f.gw.Payouts())
	assert.Equal(t, int64(200000), f.balance(t, acc.ID))
}

func TestInitiateWithdrawal_PayoutDeclined(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	f.fund(t, acc, 200000, 0)

	f.gw.FailOn(mockgateway.OpInitiatePayout, errors.New("insufficient balance on integration"))
	_, err := f.svc.InitiateWithdrawal(context.Background(), f.withdrawal(acc, 1000))
	require.ErrorIs(t, err, domain.ErrGateway)
	assert.NotErrorIs(t, err, domain.ErrSettlementAmbiguous)
	assert.Equal(t, int64(200000), f.balance(t, acc.ID))
	assert.Empty(t, published[events.SettlementAmbiguous](f.bus))
}

func TestInitiateWithdrawal_TimeoutIsAmbiguous(t *testing.T) {
	f := newFixture(t)
	f.cfg.Gateway.Timeout = 50 * time.Millisecond
	f.svc = f.service(f.uow)
	acc := f.account(t, "ada_lovelace")
	f.fund(t, acc, 200000, 0)

	reconciled := make(chan events.Event, 1)
	f.bus.Register(events.EventTypeSettlementAmbiguous.String(), func(_ context.Context, e events.Event) error {
		reconciled <- e
		return nil
	})
	settlement.NewReconciler(f.uow, f.logger).Register(f.bus)

	f.gw.DelayOn(mockgateway.OpInitiatePayout, 300*time.Millisecond)
	_, err := f.svc.InitiateWithdrawal(context.Background(), f.withdrawal(acc, 1000))
	require.ErrorIs(t, err, domain.ErrSettlementAmbiguous)
	assert.False(t, domain.Retryable(err))

	var amb *domain.AmbiguousSettlementError
	require.ErrorAs(t, err, &amb)
	require.NotEmpty(t, amb.Reference)

	// the gateway acted even though the answer was lost
	payouts := f.gw.Payouts()
	require.Len(t, payouts, 1)
	assert.Equal(t, amb.Reference, payouts[0].Reference)
	assert.Equal(t, int64(200000), f.balance(t, acc.ID))

	select {
	case e := <-reconciled:
		evt := e.(events.SettlementAmbiguous)
		assert.Equal(t, amb.Reference, evt.Reference)
		assert.Equal(t, settlement.OperationWithdrawal, evt.Operation)
		assert.Equal(t, int64(1000+1500), evt.Amount)
	default:
		t.Fatal("settlement.ambiguous was not published")
	}
}

type failingCreates struct {
	repository.UnitOfWork
}

func (u failingCreates) Do(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	return u.UnitOfWork.Do(ctx, func(inner repository.UnitOfWork) error {
		return fn(failingCreates{inner})
	})
}

func (u failingCreates) TransactionRepository() (txrepo.Repository, error) {
	repo, err := u.UnitOfWork.TransactionRepository()
	return createFails{repo}, err
}

type createFails struct {
	txrepo.Repository
}

func (createFails) Create(context.Context, *transaction.Record) error {
	return errors.New("connection reset by peer")
}

func TestInitiateWithdrawal_CommitFailureAfterPayoutIsAmbiguous(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	f.fund(t, acc, 200000, 0)

	svc := f.service(failingCreates{f.uow})
	_, err := svc.InitiateWithdrawal(context.Background(), f.withdrawal(acc, 1000))
	require.ErrorIs(t, err, domain.ErrSettlementAmbiguous)
	assert.Len(t, f.gw.Payouts(), 1)
	assert.Len(t, published[events.SettlementAmbiguous](f.bus), 1)
	assert.Equal(t, int64(200000), f.balance(t, acc.ID))
}

func TestInitiateWithdrawal_ConcurrentCannotOverspend(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	f.fund(t, acc, 300000, 0)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.InitiateWithdrawal(context.Background(), f.withdrawal(acc, 100000))
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Len(t, f.gw.Payouts(), 2)
	assert.Equal(t, int64(300000-2*101500), f.balance(t, acc.ID))
}

func TestInitiateWithdrawal_SlowPayoutDoesNotBlockOtherAccounts(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada_lovelace")
	alan := f.account(t, "alan_turing")
	f.fund(t, ada, 200000, 0)
	f.fund(t, alan, 200000, 0)

	const delay = 300 * time.Millisecond
	f.gw.DelayOn(mockgateway.OpInitiatePayout, delay)

	var wg sync.WaitGroup
	start := time.Now()
	for _, acc := range []*account.Account{ada, alan} {
		wg.Add(1)
		go func(acc *account.Account) {
			defer wg.Done()
			_, err := f.svc.InitiateWithdrawal(context.Background(), f.withdrawal(acc, 1000))
			assert.NoError(t, err)
		}(acc)
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 2*delay-50*time.Millisecond)
	assert.Len(t, f.gw.Payouts(), 2)
	assert.Equal(t, int64(200000-2500), f.balance(t, ada.ID))
	assert.Equal(t, int64(200000-2500), f.balance(t, alan.ID))
}

func TestInitiateWithdrawal_OutcomeUnknownIsAmbiguous(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	f.fund(t, acc, 200000, 0)

	f.gw.FailOn(mockgateway.OpInitiatePayout, fmt.Errorf("%w: 502 bad gateway", gateway.ErrOutcomeUnknown))
	_, err := f.svc.InitiateWithdrawal(context.Background(), f.withdrawal(acc, 1000))
	require.ErrorIs(t, err, domain.ErrSettlementAmbiguous)
	assert.False(t, domain.Retryable(err))

	var amb *domain.AmbiguousSettlementError
	require.ErrorAs(t, err, &amb)
	ambiguous := published[events.SettlementAmbiguous](f.bus)
	require.Len(t, ambiguous, 1)
	assert.Equal(t, amb.Reference, ambiguous[0].Reference)
	assert.Equal(t, int64(200000), f.balance(t, acc.ID))
}

func TestInitiateWithdrawal_AmountNearMaxInt64(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	f.fund(t, acc, 200000, 0)

	for _, amount := range []int64{math.MaxInt64, math.MaxInt64 - 1000, money.MaxAmount + 1} {
		_, err := f.svc.InitiateWithdrawal(context.Background(), f.withdrawal(acc, amount))
		require.ErrorIs(t, err, domain.ErrValidation, "amount %d", amount)
		assert.NotErrorIs(t, err, domain.ErrSettlementAmbiguous)
	}
	assert.Empty(t, f.gw.Payouts())
	assert.Zero(t, f.gw.Calls(mockgateway.OpCreatePayoutRecipient))
	assert.Equal(t, int64(200000), f.balance(t, acc.ID))
}

func TestInitiateFunding_AmountTooLarge(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")

	_, err := f.svc.InitiateFunding(context.Background(), settlement.FundingRequest{
		AccountID: acc.ID, Email: acc.Email, Amount: math.MaxInt64 - 100,
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.gw.Calls(mockgateway.OpInitiateCheckout))
}

func TestBanksAndResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	banks, err := f.svc.ListBanks(ctx)
	require.NoError(t, err)
	assert.Len(t, banks, 3)

	resolved, err := f.svc.ResolveAccount(ctx, " "+accountNumber+" ", bankCode)
	require.NoError(t, err)
	assert.Equal(t, accountNumber, resolved.AccountNumber)
	assert.Equal(t, "MOCK ACCOUNT 6789", resolved.AccountName)

	_, err = f.svc.ResolveAccount(ctx, accountNumber, "999")
	assert.ErrorIs(t, err, domain.ErrInvalidBankAccount)

	_, err = f.svc.ResolveAccount(ctx, "", bankCode)
	assert.ErrorIs(t, err, domain.ErrValidation)

	f.gw.FailOn(mockgateway.OpListBanks, errors.New("timeout"))
	_, err = f.svc.ListBanks(ctx)
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestReconciler(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, "ada_lovelace")
	rec := f.fund(t, acc, 1000, 0)
	r := settlement.NewReconciler(f.uow, f.logger)
	ctx := context.Background()

	assert.NoError(t, r.Handle(ctx, events.SettlementAmbiguous{Reference: rec.Reference}))
	assert.NoError(t, r.Handle(ctx, &events.SettlementAmbiguous{Reference: "missing"}))
	assert.Error(t, r.Handle(ctx, events.FundingSettled{}))
}

func TestSettlementMetrics(t *testing.T) {
	f := newFixture(t)
	m := metrics.New(f.reg)
	svc := settlement.New(f.uow, f.gw, f.bus, f.cfg, m, f.logger)
	acc := f.account(t, "ada_lovelace")
	ctx := context.Background()

	funding, err := svc.InitiateFunding(ctx, settlement.FundingRequest{AccountID: acc.ID, Email: acc.Email, Amount: 500000})
	require.NoError(t, err)
	require.NoError(t, f.gw.Settle(funding.Reference, "success", 0))
	_, err = svc.VerifyFunding(ctx, funding.Reference)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(f.reg, "wallet_gateway_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(f.reg, "wallet_settlement_amount_kobo_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// Fund, move, overspend, withdraw: the ledger stays consistent with the
// gateway at every step.
func TestEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, "account_a")
	b := f.account(t, "account_b")
	transfers := transfer.New(f.uow, f.bus, f.cfg.Ledger, nil, f.logger)

	f.fund(t, a, 500000, 15000)
	assert.Equal(t, int64(500000), f.balance(t, a.ID))

	_, err := transfers.Transfer(ctx, transfer.Request{
		OriginatorID: a.ID, RecipientHandle: "account_b", Amount: 200000, PIN: testPin,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300000), f.balance(t, a.ID))
	assert.Equal(t, int64(200000), f.balance(t, b.ID))

	_, err = transfers.Transfer(ctx, transfer.Request{
		OriginatorID: a.ID, RecipientHandle: "account_b", Amount: 400000, PIN: testPin,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, int64(300000), f.balance(t, a.ID))

	rec, err := f.svc.InitiateWithdrawal(ctx, f.withdrawal(a, 100000))
	require.NoError(t, err)
	payouts := f.gw.Payouts()
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(100000+1500), payouts[0].Amount)
	assert.Equal(t, int64(100000+1500), rec.Amount)
	assert.Equal(t, int64(300000-101500), f.balance(t, a.ID))
	assert.Equal(t, int64(200000), f.balance(t, b.ID))
}
