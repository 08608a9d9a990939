// Package mockgateway is a deterministic in-process gateway.Gateway for
// tests and local development. It never moves money.
package mockgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
)

// Op names a gateway operation, for injecting failures and counting calls.
type Op string

const (
	OpInitiateCheckout      Op = "InitiateCheckout"
	OpVerifyCheckout        Op = "VerifyCheckout"
	OpListBanks             Op = "ListBanks"
	OpResolveAccount        Op = "ResolveAccount"
	OpCreatePayoutRecipient Op = "CreatePayoutRecipient"
	OpInitiatePayout        Op = "InitiatePayout"
)

type checkout struct {
	params gateway.CheckoutParams
	status string
	fees   map[string]int64
}

// Gateway records every call and answers from in-memory state.
type Gateway struct {
	mu         sync.Mutex
	fees       gateway.FeeSchedule
	banks      []gateway.Bank
	checkouts  map[string]*checkout
	recipients map[string]gateway.RecipientParams
	payouts    []gateway.PayoutParams
	failures   map[Op]error
	delays     map[Op]time.Duration
	calls      map[Op]int
	seq        int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithFees sets the checkout fee schedule. The default is gateway.PaystackLocal.
func WithFees(f gateway.FeeSchedule) Option {
	return func(g *Gateway) { g.fees = f }
}

// WithBanks replaces the default bank list.
func WithBanks(banks ...gateway.Bank) Option {
	return func(g *Gateway) { g.banks = banks }
}

// New creates a mock gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		fees: gateway.PaystackLocal,
		banks: []gateway.Bank{
			{Name: "Access Bank", Code: "044", Slug: "access-bank", Country: "Nigeria", Currency: "NGN", Active: true},
			{Name: "Guaranty Trust Bank", Code: "058", Slug: "guaranty-trust-bank", Country: "Nigeria", Currency: "NGN", Active: true},
			{Name: "Zenith Bank", Code: "057", Slug: "zenith-bank", Country: "Nigeria", Currency: "NGN", Active: true},
		},
		checkouts:  make(map[string]*checkout),
		recipients: make(map[string]gateway.RecipientParams),
		failures:   make(map[Op]error),
		delays:     make(map[Op]time.Duration),
		calls:      make(map[Op]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FailOn makes every later call of op return err. A nil err clears it.
func (g *Gateway) FailOn(op Op, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failures, op)
		return
	}
	g.failures[op] = err
}

// DelayOn makes op block for d before acting. A context that expires
// first aborts the call with its error; the operation's effect still
// happens, the way a remote side may act on a request whose answer is lost.
func (g *Gateway) DelayOn(op Op, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delays[op] = d
}

// Settle sets what VerifyCheckout reports for reference.
func (g *Gateway) Settle(reference, status string, fee int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	co, ok := g.checkouts[reference]
	if !ok {
		return fmt.Errorf("unknown checkout %q", reference)
	}
	co.status = status
	co.fees = map[string]int64{"paystack": fee}
	return nil
}

// Calls returns how many times op was invoked.
func (g *Gateway) Calls(op Op) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// Payouts returns the payouts accepted so far.
func (g *Gateway) Payouts() []gateway.PayoutParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.PayoutParams(nil), g.payouts...)
}

// Checkout returns the parameters a checkout was opened with.
func (g *Gateway) Checkout(reference string) (gateway.CheckoutParams, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	co, ok := g.checkouts[reference]
	if !ok {
		return gateway.CheckoutParams{}, false
	}
	return co.params, true
}

// enter counts the call and applies any injected failure or delay. The
// returned error, if any, is what the call should fail with after acting.
func (g *Gateway) enter(ctx context.Context, op Op) (injected error, late error) {
	g.mu.Lock()
	g.calls[op]++
	injected = g.failures[op]
	delay := g.delays[op]
	g.mu.Unlock()

	if injected != nil {
		return domain.GatewayError(string(op), injected), nil
	}
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, domain.GatewayError(string(op), ctx.Err())
		}
	}
	return nil, nil
}

func (g *Gateway) nextSeq() int {
	g.seq++
	return g.seq
}

// InitiateCheckout opens a pending checkout under the caller's reference.
func (g *Gateway) InitiateCheckout(
	ctx context.Context,
	params gateway.CheckoutParams,
) (*gateway.Session, error) {
	injected, late := g.enter(ctx, OpInitiateCheckout)
	if injected != nil {
		return nil, injected
	}
	g.mu.Lock()
	g.checkouts[params.Reference] = &checkout{params: params, status: "pending"}
	g.mu.Unlock()
	if late != nil {
		return nil, late
	}
	return &gateway.Session{
		Reference:        params.Reference,
		AccessCode:       "ac_" + params.Reference,
		AuthorizationURL: "https://checkout.mock.local/" + params.Reference,
	}, nil
}

// VerifyCheckout reports the checkout as last set by Settle.
func (g *Gateway) VerifyCheckout(
	ctx context.Context,
	reference string,
) (*gateway.Verification, error) {
	injected, late := g.enter(ctx, OpVerifyCheckout)
	if injected != nil {
		return nil, injected
	}
	if late != nil {
		return nil, late
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	co, ok := g.checkouts[reference]
	if !ok {
		return nil, domain.GatewayError(string(OpVerifyCheckout), fmt.Errorf("transaction reference %s not found", reference))
	}
	fees := make(map[string]int64, len(co.fees))
	for k, v := range co.fees {
		fees[k] = v
	}
	auth, _ := json.Marshal(map[string]string{"authorization_code": "AUTH_" + reference, "channel": "card"})
	return &gateway.Verification{
		Reference:     reference,
		Status:        co.status,
		Amount:        co.params.Amount,
		Currency:      co.params.Currency,
		Fees:          fees,
		Authorization: auth,
	}, nil
}

// Fees returns the configured schedule.
func (g *Gateway) Fees() gateway.FeeSchedule {
	return g.fees
}

// ListBanks returns the configured bank list for any country.
func (g *Gateway) ListBanks(ctx context.Context, _ string) ([]gateway.Bank, error) {
	injected, late := g.enter(ctx, OpListBanks)
	if injected != nil {
		return nil, injected
	}
	if late != nil {
		return nil, late
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.Bank(nil), g.banks...), nil
}

// ResolveAccount accepts any 10-digit account number at a known bank.
func (g *Gateway) ResolveAccount(
	ctx context.Context,
	accountNumber, bankCode string,
) (*gateway.ResolvedAccount, error) {
	injected, late := g.enter(ctx, OpResolveAccount)
	if injected != nil {
		return nil, injected
	}
	if late != nil {
		return nil, late
	}
	if err := g.checkBankAccount(accountNumber, bankCode); err != nil {
		return nil, err
	}
	return &gateway.ResolvedAccount{
		AccountNumber: accountNumber,
		AccountName:   "MOCK ACCOUNT " + accountNumber[len(accountNumber)-4:],
		BankCode:      bankCode,
	}, nil
}

// CreatePayoutRecipient registers a recipient for a valid bank account.
func (g *Gateway) CreatePayoutRecipient(
	ctx context.Context,
	params gateway.RecipientParams,
) (*gateway.Recipient, error) {
	injected, late := g.enter(ctx, OpCreatePayoutRecipient)
	if injected != nil {
		return nil, injected
	}
	if err := g.checkBankAccount(params.AccountNumber, params.BankCode); err != nil {
		return nil, err
	}
	g.mu.Lock()
	code := fmt.Sprintf("RCP_mock_%d", g.nextSeq())
	g.recipients[code] = params
	bankName := g.bankName(params.BankCode)
	g.mu.Unlock()
	if late != nil {
		return nil, late
	}
	details, _ := json.Marshal(map[string]string{
		"account_number": params.AccountNumber,
		"account_name":   params.Name,
		"bank_code":      params.BankCode,
		"bank_name":      bankName,
	})
	return &gateway.Recipient{
		Code:          code,
		Name:          params.Name,
		AccountNumber: params.AccountNumber,
		BankCode:      params.BankCode,
		BankName:      bankName,
		Details:       details,
	}, nil
}

// InitiatePayout accepts payouts to registered recipients.
func (g *Gateway) InitiatePayout(
	ctx context.Context,
	params gateway.PayoutParams,
) (*gateway.Payout, error) {
	injected, late := g.enter(ctx, OpInitiatePayout)
	if injected != nil {
		return nil, injected
	}
	g.mu.Lock()
	if _, ok := g.recipients[params.RecipientCode]; !ok {
		g.mu.Unlock()
		return nil, domain.GatewayError(string(OpInitiatePayout), fmt.Errorf("recipient %s not found", params.RecipientCode))
	}
	g.payouts = append(g.payouts, params)
	code := fmt.Sprintf("TRF_mock_%d", g.nextSeq())
	g.mu.Unlock()
	if late != nil {
		return nil, late
	}
	return &gateway.Payout{
		Reference:    params.Reference,
		TransferCode: code,
		Status:       "success",
		Amount:       params.Amount,
	}, nil
}

func (g *Gateway) checkBankAccount(accountNumber, bankCode string) error {
	if len(accountNumber) != 10 {
		return fmt.Errorf("%w: account number must be 10 digits", domain.ErrInvalidBankAccount)
	}
	for _, c := range accountNumber {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: account number must be 10 digits", domain.ErrInvalidBankAccount)
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bankName(bankCode) == "" {
		return fmt.Errorf("%w: unknown bank code %s", domain.ErrInvalidBankAccount, bankCode)
	}
	return nil
}

// bankName must be called with mu held.
func (g *Gateway) bankName(code string) string {
	for _, b := range g.banks {
		if b.Code == code {
			return b.Name
		}
	}
	return ""
}

var _ gateway.Gateway = (*Gateway)(nil)
