// Package gateway defines the contract of the third-party payment gateway
// used for card funding (Checkout) and bank withdrawals (Payouts).
//
// Adapters report provider-side and network failures wrapped in
// domain.ErrGateway and rejected bank details as domain.ErrInvalidBankAccount.
package gateway

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrUnsupported is returned by adapters for operations their provider lacks.
	ErrUnsupported = errors.New("operation not supported by gateway")

	// ErrOutcomeUnknown marks a failure after which the provider may still
	// have acted on the request, such as a 5xx answer to a payout.
	ErrOutcomeUnknown = errors.New("gateway outcome unknown")
)

// Checkout opens and verifies card checkouts.
type Checkout interface {
	// InitiateCheckout opens a checkout for Amount (already including fees)
	// under the caller's Reference.
	InitiateCheckout(ctx context.Context, params CheckoutParams) (*Session, error)

	// VerifyCheckout returns the gateway's view of the checkout with the given reference.
	VerifyCheckout(ctx context.Context, reference string) (*Verification, error)

	// Fees is the provider's processing fee schedule for checkouts.
	Fees() FeeSchedule
}

// Payouts resolves bank accounts and moves money out to them.
type Payouts interface {
	ListBanks(ctx context.Context, country string) ([]Bank, error)
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error)
	CreatePayoutRecipient(ctx context.Context, params RecipientParams) (*Recipient, error)

	// InitiatePayout sends Amount to the recipient. Reference is the
	// idempotency key; callers must not retry with a different one.
	InitiatePayout(ctx context.Context, params PayoutParams) (*Payout, error)
}

// Gateway is the full adapter used by the settlement engine.
type Gateway interface {
	Checkout
	Payouts
}

// Webhooks authenticates and decodes gateway callbacks.
type Webhooks interface {
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type composite struct {
	Checkout
	Payouts
}

// Compose builds a Gateway whose checkout and payout halves may come from
// different providers.
func Compose(checkout Checkout, payouts Payouts) Gateway {
	return composite{Checkout: checkout, Payouts: payouts}
}

// IsTimeout reports whether err is a deadline or network timeout, after
// which the remote side may or may not have acted.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
