package gateway

import (
	"encoding/json"
	"time"
)

// CheckoutParams holds the parameters for InitiateCheckout. Amount is the
// gross amount the payer is charged, in kobo.
type CheckoutParams struct {
	Email     string
	Amount    int64
	Reference string
	Currency  string
	Metadata  map[string]string
}

// Session is an opened checkout.
type Session struct {
	Reference        string
	AccessCode       string
	AuthorizationURL string
}

// Verification is the gateway's view of a checkout.
type Verification struct {
	Reference string
	// Status is the provider's raw status string.
	Status   string
	Amount   int64
	Currency string
	// Fees breaks the processing fee down by beneficiary (e.g. provider,
	// subaccount split). ProcessingFee sums it.
	Fees          map[string]int64
	Authorization json.RawMessage
	PaidAt        *time.Time
}

// ProcessingFee returns the total fee charged on the checkout.
func (v *Verification) ProcessingFee() int64 {
	var total int64
	for _, f := range v.Fees {
		total += f
	}
	return total
}

// Bank is a payout destination institution.
type Bank struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Slug     string `json:"slug,omitempty"`
	Country  string `json:"country,omitempty"`
	Currency string `json:"currency,omitempty"`
	Active   bool   `json:"active"`
}

// ResolvedAccount is a bank account as the gateway resolved it.
type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankCode      string `json:"bank_code,omitempty"`
}

// RecipientParams holds the parameters for CreatePayoutRecipient.
type RecipientParams struct {
	Name          string
	AccountNumber string
	BankCode      string
	Currency      string
	Description   string
}

// Recipient is a registered payout destination.
type Recipient struct {
	Code          string
	Name          string
	AccountNumber string
	BankCode      string
	BankName      string
	// Details is the provider's description of the destination, stored on
	// the withdrawal record.
	Details json.RawMessage
}

// PayoutParams holds the parameters for InitiatePayout.
type PayoutParams struct {
	Amount        int64
	RecipientCode string
	Reason        string
	Reference     string
	Currency      string
}

// Payout is an accepted payout.
type Payout struct {
	Reference    string
	TransferCode string
	Status       string
	Amount       int64
}

// WebhookEvent is an authenticated gateway callback.
type WebhookEvent struct {
	Type      string
	Reference string
	// Settled is true for events that report a completed card payment.
	Settled bool
}
