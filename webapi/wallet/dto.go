package wallet

import (
	"encoding/json"
	"time"

	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/amirasaad/wallet/pkg/money"
	"github.com/amirasaad/wallet/pkg/service/settlement"
	"github.com/google/uuid"
)

// FundRequest represents the request body for funding the wallet by card.
// Amount is in naira.
type FundRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// TransferRequest represents the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	Handle    string  `json:"handle" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Pin       string  `json:"pin" validate:"required,len=4,numeric"`
	Comment   string  `json:"comment" validate:"max=255"`
	Reference string  `json:"reference" validate:"omitempty,max=64"`
}

// SetPinRequest represents the request body for setting the transaction PIN.
type SetPinRequest struct {
	Pin        string `json:"pin" validate:"required,len=4,numeric"`
	ConfirmPin string `json:"confirm_pin" validate:"required,eqfield=Pin"`
}

// VerifyAccountRequest represents the request body for resolving a bank account.
type VerifyAccountRequest struct {
	AccountNumber string `json:"account_number" validate:"required,numeric"`
	BankCode      string `json:"bank_code" validate:"required"`
}

// WithdrawRequest represents the request body for a bank withdrawal.
type WithdrawRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Reason        string  `json:"reason" validate:"max=255"`
	Name          string  `json:"name" validate:"required"`
	AccountNumber string  `json:"account_number" validate:"required,numeric"`
	BankCode      string  `json:"bank_code" validate:"required"`
	Pin           string  `json:"pin" validate:"required,len=4,numeric"`
}

// TransactionDTO is the JSON view of a ledger record. Amounts are in kobo.
type TransactionDTO struct {
	ID              uuid.UUID       `json:"id"`
	Reference       string          `json:"reference"`
	Kind            string          `json:"kind"`
	Direction       string          `json:"direction"`
	Amount          int64           `json:"amount"`
	DisplayAmount   string          `json:"display_amount"`
	Originator      *uuid.UUID      `json:"originator,omitempty"`
	Recipient       *uuid.UUID      `json:"recipient,omitempty"`
	Comment         string          `json:"comment,omitempty"`
	SenderHandle    string          `json:"sender_handle,omitempty"`
	RecipientHandle string          `json:"recipient_handle,omitempty"`
	Status          string          `json:"status"`
	ProcessingFee   int64           `json:"processing_fee"`
	BankDetails     json.RawMessage `json:"bank_details,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToTransactionDTO maps a record to its JSON view. The gateway access code
// and card authorization stay server-side.
func ToTransactionDTO(r *transaction.Record) *TransactionDTO {
	if r == nil {
		return nil
	}
	return &TransactionDTO{
		ID:              r.ID,
		Reference:       r.Reference,
		Kind:            string(r.Kind),
		Direction:       string(r.Direction),
		Amount:          r.Amount,
		DisplayAmount:   money.Format(r.Amount),
		Originator:      r.Originator,
		Recipient:       r.Recipient,
		Comment:         r.Comment,
		SenderHandle:    r.SenderHandle,
		RecipientHandle: r.RecipientHandle,
		Status:          string(r.Status),
		ProcessingFee:   r.ProcessingFee,
		BankDetails:     r.BankDetails,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toTransactionDTOs(records []*transaction.Record) []*TransactionDTO {
	out := make([]*TransactionDTO, 0, len(records))
	for _, r := range records {
		out = append(out, ToTransactionDTO(r))
	}
	return out
}

// FundingDTO is the response to a funding request.
type FundingDTO struct {
	Reference        string           `json:"reference"`
	AccessCode       string           `json:"access_code"`
	AuthorizationURL string           `json:"authorization_url"`
	Quote            settlement.Quote `json:"quote"`
}

// BalanceDTO is the response of the balance endpoint.
type BalanceDTO struct {
	Balance        int64  `json:"balance"`
	DisplayBalance string `json:"display_balance"`
	Currency       string `json:"currency"`
}
