package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when a user is not authorized to perform an action
	ErrUnauthorized = errors.New("unauthorized")
)

// Wallet errors. Local, expected conditions never mutate the ledger.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrSameAccount        = errors.New("cannot transfer to same account")
	ErrHandleTaken        = errors.New("handle already taken")
	ErrInvalidPin         = errors.New("incorrect transaction pin")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateReference = errors.New("duplicate reference")
	ErrRecordNotFound     = errors.New("transaction record not found")

	// ErrGateway wraps network-level or provider-side failures of the payment gateway.
	ErrGateway = errors.New("payment gateway error")
	// ErrInvalidBankAccount is returned when the gateway rejects bank account details.
	ErrInvalidBankAccount = errors.New("invalid bank account")
	// ErrSettlementAmbiguous is returned when the gateway accepted (or may have
	// accepted) a money movement but the local outcome was not persisted.
	ErrSettlementAmbiguous = errors.New("settlement ambiguous")
)

// Kind classifies an error for callers that branch on outcome.
type Kind string

const (
	KindNone                Kind = ""
	KindValidation          Kind = "validation"
	KindAccountNotFound     Kind = "account_not_found"
	KindRecipientNotFound   Kind = "recipient_not_found"
	KindSameAccount         Kind = "same_account"
	KindHandleTaken         Kind = "handle_taken"
	KindInvalidPin          Kind = "invalid_pin"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindDuplicateReference  Kind = "duplicate_reference"
	KindRecordNotFound      Kind = "record_not_found"
	KindGateway             Kind = "gateway"
	KindInvalidBankAccount  Kind = "invalid_bank_account"
	KindSettlementAmbiguous Kind = "settlement_ambiguous"
	KindInternal            Kind = "internal"
)

// ordered so that the most specific condition wins when an error wraps several.
var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrSettlementAmbiguous, KindSettlementAmbiguous},
	{ErrInvalidBankAccount, KindInvalidBankAccount},
	{ErrGateway, KindGateway},
	{ErrDuplicateReference, KindDuplicateReference},
	{ErrRecordNotFound, KindRecordNotFound},
	{ErrRecipientNotFound, KindRecipientNotFound},
	{ErrAccountNotFound, KindAccountNotFound},
	{ErrSameAccount, KindSameAccount},
	{ErrHandleTaken, KindHandleTaken},
	{ErrInvalidPin, KindInvalidPin},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrValidation, KindValidation},
}

// KindOf returns the Kind of err, KindNone for nil and KindInternal for
// anything outside the wallet taxonomy.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Retryable reports whether the caller may safely retry the failed operation.
// Only network-level gateway failures qualify; business rejections and
// ambiguous settlements must not be retried.
func Retryable(err error) bool {
	return KindOf(err) == KindGateway
}

// AmbiguousSettlementError carries the reference of a money movement whose
// local outcome is unknown. It matches ErrSettlementAmbiguous.
type AmbiguousSettlementError struct {
	Reference string
	Err       error
}

func (e *AmbiguousSettlementError) Error() string {
	return fmt.Sprintf("%s: reference %s: %v", ErrSettlementAmbiguous, e.Reference, e.Err)
}

func (e *AmbiguousSettlementError) Unwrap() []error {
	return []error{ErrSettlementAmbiguous, e.Err}
}

// GatewayError wraps a provider failure so that it matches ErrGateway while
// keeping the provider's own message.
func GatewayError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrGateway) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrGateway, op, err)
}
