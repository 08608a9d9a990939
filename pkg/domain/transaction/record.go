package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/google/uuid"
)

var (
	// ErrAmountMustBePositive is returned when a record amount is zero or negative.
	ErrAmountMustBePositive = errors.New("amount must be positive")
	// ErrMissingReference is returned when a record is created without a reference.
	ErrMissingReference = errors.New("reference is required")
	// ErrAlreadyFinalized is returned when a terminal record is finalized again.
	ErrAlreadyFinalized = errors.New("record already finalized")
)

// Kind is the business type of a record.
type Kind string

const (
	KindFund       Kind = "fund"
	KindTransfer   Kind = "transfer"
	KindWithdrawal Kind = "withdrawal"
)

// Direction describes the movement from the originator's point of view.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Status is the lifecycle state of a record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// ParseStatus maps a gateway or stored status onto Status, case-insensitively.
// Unknown in-flight states ("ongoing", "processing", "queued") stay pending;
// every unsuccessful terminal state ("abandoned", "reversed") is failed.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "successful", "succeeded", "complete", "completed", "paid":
		return StatusSuccess
	case "failed", "failure", "abandoned", "reversed", "cancelled", "canceled", "expired":
		return StatusFailed
	default:
		return StatusPending
	}
}

// Record is one immutable entry in the ledger. Only Status, ProcessingFee,
// Authorization and BankDetails may change, and only once, while pending.
type Record struct {
	ID              uuid.UUID
	Reference       string
	Kind            Kind
	Direction       Direction
	Amount          int64
	Originator      *uuid.UUID
	Recipient       *uuid.UUID
	Comment         string
	SenderHandle    string
	RecipientHandle string
	AccessToken     string
	Status          Status
	ProcessingFee   int64
	Authorization   json.RawMessage
	BankDetails     json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether the record's status can no longer change.
func (r *Record) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// Involves reports whether accountID is the originator or the recipient.
func (r *Record) Involves(accountID uuid.UUID) bool {
	return (r.Originator != nil && *r.Originator == accountID) ||
		(r.Recipient != nil && *r.Recipient == accountID)
}

// Finalize moves a pending record to a terminal status. A pending status is
// accepted and leaves the record untouched.
func (r *Record) Finalize(status Status, fee int64, authorization json.RawMessage) error {
	if r.IsTerminal() {
		return ErrAlreadyFinalized
	}
	if !status.IsTerminal() {
		return nil
	}
	r.Status = status
	r.ProcessingFee = fee
	r.Authorization = authorization
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func newRecord(reference string, kind Kind, dir Direction, amount int64, status Status) (*Record, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrAmountMustBePositive)
	}
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrMissingReference)
	}
	now := time.Now().UTC()
	return &Record{
		ID:        uuid.New(),
		Reference: reference,
		Kind:      kind,
		Direction: dir,
		Amount:    amount,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewFund creates a pending card funding credit for accountID.
func NewFund(accountID uuid.UUID, amount int64, reference, accessToken string) (*Record, error) {
	r, err := newRecord(reference, KindFund, Credit, amount, StatusPending)
	if err != nil {
		return nil, err
	}
	r.Recipient = &accountID
	r.AccessToken = accessToken
	return r, nil
}

// TransferParams holds the fields of a peer transfer.
type TransferParams struct {
	Originator      uuid.UUID
	Recipient       uuid.UUID
	SenderHandle    string
	RecipientHandle string
	Amount          int64
	Comment         string
	Reference       string
}

// NewTransfer creates a successful peer transfer, stored once as a debit of
// the originator that credits the recipient.
func NewTransfer(p TransferParams) (*Record, error) {
	if p.Originator == p.Recipient {
		return nil, domain.ErrSameAccount
	}
	r, err := newRecord(p.Reference, KindTransfer, Debit, p.Amount, StatusSuccess)
	if err != nil {
		return nil, err
	}
	r.Originator = &p.Originator
	r.Recipient = &p.Recipient
	r.SenderHandle = p.SenderHandle
	r.RecipientHandle = p.RecipientHandle
	r.Comment = p.Comment
	return r, nil
}

// WithdrawalParams holds the fields of a bank payout. Amount already
// includes Fee.
type WithdrawalParams struct {
	Originator  uuid.UUID
	Amount      int64
	Fee         int64
	Reason      string
	Reference   string
	BankDetails json.RawMessage
}

// NewWithdrawal creates a successful bank withdrawal debit.
func NewWithdrawal(p WithdrawalParams) (*Record, error) {
	r, err := newRecord(p.Reference, KindWithdrawal, Debit, p.Amount, StatusSuccess)
	if err != nil {
		return nil, err
	}
	r.Originator = &p.Originator
	r.ProcessingFee = p.Fee
	r.Comment = p.Reason
	r.BankDetails = p.BankDetails
	return r, nil
}
