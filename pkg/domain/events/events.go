package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event published on the bus.
type Event interface {
	Type() string
}

// EventType represents the type of an event in the system.
type EventType string

const (
	EventTypeTransferCompleted   EventType = "transfer.completed"
	EventTypeFundingInitiated    EventType = "funding.initiated"
	EventTypeFundingSettled      EventType = "funding.settled"
	EventTypeWithdrawalCompleted EventType = "withdrawal.completed"
	EventTypeSettlementAmbiguous EventType = "settlement.ambiguous"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// TransferCompleted is emitted after a peer transfer record is committed.
type TransferCompleted struct {
	ID              uuid.UUID `json:"id"`
	Reference       string    `json:"reference"`
	OriginatorID    uuid.UUID `json:"originator_id"`
	RecipientID     uuid.UUID `json:"recipient_id"`
	RecipientHandle string    `json:"recipient_handle"`
	Amount          int64     `json:"amount"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// FundingInitiated is emitted once a checkout has been opened and the
// pending record is stored.
type FundingInitiated struct {
	Reference  string    `json:"reference"`
	AccountID  uuid.UUID `json:"account_id"`
	Amount     int64     `json:"amount"`
	Gross      int64     `json:"gross"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FundingSettled is emitted when a pending funding record reaches a
// terminal status.
type FundingSettled struct {
	Reference     string    `json:"reference"`
	AccountID     uuid.UUID `json:"account_id"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	ProcessingFee int64     `json:"processing_fee"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// WithdrawalCompleted is emitted after a payout was accepted and the
// withdrawal record committed.
type WithdrawalCompleted struct {
	ID           uuid.UUID `json:"id"`
	Reference    string    `json:"reference"`
	AccountID    uuid.UUID `json:"account_id"`
	Amount       int64     `json:"amount"`
	Fee          int64     `json:"fee"`
	TransferCode string    `json:"transfer_code"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// SettlementAmbiguous is emitted when money may have moved at the gateway
// but the ledger does not reflect it.
type SettlementAmbiguous struct {
	Reference  string    `json:"reference"`
	AccountID  uuid.UUID `json:"account_id"`
	Amount     int64     `json:"amount"`
	Operation  string    `json:"operation"`
	Cause      string    `json:"cause"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e TransferCompleted) Type() string   { return EventTypeTransferCompleted.String() }
func (e FundingInitiated) Type() string    { return EventTypeFundingInitiated.String() }
func (e FundingSettled) Type() string      { return EventTypeFundingSettled.String() }
func (e WithdrawalCompleted) Type() string { return EventTypeWithdrawalCompleted.String() }
func (e SettlementAmbiguous) Type() string { return EventTypeSettlementAmbiguous.String() }

// EventTypes maps each event type to a constructor, used by transports that
// decode events from the wire.
var EventTypes = map[string]func() Event{
	EventTypeTransferCompleted.String():   func() Event { return &TransferCompleted{} },
	EventTypeFundingInitiated.String():    func() Event { return &FundingInitiated{} },
	EventTypeFundingSettled.String():      func() Event { return &FundingSettled{} },
	EventTypeWithdrawalCompleted.String(): func() Event { return &WithdrawalCompleted{} },
	EventTypeSettlementAmbiguous.String(): func() Event { return &SettlementAmbiguous{} },
}
