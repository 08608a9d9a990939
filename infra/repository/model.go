package repository

import (
	"encoding/json"
	"time"

	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/google/uuid"
)

// Account represents an account record in the database.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"size:255;not null;index"`
	Handle    *string   `gorm:"size:32;uniqueIndex"`
	PinHash   []byte    `gorm:"column:pin_hash"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction represents one persisted ledger record. Rows are never
// deleted, so there is no soft-delete column.
type Transaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Reference       string     `gorm:"size:100;not null;uniqueIndex"`
	Kind            string     `gorm:"type:varchar(16);not null"`
	Direction       string     `gorm:"type:varchar(8);not null"`
	Amount          int64      `gorm:"not null"`
	OriginatorID    *uuid.UUID `gorm:"type:uuid;index"`
	RecipientID     *uuid.UUID `gorm:"type:uuid;index"`
	Comment         string     `gorm:"type:text"`
	SenderHandle    string     `gorm:"size:32"`
	RecipientHandle string     `gorm:"size:32"`
	AccessToken     string     `gorm:"size:128"`
	Status          string     `gorm:"type:varchar(16);not null;index"`
	ProcessingFee   int64      `gorm:"not null"`
	Authorization   []byte     `gorm:"type:jsonb;column:authorization_data"`
	BankDetails     []byte     `gorm:"type:jsonb;column:bank_details"`
	CreatedAt       time.Time  `gorm:"index"`
	UpdatedAt       time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

func toAccountModel(a *account.Account) Account {
	m := Account{
		ID:        a.ID,
		Email:     a.Email,
		PinHash:   a.PinHash,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Handle != "" {
		h := a.Handle
		m.Handle = &h
	}
	return m
}

func toAccountDomain(m *Account) *account.Account {
	a := &account.Account{
		ID:        m.ID,
		Email:     m.Email,
		PinHash:   m.PinHash,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Handle != nil {
		a.Handle = *m.Handle
	}
	return a
}

func toTransactionModel(r *transaction.Record) Transaction {
	return Transaction{
		ID:              r.ID,
		Reference:       r.Reference,
		Kind:            string(r.Kind),
		Direction:       string(r.Direction),
		Amount:          r.Amount,
		OriginatorID:    r.Originator,
		RecipientID:     r.Recipient,
		Comment:         r.Comment,
		SenderHandle:    r.SenderHandle,
		RecipientHandle: r.RecipientHandle,
		AccessToken:     r.AccessToken,
		Status:          string(r.Status),
		ProcessingFee:   r.ProcessingFee,
		Authorization:   rawOrNil(r.Authorization),
		BankDetails:     rawOrNil(r.BankDetails),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toTransactionDomain(m *Transaction) *transaction.Record {
	return &transaction.Record{
		ID:              m.ID,
		Reference:       m.Reference,
		Kind:            transaction.Kind(m.Kind),
		Direction:       transaction.Direction(m.Direction),
		Amount:          m.Amount,
		Originator:      m.OriginatorID,
		Recipient:       m.RecipientID,
		Comment:         m.Comment,
		SenderHandle:    m.SenderHandle,
		RecipientHandle: m.RecipientHandle,
		AccessToken:     m.AccessToken,
		Status:          transaction.Status(m.Status),
		ProcessingFee:   m.ProcessingFee,
		Authorization:   json.RawMessage(m.Authorization),
		BankDetails:     json.RawMessage(m.BankDetails),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// empty payloads are stored as NULL; jsonb rejects a zero-length value.
func rawOrNil(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
