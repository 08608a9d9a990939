package transaction

import (
	"context"
	"encoding/json"

	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/google/uuid"
)

// Finalization is the one-time mutation applied to a pending record.
type Finalization struct {
	Status        transaction.Status
	ProcessingFee int64
	Authorization json.RawMessage
}

// Repository defines the interface for the append-only transaction log.
// Records are never deleted and their amounts never change.
type Repository interface {
	// Create appends a record. A reused reference yields domain.ErrDuplicateReference.
	Create(ctx context.Context, rec *transaction.Record) error

	// Get retrieves a record by its ID, or domain.ErrRecordNotFound.
	Get(ctx context.Context, id uuid.UUID) (*transaction.Record, error)

	// GetByReference retrieves a record by its reference, or domain.ErrRecordNotFound.
	GetByReference(ctx context.Context, reference string) (*transaction.Record, error)

	// ListByAccount lists every record where the account is originator or
	// recipient, newest first.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*transaction.Record, error)

	// Finalize applies f to the record with the given reference only while it
	// is still pending. It returns the record as stored afterwards and whether
	// this call performed the transition. A missing reference yields
	// domain.ErrRecordNotFound.
	Finalize(ctx context.Context, reference string, f Finalization) (*transaction.Record, bool, error)
}
