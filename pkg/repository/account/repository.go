package account

import (
	"context"

	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/google/uuid"
)

// Repository defines the interface for account data access operations.
// Lookups that miss return domain.ErrAccountNotFound.
type Repository interface {
	// Create inserts a new account. An existing ID yields domain.ErrAlreadyExists.
	Create(ctx context.Context, acc *account.Account) error

	// Get retrieves an account by its ID.
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// GetByHandle retrieves an account by its normalized handle.
	GetByHandle(ctx context.Context, handle string) (*account.Account, error)

	// Lock retrieves an account and holds a row lock on it until the
	// enclosing unit of work ends.
	Lock(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// SetHandle stores a normalized handle. A handle owned by another
	// account yields domain.ErrHandleTaken.
	SetHandle(ctx context.Context, id uuid.UUID, handle string) error

	// SetPinHash overwrites the stored PIN hash.
	SetPinHash(ctx context.Context, id uuid.UUID, hash []byte) error
}
