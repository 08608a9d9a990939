package account

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/google/uuid"
)

var (
	// ErrMissingEmail is returned when an account is built without an owner email.
	ErrMissingEmail = errors.New("account email is required")
	// ErrInvalidHandle is returned when a handle does not satisfy HandlePattern.
	ErrInvalidHandle = errors.New("handle must be 6 to 32 characters of letters, digits, '.' or '_'")
)

// HandlePattern is the accepted shape of a normalized handle.
var HandlePattern = regexp.MustCompile(`^[a-z0-9_.]{6,32}$`)

// Account is a wallet holder. Its balance is never stored here; it is
// always derived from the transaction log.
//
// Invariants:
//   - Handle is either empty (unset) or lower-cased and unique.
//   - PinHash is nil until the owner sets a PIN; the raw PIN is never kept.
type Account struct {
	ID        uuid.UUID
	Email     string
	Handle    string
	PinHash   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPin reports whether a transaction PIN has been set.
func (a *Account) HasPin() bool {
	return len(a.PinHash) > 0
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id        uuid.UUID
	email     string
	handle    string
	pinHash   []byte
	createdAt time.Time
	updatedAt time.Time
}

// New creates a new Builder with a fresh ID and the current time.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		id:        uuid.New(),
		createdAt: now,
		updatedAt: now,
	}
}

// WithID sets the ID for the account being built.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithEmail sets the owner email. This is a mandatory field.
func (b *Builder) WithEmail(email string) *Builder {
	b.email = strings.TrimSpace(email)
	return b
}

// WithHandle sets the handle. Used when hydrating from a data store.
func (b *Builder) WithHandle(handle string) *Builder {
	b.handle = handle
	return b
}

// WithPinHash sets the stored PIN hash. Used when hydrating from a data store.
func (b *Builder) WithPinHash(hash []byte) *Builder {
	b.pinHash = hash
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// WithUpdatedAt sets the last-updated timestamp.
func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the collected fields and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.id == uuid.Nil {
		return nil, fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}
	if b.email == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrMissingEmail)
	}
	if b.handle != "" {
		h, err := NormalizeHandle(b.handle)
		if err != nil {
			return nil, err
		}
		b.handle = h
	}
	return &Account{
		ID:        b.id,
		Email:     b.email,
		Handle:    b.handle,
		PinHash:   b.pinHash,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}, nil
}

// NormalizeHandle trims and lower-cases a handle and checks its shape.
// Handles compare case-insensitively, so every lookup goes through here.
func NormalizeHandle(handle string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(handle))
	h = strings.TrimPrefix(h, "@")
	if !HandlePattern.MatchString(h) {
		return "", fmt.Errorf("%w: %w", domain.ErrValidation, ErrInvalidHandle)
	}
	return h, nil
}
