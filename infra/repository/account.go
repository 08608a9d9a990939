package repository

import (
	"context"
	"time"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/account"
	repo "github.com/amirasaad/wallet/pkg/repository/account"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository on the given session.
func NewAccountRepository(db *gorm.DB) repo.Repository {
	return &accountRepository{db: db}
}

// Create implements account.Repository.
func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	m := toAccountModel(acc)
	return remap(r.db.WithContext(ctx).Create(&m).Error, nil, domain.ErrAlreadyExists)
}

// Get implements account.Repository.
func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, remap(err, domain.ErrAccountNotFound, nil)
	}
	return toAccountDomain(&m), nil
}

// GetByHandle implements account.Repository.
func (r *accountRepository) GetByHandle(ctx context.Context, handle string) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&m).Error; err != nil {
		return nil, remap(err, domain.ErrAccountNotFound, nil)
	}
	return toAccountDomain(&m), nil
}

// Lock implements account.Repository with SELECT ... FOR UPDATE. It only
// serializes callers when run inside a transaction.
func (r *accountRepository) Lock(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, remap(err, domain.ErrAccountNotFound, nil)
	}
	return toAccountDomain(&m), nil
}

// SetHandle implements account.Repository.
func (r *accountRepository) SetHandle(ctx context.Context, id uuid.UUID, handle string) error {
	return r.update(ctx, id, map[string]any{"handle": handle}, domain.ErrHandleTaken)
}

// SetPinHash implements account.Repository.
func (r *accountRepository) SetPinHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	return r.update(ctx, id, map[string]any{"pin_hash": hash}, nil)
}

func (r *accountRepository) update(ctx context.Context, id uuid.UUID, updates map[string]any, exists error) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return remap(res.Error, domain.ErrAccountNotFound, exists)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
