package repository

import (
	"context"
	"time"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/transaction"
	repo "github.com/amirasaad/wallet/pkg/repository/transaction"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction log repository on the given session.
func NewTransactionRepository(db *gorm.DB) repo.Repository {
	return &transactionRepository{db: db}
}

// Create implements transaction.Repository.
func (r *transactionRepository) Create(ctx context.Context, rec *transaction.Record) error {
	m := toTransactionModel(rec)
	return remap(r.db.WithContext(ctx).Create(&m).Error, nil, domain.ErrDuplicateReference)
}

// Get implements transaction.Repository.
func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, remap(err, domain.ErrRecordNotFound, nil)
	}
	return toTransactionDomain(&m), nil
}

// GetByReference implements transaction.Repository.
func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Record, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&m).Error; err != nil {
		return nil, remap(err, domain.ErrRecordNotFound, nil)
	}
	return toTransactionDomain(&m), nil
}

// ListByAccount implements transaction.Repository.
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*transaction.Record, error) {
	var ms []Transaction
	if err := r.db.WithContext(ctx).
		Where("originator_id = ? OR recipient_id = ?", accountID, accountID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*transaction.Record, 0, len(ms))
	for i := range ms {
		result = append(result, toTransactionDomain(&ms[i]))
	}
	return result, nil
}

// Finalize implements transaction.Repository. The status guard in the WHERE
// clause makes concurrent finalizations of one reference apply at most once.
func (r *transactionRepository) Finalize(
	ctx context.Context,
	reference string,
	f repo.Finalization,
) (*transaction.Record, bool, error) {
	applied := false
	if f.Status.IsTerminal() {
		res := r.db.WithContext(ctx).
			Model(&Transaction{}).
			Where("reference = ? AND status = ?", reference, string(transaction.StatusPending)).
			Updates(map[string]any{
				"status":             string(f.Status),
				"processing_fee":     f.ProcessingFee,
				"authorization_data": rawOrNil(f.Authorization),
				"updated_at":         time.Now().UTC(),
			})
		if res.Error != nil {
			return nil, false, MapGormErrorToDomain(res.Error)
		}
		applied = res.RowsAffected == 1
	}
	rec, err := r.GetByReference(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	return rec, applied, nil
}
