// Package ledger derives balances and history from the transaction log.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/amirasaad/wallet/pkg/repository"
	txrepo "github.com/amirasaad/wallet/pkg/repository/transaction"
	"github.com/google/uuid"
)

// Fold returns what the records owe accountID: the sum of successful records
// it received minus the sum of successful records it originated. Records are
// counted by participant, not by their direction field.
func Fold(accountID uuid.UUID, records []*transaction.Record) int64 {
	var balance int64
	for _, r := range records {
		if r == nil || !strings.EqualFold(string(r.Status), string(transaction.StatusSuccess)) {
			continue
		}
		if r.Recipient != nil && *r.Recipient == accountID {
			balance += r.Amount
		}
		if r.Originator != nil && *r.Originator == accountID {
			balance -= r.Amount
		}
	}
	return balance
}

// Covers reports whether balance is strictly greater than amount plus
// reserve. Operands whose sum would overflow int64 never cover.
func Covers(balance, amount, reserve int64) bool {
	if amount < 0 || reserve < 0 || amount > math.MaxInt64-reserve {
		return false
	}
	return balance > amount+reserve
}

// BalanceOf folds the account's records as seen by repo, so it can run
// inside a unit of work that already holds the account lock.
func BalanceOf(ctx context.Context, repo txrepo.Repository, accountID uuid.UUID) (int64, error) {
	records, err := repo.ListByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return Fold(accountID, records), nil
}

type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// Balance recomputes the account's balance from the log.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if err := s.exists(ctx, accountID); err != nil {
		return 0, err
	}
	repo, err := s.uow.TransactionRepository()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction repository: %w", err)
	}
	balance, err := BalanceOf(ctx, repo, accountID)
	if err != nil {
		s.logger.Error("balance computation failed", "account_id", accountID, "error", err)
		return 0, err
	}
	return balance, nil
}

// Transactions lists every record the account took part in, newest first.
func (s *Service) Transactions(ctx context.Context, accountID uuid.UUID) ([]*transaction.Record, error) {
	if err := s.exists(ctx, accountID); err != nil {
		return nil, err
	}
	repo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction repository: %w", err)
	}
	return repo.ListByAccount(ctx, accountID)
}

// Transaction returns one record, provided accountID took part in it.
// Records of other accounts are reported as not found.
func (s *Service) Transaction(ctx context.Context, accountID, id uuid.UUID) (*transaction.Record, error) {
	repo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction repository: %w", err)
	}
	rec, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Involves(accountID) {
		s.logger.Warn("transaction lookup by non-participant", "account_id", accountID, "transaction_id", id)
		return nil, domain.ErrRecordNotFound
	}
	return rec, nil
}

func (s *Service) exists(ctx context.Context, accountID uuid.UUID) error {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return fmt.Errorf("failed to get account repository: %w", err)
	}
	if _, err := repo.Get(ctx, accountID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return err
		}
		return fmt.Errorf("failed to load account: %w", err)
	}
	return nil
}
