// Package account provides account provisioning and handle management.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/amirasaad/wallet/pkg/repository"
	"github.com/google/uuid"
)

type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// Ensure returns the account with the given id, creating it from the
// authenticated identity on first sight.
func (s *Service) Ensure(ctx context.Context, id uuid.UUID, email string) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get account repository: %w", err)
	}
	acc, err := repo.Get(ctx, id)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	acc, err = account.New().WithID(id).WithEmail(email).Build()
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, acc); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// lost a race with a concurrent first request
			return repo.Get(ctx, id)
		}
		return nil, err
	}
	s.logger.Info("account provisioned", "account_id", id)
	return acc, nil
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get account repository: %w", err)
	}
	return repo.Get(ctx, id)
}

// SetHandle assigns a handle to the account. Handles are unique ignoring case.
func (s *Service) SetHandle(ctx context.Context, id uuid.UUID, handle string) (*account.Account, error) {
	log := s.logger.With("handler", "account.SetHandle", "account_id", id)
	h, err := account.NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}
	var out *account.Account
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return fmt.Errorf("failed to get account repository: %w", err)
		}
		if err := repo.SetHandle(ctx, id, h); err != nil {
			return err
		}
		out, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		log.Warn("handle update failed", "handle", h, "error", err)
		return nil, err
	}
	log.Info("handle updated", "handle", h)
	return out, nil
}

// HandleAvailable reports whether handle is well-formed and unclaimed.
func (s *Service) HandleAvailable(ctx context.Context, handle string) (bool, error) {
	h, err := account.NormalizeHandle(handle)
	if err != nil {
		return false, err
	}
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return false, fmt.Errorf("failed to get account repository: %w", err)
	}
	_, err = repo.GetByHandle(ctx, h)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return true, nil
	case err != nil:
		return false, err
	default:
		return false, nil
	}
}
