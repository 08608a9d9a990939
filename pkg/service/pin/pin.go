// Package pin manages the 4-digit transaction PIN that gates transfers and
// withdrawals. Only bcrypt hashes are stored.
package pin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/amirasaad/wallet/pkg/repository"
	accountrepo "github.com/amirasaad/wallet/pkg/repository/account"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMalformedPin is returned for anything that is not exactly 4 ASCII digits.
	ErrMalformedPin = errors.New("pin must be exactly 4 digits")
	// ErrPinMismatch is returned when the confirmation differs from the PIN.
	ErrPinMismatch = errors.New("pin and confirmation do not match")
)

// Validate checks the PIN shape.
func Validate(pin string) error {
	if len(pin) != 4 {
		return fmt.Errorf("%w: %w", domain.ErrValidation, ErrMalformedPin)
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return fmt.Errorf("%w: %w", domain.ErrValidation, ErrMalformedPin)
		}
	}
	return nil
}

type Service struct {
	uow    repository.UnitOfWork
	cost   int
	logger *slog.Logger
}

// New creates a PIN service hashing with bcrypt.DefaultCost.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, cost: bcrypt.DefaultCost, logger: logger}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// SetPin hashes and stores pin, replacing any existing one. A non-empty
// confirm must equal pin.
func (s *Service) SetPin(ctx context.Context, accountID uuid.UUID, pin, confirm string) (*account.Account, error) {
	log := s.logger.With("handler", "pin.SetPin", "account_id", accountID)
	if err := Validate(pin); err != nil {
		return nil, err
	}
	if confirm != "" && confirm != pin {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrPinMismatch)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pin: %w", err)
	}

	var out *account.Account
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return fmt.Errorf("failed to get account repository: %w", err)
		}
		if err := repo.SetPinHash(ctx, accountID, hash); err != nil {
			return err
		}
		out, err = repo.Get(ctx, accountID)
		return err
	})
	if err != nil {
		log.Error("failed to set pin", "error", err)
		return nil, err
	}
	log.Info("transaction pin set")
	return out, nil
}

// VerifyPin reports whether candidate matches the account's stored PIN. An
// account without a PIN never verifies.
func (s *Service) VerifyPin(ctx context.Context, accountID uuid.UUID, candidate string) (bool, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return false, fmt.Errorf("failed to get account repository: %w", err)
	}
	return VerifyWith(ctx, repo, accountID, candidate)
}

// VerifyWith is VerifyPin against an explicit repository, for use inside a
// unit of work.
func VerifyWith(ctx context.Context, repo accountrepo.Repository, accountID uuid.UUID, candidate string) (bool, error) {
	acc, err := repo.Get(ctx, accountID)
	if err != nil {
		return false, err
	}
	return Matches(acc, candidate), nil
}

// Matches compares candidate against acc's stored hash.
func Matches(acc *account.Account, candidate string) bool {
	if acc == nil || !acc.HasPin() || Validate(candidate) != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(acc.PinHash, []byte(candidate)) == nil
}
