package repository

import (
	"errors"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// MapGormErrorToDomain converts GORM errors to domain errors.
// This keeps infrastructure concerns (database errors) within the infrastructure layer.
// Traverses the error chain to find GORM errors and maps them to appropriate domain errors.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyExists
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadyExists
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return err
}

// remap replaces the generic domain errors with an entity-specific one.
func remap(err error, notFound, exists error) error {
	err = MapGormErrorToDomain(err)
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, domain.ErrNotFound):
		return notFound
	case exists != nil && errors.Is(err, domain.ErrAlreadyExists):
		return exists
	}
	return err
}
