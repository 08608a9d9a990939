package repository

import (
	"context"
	"reflect"

	"github.com/amirasaad/wallet/pkg/repository/account"
	"github.com/amirasaad/wallet/pkg/repository/transaction"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Repositories obtained inside Do share the transaction, so a row lock taken
// through AccountRepository().Lock holds until fn returns.
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested type, bound to the current transaction/session.
	// Example:
	//   repoAny, err := uow.GetRepository(reflect.TypeOf((*account.Repository)(nil)).Elem())
	//   repo := repoAny.(account.Repository)
	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (account.Repository, error)
	TransactionRepository() (transaction.Repository, error)
}

var (
	// AccountRepositoryType is the registry key of account.Repository.
	AccountRepositoryType = reflect.TypeOf((*account.Repository)(nil)).Elem()
	// TransactionRepositoryType is the registry key of transaction.Repository.
	TransactionRepositoryType = reflect.TypeOf((*transaction.Repository)(nil)).Elem()
)
