package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/wallet/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUoW_DoAndGetRepository(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		repoAny, err := txUow.GetRepository(repository.AccountRepositoryType)
		require.NoError(err)
		_, ok := repoAny.(*accountRepository)
		assert.True(ok)

		repoAny, err = txUow.GetRepository(repository.TransactionRepositoryType)
		require.NoError(err)
		_, ok = repoAny.(*transactionRepository)
		assert.True(ok)

		_, err = txUow.GetRepository(reflect.TypeOf(0))
		assert.Error(err)
		return nil
	})
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestUoW_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		acc, err := txUow.AccountRepository()
		require.NoError(t, err)
		assert.NotNil(t, acc)
		txs, err := txUow.TransactionRepository()
		require.NoError(t, err)
		assert.NotNil(t, txs)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_RepositoriesOutsideDo(t *testing.T) {
	db, _ := newMockDB(t)
	uow := NewUoW(db)
	repo, err := uow.TransactionRepository()
	require.NoError(t, err)
	assert.NotNil(t, repo)
}
