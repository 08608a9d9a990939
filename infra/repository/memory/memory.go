// Package memory is an in-process implementation of the repository
// contracts, used when no database is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/amirasaad/wallet/pkg/domain/transaction"
	"github.com/amirasaad/wallet/pkg/repository"
	accountrepo "github.com/amirasaad/wallet/pkg/repository/account"
	txrepo "github.com/amirasaad/wallet/pkg/repository/transaction"
	"github.com/google/uuid"
)

// Store holds accounts and the transaction log in memory. Units of work run
// concurrently; Lock holds a per-account lock until the unit ends, which
// gives it the same serializing effect as a row lock.
type Store struct {
	mu sync.RWMutex

	accounts map[uuid.UUID]*account.Account
	handles  map[string]uuid.UUID
	records  []*transaction.Record
	byID     map[uuid.UUID]*transaction.Record
	byRef    map[string]*transaction.Record

	locksMu sync.Mutex
	locks   map[uuid.UUID]chan struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*account.Account),
		handles:  make(map[string]uuid.UUID),
		byID:     make(map[uuid.UUID]*transaction.Record),
		byRef:    make(map[string]*transaction.Record),
		locks:    make(map[uuid.UUID]chan struct{}),
	}
}

// accountLock returns the lock of id, a one-slot channel so that waiting
// for it can be abandoned when the context ends.
func (s *Store) accountLock(id uuid.UUID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

// unit is the state of one running unit of work.
type unit struct {
	undo []func()
	held map[uuid.UUID]chan struct{}
}

// UoW is a repository.UnitOfWork over a Store.
type UoW struct {
	store *Store
	txn   *unit
}

// NewUoW creates a unit of work over s.
func NewUoW(s *Store) *UoW {
	return &UoW{store: s}
}

// Do runs fn as one unit. When fn fails, every write it made is undone.
// Account locks taken by fn are released after that.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.txn != nil {
		return fn(u)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := &UoW{store: u.store, txn: &unit{held: make(map[uuid.UUID]chan struct{})}}
	defer txn.release()
	if err := fn(txn); err != nil {
		u.store.mu.Lock()
		undo := txn.txn.undo
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		u.store.mu.Unlock()
		return err
	}
	return nil
}

// lock takes the account lock of id for the rest of the unit. Outside a
// unit there is nothing to hold it for.
func (u *UoW) lock(ctx context.Context, id uuid.UUID) error {
	if u.txn == nil {
		return nil
	}
	if _, ok := u.txn.held[id]; ok {
		return nil
	}
	l := u.store.accountLock(id)
	select {
	case l <- struct{}{}:
		u.txn.held[id] = l
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *UoW) release() {
	for id, l := range u.txn.held {
		<-l
		delete(u.txn.held, id)
	}
}

// GetRepository implements repository.UnitOfWork.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	switch repoType {
	case repository.AccountRepositoryType:
		return &accountRepository{uow: u}, nil
	case repository.TransactionRepositoryType:
		return &transactionRepository{uow: u}, nil
	}
	return nil, fmt.Errorf("unsupported repository type: %v", repoType)
}

// AccountRepository implements repository.UnitOfWork.
func (u *UoW) AccountRepository() (accountrepo.Repository, error) {
	return &accountRepository{uow: u}, nil
}

// TransactionRepository implements repository.UnitOfWork.
func (u *UoW) TransactionRepository() (txrepo.Repository, error) {
	return &transactionRepository{uow: u}, nil
}

// record registers an undo step; callers hold store.mu.
func (u *UoW) record(fn func()) {
	if u.txn != nil {
		u.txn.undo = append(u.txn.undo, fn)
	}
}

var _ repository.UnitOfWork = (*UoW)(nil)

type accountRepository struct {
	uow *UoW
}

func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if acc.Handle != "" {
		if _, ok := s.handles[acc.Handle]; ok {
			return domain.ErrHandleTaken
		}
		s.handles[acc.Handle] = acc.ID
	}
	s.accounts[acc.ID] = cloneAccount(acc)
	r.uow.record(func() {
		delete(s.accounts, acc.ID)
		if acc.Handle != "" {
			delete(s.handles, acc.Handle)
		}
	})
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(acc), nil
}

func (r *accountRepository) GetByHandle(ctx context.Context, handle string) (*account.Account, error) {
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.handles[strings.ToLower(handle)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(s.accounts[id]), nil
}

func (r *accountRepository) Lock(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.uow.lock(ctx, id); err != nil {
		return nil, err
	}
	// re-read: the previous holder may have changed the account
	return r.Get(ctx, id)
}

func (r *accountRepository) SetHandle(ctx context.Context, id uuid.UUID, handle string) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if owner, taken := s.handles[handle]; taken && owner != id {
		return domain.ErrHandleTaken
	}
	prev, prevUpdated := acc.Handle, acc.UpdatedAt
	if prev != "" {
		delete(s.handles, prev)
	}
	s.handles[handle] = id
	acc.Handle = handle
	acc.UpdatedAt = time.Now().UTC()
	r.uow.record(func() {
		delete(s.handles, handle)
		if prev != "" {
			s.handles[prev] = id
		}
		acc.Handle, acc.UpdatedAt = prev, prevUpdated
	})
	return nil
}

func (r *accountRepository) SetPinHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	prev, prevUpdated := acc.PinHash, acc.UpdatedAt
	acc.PinHash = append([]byte(nil), hash...)
	acc.UpdatedAt = time.Now().UTC()
	r.uow.record(func() { acc.PinHash, acc.UpdatedAt = prev, prevUpdated })
	return nil
}

type transactionRepository struct {
	uow *UoW
}

func (r *transactionRepository) Create(ctx context.Context, rec *transaction.Record) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byRef[rec.Reference]; ok {
		return domain.ErrDuplicateReference
	}
	if _, ok := s.byID[rec.ID]; ok {
		return domain.ErrAlreadyExists
	}
	c := cloneRecord(rec)
	s.records = append(s.records, c)
	s.byID[c.ID] = c
	s.byRef[c.Reference] = c
	r.uow.record(func() {
		delete(s.byID, c.ID)
		delete(s.byRef, c.Reference)
		for i := len(s.records) - 1; i >= 0; i-- {
			if s.records[i] == c {
				s.records = append(s.records[:i], s.records[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Record, error) {
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byRef[reference]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*transaction.Record, error) {
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*transaction.Record, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Involves(accountID) {
			out = append(out, cloneRecord(s.records[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *transactionRepository) Finalize(
	ctx context.Context,
	reference string,
	f txrepo.Finalization,
) (*transaction.Record, bool, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byRef[reference]
	if !ok {
		return nil, false, domain.ErrRecordNotFound
	}
	if rec.IsTerminal() || !f.Status.IsTerminal() {
		return cloneRecord(rec), false, nil
	}
	prev := *rec
	if err := rec.Finalize(f.Status, f.ProcessingFee, f.Authorization); err != nil {
		return nil, false, err
	}
	r.uow.record(func() { *rec = prev })
	return cloneRecord(rec), true, nil
}

func cloneAccount(a *account.Account) *account.Account {
	c := *a
	c.PinHash = append([]byte(nil), a.PinHash...)
	if len(c.PinHash) == 0 {
		c.PinHash = nil
	}
	return &c
}

func cloneRecord(r *transaction.Record) *transaction.Record {
	c := *r
	return &c
}
