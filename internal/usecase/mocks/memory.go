package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
)

// MemoryLedger is an in-memory store with row locks, used to exercise the engine under
// real concurrency. A row locked through GetByAccountNoForUpdate stays locked until the
// owning transaction commits or rolls back. Writes are staged on the transaction and only
// become visible on commit.
type MemoryLedger struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	locks    map[string]chan struct{}
	entries  []*domain.Entry
	events   []*domain.OutboxEvent
}

// NewMemoryLedger seeds the ledger with copies of accounts.
func NewMemoryLedger(accounts ...*domain.Account) *MemoryLedger {
	l := &MemoryLedger{
		accounts: make(map[string]*domain.Account),
		locks:    make(map[string]chan struct{}),
	}
	for _, acc := range accounts {
		cp := *acc
		l.accounts[acc.AccountNo] = &cp
		l.locks[acc.AccountNo] = make(chan struct{}, 1)
	}
	return l
}

type memTx struct {
	ledger   *MemoryLedger
	mu       sync.Mutex
	held     []string
	balances map[string]*domain.Account
	entries  []*domain.Entry
	events   []*domain.OutboxEvent
	created  []*domain.Account
	done     bool
}

// Begin starts a transaction.
func (l *MemoryLedger) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{ledger: l, balances: make(map[string]*domain.Account)}, nil
}

func (tx *memTx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return errors.New("transaction already closed")
	}

	l := tx.ledger
	l.mu.Lock()
	for no, acc := range tx.balances {
		cp := *acc
		l.accounts[no] = &cp
	}
	for _, acc := range tx.created {
		cp := *acc
		l.accounts[acc.AccountNo] = &cp
		l.locks[acc.AccountNo] = make(chan struct{}, 1)
	}
	l.entries = append(l.entries, tx.entries...)
	l.events = append(l.events, tx.events...)
	l.mu.Unlock()

	tx.release()
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.release()
	return nil
}

// release must be called with tx.mu held.
func (tx *memTx) release() {
	tx.done = true
	for _, no := range tx.held {
		<-tx.ledger.lockFor(no)
	}
	tx.held = nil
}

func (l *MemoryLedger) lockFor(accountNo string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locks[accountNo]
}

func asMemTx(tx usecase.Transaction) *memTx {
	mt, ok := tx.(*memTx)
	if !ok {
		panic("mocks: transaction was not created by MemoryLedger")
	}
	return mt
}

// Create stages a new account on tx.
func (l *MemoryLedger) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	l.mu.Lock()
	_, exists := l.accounts[account.AccountNo]
	l.mu.Unlock()
	if exists {
		return domain.ErrAccountExists
	}
	mt := asMemTx(tx)
	mt.mu.Lock()
	defer mt.mu.Unlock()
	cp := *account
	mt.created = append(mt.created, &cp)
	return nil
}

// GetByAccountNo returns the last committed state of the account.
func (l *MemoryLedger) GetByAccountNo(ctx context.Context, accountNo string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[accountNo]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (l *MemoryLedger) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, acc := range l.accounts {
		if acc.Username == username {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// GetByAccountNoForUpdate blocks until the row lock is free or ctx ends.
func (l *MemoryLedger) GetByAccountNoForUpdate(ctx context.Context, tx usecase.Transaction, accountNo string) (*domain.Account, error) {
	lock := l.lockFor(accountNo)
	if lock == nil {
		return nil, domain.ErrAccountNotFound
	}

	mt := asMemTx(tx)
	mt.mu.Lock()
	for _, held := range mt.held {
		if held == accountNo {
			mt.mu.Unlock()
			return l.GetByAccountNo(ctx, accountNo)
		}
	}
	mt.mu.Unlock()

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mt.mu.Lock()
	mt.held = append(mt.held, accountNo)
	mt.mu.Unlock()

	return l.GetByAccountNo(ctx, accountNo)
}

// UpdateBalance stages the new balance on tx. The row must be locked by tx.
func (l *MemoryLedger) UpdateBalance(ctx context.Context, tx usecase.Transaction, accountNo string, balance decimal.Decimal, updatedAt time.Time) error {
	mt := asMemTx(tx)
	mt.mu.Lock()
	defer mt.mu.Unlock()

	locked := false
	for _, held := range mt.held {
		if held == accountNo {
			locked = true
			break
		}
	}
	if !locked {
		return errors.New("mocks: balance update without row lock")
	}

	staged, ok := mt.balances[accountNo]
	if !ok {
		current, err := l.GetByAccountNo(ctx, accountNo)
		if err != nil {
			return err
		}
		staged = current
		mt.balances[accountNo] = staged
	}
	staged.Balance = balance
	staged.Version++
	staged.UpdatedAt = updatedAt
	return nil
}

func (l *MemoryLedger) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.Account
	for _, acc := range l.accounts {
		cp := *acc
		out = append(out, &cp)
	}
	return page(out, limit, offset), nil
}

// Entries returns a repository view over the ledger's entries.
func (l *MemoryLedger) Entries() usecase.EntryRepository { return memEntries{l} }

// Outbox returns a repository view over the ledger's outbox.
func (l *MemoryLedger) Outbox() usecase.OutboxRepository { return memOutbox{l} }

// Balance returns the committed balance of an account.
func (l *MemoryLedger) Balance(accountNo string) decimal.Decimal {
	acc, err := l.GetByAccountNo(context.Background(), accountNo)
	if err != nil {
		return decimal.Zero
	}
	return acc.Balance
}

// Total returns the sum of all committed balances.
func (l *MemoryLedger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	sum := decimal.Zero
	for _, acc := range l.accounts {
		sum = sum.Add(acc.Balance)
	}
	return sum
}

// CommittedEntries returns all committed entries.
func (l *MemoryLedger) CommittedEntries() []*domain.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*domain.Entry(nil), l.entries...)
}

type memEntries struct{ l *MemoryLedger }

func (m memEntries) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	mt := asMemTx(tx)
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.entries = append(mt.entries, entry)
	return nil
}

func (m memEntries) GetByMovement(ctx context.Context, movementID string) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for _, e := range m.l.CommittedEntries() {
		if e.MovementID == movementID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memEntries) GetByAccount(ctx context.Context, accountNo string, limit, offset int) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for _, e := range m.l.CommittedEntries() {
		if e.AccountNo == accountNo {
			out = append(out, e)
		}
	}
	return page(out, limit, offset), nil
}

func (m memEntries) GetBalanceAtTime(ctx context.Context, accountNo string, at time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range m.l.CommittedEntries() {
		if e.AccountNo == accountNo && !e.CreatedAt.After(at) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

type memOutbox struct{ l *MemoryLedger }

func (m memOutbox) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	mt := asMemTx(tx)
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.events = append(mt.events, event)
	return nil
}

func (m memOutbox) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.l.events {
		if !e.Published {
			out = append(out, e)
		}
	}
	return page(out, limit, 0), nil
}

func (m memOutbox) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	for _, e := range m.l.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m memOutbox) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	kept := m.l.events[:0]
	for _, e := range m.l.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	deleted := int64(len(m.l.events) - len(kept))
	m.l.events = kept
	return deleted, nil
}
