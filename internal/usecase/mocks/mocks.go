package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc                  func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByAccountNoFunc          func(ctx context.Context, accountNo string) (*domain.Account, error)
	GetByUsernameFunc           func(ctx context.Context, username string) (*domain.Account, error)
	GetByAccountNoForUpdateFunc func(ctx context.Context, tx usecase.Transaction, accountNo string) (*domain.Account, error)
	UpdateBalanceFunc           func(ctx context.Context, tx usecase.Transaction, accountNo string, balance decimal.Decimal, updatedAt time.Time) error
	ListFunc                    func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository(accounts ...*domain.Account) *MockAccountRepository {
	m := &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
	for _, acc := range accounts {
		m.accounts[acc.AccountNo] = acc
	}
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.AccountNo]; ok {
		return domain.ErrAccountExists
	}
	cp := *account
	m.accounts[account.AccountNo] = &cp
	return nil
}

func (m *MockAccountRepository) GetByAccountNo(ctx context.Context, accountNo string) (*domain.Account, error) {
	if m.GetByAccountNoFunc != nil {
		return m.GetByAccountNoFunc(ctx, accountNo)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[accountNo]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.Username == username {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByAccountNoForUpdate(ctx context.Context, tx usecase.Transaction, accountNo string) (*domain.Account, error) {
	if m.GetByAccountNoForUpdateFunc != nil {
		return m.GetByAccountNoForUpdateFunc(ctx, tx, accountNo)
	}
	return m.GetByAccountNo(ctx, accountNo)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, accountNo string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, accountNo, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountNo]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		cp := *acc
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountNo < accounts[j].AccountNo })
	return page(accounts, limit, offset), nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.Entry

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	GetByMovementFunc    func(ctx context.Context, movementID string) ([]*domain.Entry, error)
	GetByAccountFunc     func(ctx context.Context, accountNo string, limit, offset int) ([]*domain.Entry, error)
	GetBalanceAtTimeFunc func(ctx context.Context, accountNo string, at time.Time) (decimal.Decimal, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) GetByMovement(ctx context.Context, movementID string) ([]*domain.Entry, error) {
	if m.GetByMovementFunc != nil {
		return m.GetByMovementFunc(ctx, movementID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range m.entries {
		if e.MovementID == movementID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MockEntryRepository) GetByAccount(ctx context.Context, accountNo string, limit, offset int) ([]*domain.Entry, error) {
	if m.GetByAccountFunc != nil {
		return m.GetByAccountFunc(ctx, accountNo, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range m.entries {
		if e.AccountNo == accountNo {
			entries = append(entries, e)
		}
	}
	return page(entries, limit, offset), nil
}

func (m *MockEntryRepository) GetBalanceAtTime(ctx context.Context, accountNo string, at time.Time) (decimal.Decimal, error) {
	if m.GetBalanceAtTimeFunc != nil {
		return m.GetBalanceAtTimeFunc(ctx, accountNo, at)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.AccountNo == accountNo && !e.CreatedAt.After(at) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// All returns every entry recorded so far.
func (m *MockEntryRepository) All() []*domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.Entry(nil), m.entries...)
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) (int64, error)
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			events = append(events, e)
		}
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	deleted := int64(len(m.events) - len(kept))
	m.events = kept
	return deleted, nil
}

// Events returns every event recorded so far.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu  sync.Mutex
	txs []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	m.mu.Lock()
	m.txs = append(m.txs, tx)
	m.mu.Unlock()
	return tx, nil
}

// Last returns the most recent transaction handed out by Begin.
func (m *MockTransactionManager) Last() *MockTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txs) == 0 {
		return nil
	}
	return m.txs[len(m.txs)-1]
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	mu         sync.Mutex
	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockScreeningService is a mock implementation of ScreeningService.
type MockScreeningService struct {
	CheckFunc func(ctx context.Context, phoneNumber string) error
}

func (m *MockScreeningService) Check(ctx context.Context, phoneNumber string) error {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, phoneNumber)
	}
	return nil
}

// MockTokenIssuer is a mock implementation of TokenIssuer.
type MockTokenIssuer struct {
	GenerateFunc func(accountNo, phoneNumber string) (string, error)
}

func (m *MockTokenIssuer) Generate(accountNo, phoneNumber string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(accountNo, phoneNumber)
	}
	return "token-" + accountNo, nil
}

// MockOperationRecorder records engine observations.
type MockOperationRecorder struct {
	mu    sync.Mutex
	Calls []RecordedOperation
}

// RecordedOperation is one call to RecordOperation.
type RecordedOperation struct {
	Operation domain.Operation
	Kind      domain.Kind
	Amount    decimal.Decimal
}

func (m *MockOperationRecorder) RecordOperation(op domain.Operation, kind domain.Kind, amount decimal.Decimal, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, RecordedOperation{Operation: op, Kind: kind, Amount: amount})
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
