package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
)

// AccountRepository defines data access for accounts.
//
// GetByAccountNo is a plain read for views and auth checks. Balance mutations must go through
// GetByAccountNoForUpdate, which takes a row lock held until the transaction ends.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByAccountNo(ctx context.Context, accountNo string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByAccountNoForUpdate(ctx context.Context, tx Transaction, accountNo string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, accountNo string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByMovement(ctx context.Context, movementID string) ([]*domain.Entry, error)
	GetByAccount(ctx context.Context, accountNo string, limit, offset int) ([]*domain.Entry, error)
	GetBalanceAtTime(ctx context.Context, accountNo string, at time.Time) (decimal.Decimal, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalBalance, totalEntries decimal.Decimal, err error)
	FindBalanceDrift(ctx context.Context, limit int) ([]*domain.BalanceDrift, error)
	FindUnbalancedMovements(ctx context.Context, limit int) ([]string, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// ScreeningService checks whether an identity may open an account.
// It returns domain.ErrBlacklisted for a listed identity and wraps
// domain.ErrScreeningUnavailable when the check itself fails.
type ScreeningService interface {
	Check(ctx context.Context, phoneNumber string) error
}

// TokenIssuer issues session tokens after a successful login.
type TokenIssuer interface {
	Generate(accountNo, phoneNumber string) (string, error)
}

// OperationRecorder observes engine outcomes.
type OperationRecorder interface {
	RecordOperation(op domain.Operation, kind domain.Kind, amount decimal.Decimal, duration time.Duration)
}
