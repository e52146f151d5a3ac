package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending marks a key whose first request is still in flight.
	IdempotencyPending = "processing"

	// reconciliationBatchSize bounds how many drifting accounts a report lists.
	reconciliationBatchSize = 1000
)
