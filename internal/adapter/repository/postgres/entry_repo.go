package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/infrastructure/postgres/generated"
	"github.com/iho/democredit/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
	}
}

// Create appends an entry within a transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	err := queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:                     entry.ID,
		AccountNo:              entry.AccountNo,
		MovementID:             entry.MovementID,
		Operation:              string(entry.Operation),
		CounterpartyAccountNo:  textOrNull(entry.CounterpartyAccountNo),
		Amount:                 decimalToNumeric(entry.Amount),
		AccountPreviousBalance: decimalToNumeric(entry.AccountPreviousBalance),
		AccountCurrentBalance:  decimalToNumeric(entry.AccountCurrentBalance),
		AccountVersion:         entry.AccountVersion,
		CreatedAt:              timeToPgTimestamptz(entry.CreatedAt),
	})

	return mapError(err)
}

// GetByMovement retrieves the entries written by one movement.
func (r *EntryRepository) GetByMovement(ctx context.Context, movementID string) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByMovement(ctx, movementID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// GetByAccount retrieves entries by account, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountNo string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByAccount(ctx, generated.GetEntriesByAccountParams{
		AccountNo: accountNo,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// GetBalanceAtTime sums the entries of an account up to and including at.
func (r *EntryRepository) GetBalanceAtTime(ctx context.Context, accountNo string, at time.Time) (decimal.Decimal, error) {
	balance, err := r.queries.GetAccountBalanceAtTime(ctx, generated.GetAccountBalanceAtTimeParams{
		AccountNo: accountNo,
		CreatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(balance), nil
}

func rowsToEntries(rows []generated.Entry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.Entry{
			ID:                     row.ID,
			AccountNo:              row.AccountNo,
			MovementID:             row.MovementID,
			Operation:              domain.Operation(row.Operation),
			CounterpartyAccountNo:  row.CounterpartyAccountNo.String,
			Amount:                 numericToDecimal(row.Amount),
			AccountPreviousBalance: numericToDecimal(row.AccountPreviousBalance),
			AccountCurrentBalance:  numericToDecimal(row.AccountCurrentBalance),
			AccountVersion:         row.AccountVersion,
			CreatedAt:              row.CreatedAt.Time,
		})
	}

	return entries
}
