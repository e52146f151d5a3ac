package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{
		queries: generated.New(db),
	}
}

// CheckConsistency returns the sum of all balances and the sum of all entries.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	row, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(row.TotalAccountBalance), numericToDecimal(row.TotalEntryAmount), nil
}

// FindBalanceDrift lists accounts whose balance differs from their entries.
func (r *LedgerRepository) FindBalanceDrift(ctx context.Context, limit int) ([]*domain.BalanceDrift, error) {
	rows, err := r.queries.FindBalanceDrift(ctx, int32(limit))
	if err != nil {
		return nil, err
	}

	drifts := make([]*domain.BalanceDrift, 0, len(rows))
	for _, row := range rows {
		drifts = append(drifts, &domain.BalanceDrift{
			AccountNo:         row.AccountNo,
			RecordedBalance:   numericToDecimal(row.Balance),
			CalculatedBalance: numericToDecimal(row.CalculatedBalance),
		})
	}

	return drifts, nil
}

// FindUnbalancedMovements lists transfer movements whose two legs do not net to zero.
func (r *LedgerRepository) FindUnbalancedMovements(ctx context.Context, limit int) ([]string, error) {
	return r.queries.FindUnbalancedMovements(ctx, int32(limit))
}
