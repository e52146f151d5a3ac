package usecase

import (
	"context"
	"errors"
)

var (
	// ErrInconsistentLedger is returned when account balances and entries disagree.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balances do not match entries")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency verifies that the sum of all balances equals the sum of all entries
// and that every transfer nets to zero.
//
// Money enters only through fund and leaves only through withdraw, and both write an
// entry, so the totals must match exactly.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	totalBalance, totalEntries, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return false, err
	}

	if !totalBalance.Equal(totalEntries) {
		return false, ErrInconsistentLedger
	}

	unbalanced, err := uc.ledgerRepo.FindUnbalancedMovements(ctx, 1)
	if err != nil {
		return false, err
	}

	if len(unbalanced) > 0 {
		return false, ErrInconsistentLedger
	}

	return true, nil
}
