package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
)

// ReconciliationUseCase handles balance reconciliation operations
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountNo         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount compares the stored balance with the sum of the account's entries.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountNo string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByAccountNo(ctx, accountNo)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	calculated, err := uc.entryRepo.GetBalanceAtTime(ctx, accountNo, now)
	if err != nil {
		return nil, fmt.Errorf("sum entries of %s: %w", accountNo, err)
	}

	diff := account.Balance.Sub(calculated)
	return &ReconciliationResult{
		AccountNo:         accountNo,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       now,
	}, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalBalance        decimal.Decimal
	TotalEntries        decimal.Decimal
	Discrepancies       []*ReconciliationResult
	UnbalancedMovements []string
	LedgerConsistent    bool
	CheckedAt           time.Time
}

// GenerateReconciliationReport lists drifting accounts and unbalanced transfers.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	totalBalance, totalEntries, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	drift, err := uc.ledgerRepo.FindBalanceDrift(ctx, reconciliationBatchSize)
	if err != nil {
		return nil, err
	}

	unbalanced, err := uc.ledgerRepo.FindUnbalancedMovements(ctx, reconciliationBatchSize)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &ReconciliationReport{
		TotalBalance:        totalBalance,
		TotalEntries:        totalEntries,
		Discrepancies:       make([]*ReconciliationResult, 0, len(drift)),
		UnbalancedMovements: unbalanced,
		CheckedAt:           now,
	}

	for _, d := range drift {
		report.Discrepancies = append(report.Discrepancies, driftToResult(d, now))
	}

	report.LedgerConsistent = totalBalance.Equal(totalEntries) &&
		len(report.Discrepancies) == 0 &&
		len(report.UnbalancedMovements) == 0

	return report, nil
}

func driftToResult(d *domain.BalanceDrift, at time.Time) *ReconciliationResult {
	return &ReconciliationResult{
		AccountNo:         d.AccountNo,
		RecordedBalance:   d.RecordedBalance,
		CalculatedBalance: d.CalculatedBalance,
		Difference:        d.Difference(),
		IsReconciled:      false,
		LastChecked:       at,
	}
}
