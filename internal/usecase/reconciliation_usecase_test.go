package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
	"github.com/iho/democredit/internal/usecase/mockgen"
)

func TestReconciliationUseCase_ReconcileAccount(t *testing.T) {
	tests := []struct {
		name       string
		balance    int64
		entriesSum int64
		reconciled bool
	}{
		{name: "balanced", balance: 150, entriesSum: 150, reconciled: true},
		{name: "drifted", balance: 150, entriesSum: 100, reconciled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			accRepo := mockgen.NewMockAccountRepository(ctrl)
			entryRepo := mockgen.NewMockEntryRepository(ctrl)
			ledgerRepo := mockgen.NewMockLedgerRepository(ctrl)

			accRepo.EXPECT().GetByAccountNo(gomock.Any(), "8000000001").
				Return(&domain.Account{AccountNo: "8000000001", Balance: decimal.NewFromInt(tt.balance)}, nil)
			entryRepo.EXPECT().GetBalanceAtTime(gomock.Any(), "8000000001", gomock.Any()).
				Return(decimal.NewFromInt(tt.entriesSum), nil)

			uc := usecase.NewReconciliationUseCase(accRepo, entryRepo, ledgerRepo)

			result, err := uc.ReconcileAccount(context.Background(), "8000000001")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.IsReconciled != tt.reconciled {
				t.Errorf("IsReconciled = %v, want %v", result.IsReconciled, tt.reconciled)
			}
			want := decimal.NewFromInt(tt.balance - tt.entriesSum)
			if !result.Difference.Equal(want) {
				t.Errorf("Difference = %s, want %s", result.Difference, want)
			}
		})
	}
}

func TestReconciliationUseCase_ReconcileAccountNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)

	accRepo := mockgen.NewMockAccountRepository(ctrl)
	accRepo.EXPECT().GetByAccountNo(gomock.Any(), "8000000009").Return(nil, domain.ErrAccountNotFound)

	uc := usecase.NewReconciliationUseCase(accRepo, mockgen.NewMockEntryRepository(ctrl), mockgen.NewMockLedgerRepository(ctrl))

	if _, err := uc.ReconcileAccount(context.Background(), "8000000009"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestReconciliationUseCase_GenerateReport(t *testing.T) {
	ctrl := gomock.NewController(t)

	ledgerRepo := mockgen.NewMockLedgerRepository(ctrl)
	ledgerRepo.EXPECT().CheckConsistency(gomock.Any()).Return(decimal.NewFromInt(300), decimal.NewFromInt(250), nil)
	ledgerRepo.EXPECT().FindBalanceDrift(gomock.Any(), gomock.Any()).Return([]*domain.BalanceDrift{
		{AccountNo: "8000000001", RecordedBalance: decimal.NewFromInt(100), CalculatedBalance: decimal.NewFromInt(50)},
	}, nil)
	ledgerRepo.EXPECT().FindUnbalancedMovements(gomock.Any(), gomock.Any()).Return(nil, nil)

	uc := usecase.NewReconciliationUseCase(
		mockgen.NewMockAccountRepository(ctrl),
		mockgen.NewMockEntryRepository(ctrl),
		ledgerRepo,
	)

	report, err := uc.GenerateReconciliationReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.LedgerConsistent {
		t.Error("expected inconsistent ledger")
	}
	if len(report.Discrepancies) != 1 || !report.Discrepancies[0].Difference.Equal(decimal.NewFromInt(50)) {
		t.Errorf("unexpected discrepancies: %+v", report.Discrepancies)
	}
}

func TestReconciliationUseCase_GenerateReportConsistent(t *testing.T) {
	ctrl := gomock.NewController(t)

	ledgerRepo := mockgen.NewMockLedgerRepository(ctrl)
	ledgerRepo.EXPECT().CheckConsistency(gomock.Any()).Return(decimal.NewFromInt(300), decimal.NewFromInt(300), nil)
	ledgerRepo.EXPECT().FindBalanceDrift(gomock.Any(), gomock.Any()).Return(nil, nil)
	ledgerRepo.EXPECT().FindUnbalancedMovements(gomock.Any(), gomock.Any()).Return(nil, nil)

	uc := usecase.NewReconciliationUseCase(
		mockgen.NewMockAccountRepository(ctrl),
		mockgen.NewMockEntryRepository(ctrl),
		ledgerRepo,
	)

	report, err := uc.GenerateReconciliationReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.LedgerConsistent {
		t.Errorf("expected consistent ledger, got %+v", report)
	}
}
