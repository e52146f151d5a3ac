package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
	"github.com/iho/democredit/internal/usecase/mocks"
)

type engineFixture struct {
	accRepo   *mocks.MockAccountRepository
	entryRepo *mocks.MockEntryRepository
	outbox    *mocks.MockOutboxRepository
	txMgr     *mocks.MockTransactionManager
	recorder  *mocks.MockOperationRecorder
	uc        *usecase.TransactionUseCase
}

func newEngineFixture(t *testing.T, timeout time.Duration, accounts ...*domain.Account) *engineFixture {
	t.Helper()

	f := &engineFixture{
		accRepo:   mocks.NewMockAccountRepository(accounts...),
		entryRepo: mocks.NewMockEntryRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		txMgr:     mocks.NewMockTransactionManager(),
		recorder:  &mocks.MockOperationRecorder{},
	}
	f.uc = usecase.NewTransactionUseCase(
		f.txMgr, f.accRepo, f.entryRepo, f.outbox, mocks.NewMockIDGenerator(),
		usecase.TransactionConfig{Timeout: timeout, Recorder: f.recorder},
	)
	return f
}

func account(no string, balance int64) *domain.Account {
	return &domain.Account{AccountNo: no, Username: "user" + no, Balance: decimal.NewFromInt(balance)}
}

func (f *engineFixture) balance(t *testing.T, no string) decimal.Decimal {
	t.Helper()
	acc, err := f.accRepo.GetByAccountNo(context.Background(), no)
	if err != nil {
		t.Fatalf("get %s: %v", no, err)
	}
	return acc.Balance
}

func failOnBegin(t *testing.T, txMgr *mocks.MockTransactionManager) {
	txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		t.Fatal("transaction must not be opened for rejected input")
		return nil, nil
	}
}

func TestTransactionUseCase_Fund(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 100))

	acc, err := f.uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: "250"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !acc.Balance.Equal(decimal.NewFromInt(350)) {
		t.Errorf("expected returned balance 350, got %s", acc.Balance)
	}
	if got := f.balance(t, "8000000001"); !got.Equal(decimal.NewFromInt(350)) {
		t.Errorf("expected stored balance 350, got %s", got)
	}

	entries := f.entryRepo.All()
	if len(entries) != 1 || !entries[0].Amount.Equal(decimal.NewFromInt(250)) || entries[0].Operation != domain.OperationFund {
		t.Errorf("unexpected entries: %+v", entries)
	}

	events := f.outbox.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeFundsCredited {
		t.Errorf("unexpected events: %+v", events)
	}

	if tx := f.txMgr.Last(); tx == nil || !tx.Committed {
		t.Error("expected transaction to be committed")
	}
}

func TestTransactionUseCase_Withdraw(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 100))

	acc, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountNo: "8000000001", Amount: "50"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if acc.AccountNo != "8000000001" || !acc.Balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected snapshot {8000000001 50}, got {%s %s}", acc.AccountNo, acc.Balance)
	}
	if got := f.balance(t, "8000000001"); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected stored balance 50, got %s", got)
	}
	if entries := f.entryRepo.All(); len(entries) != 1 || !entries[0].Amount.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestTransactionUseCase_WithdrawExactBalance(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 100))

	acc, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountNo: "8000000001", Amount: "100"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.Balance.IsZero() {
		t.Errorf("expected zero balance, got %s", acc.Balance)
	}
}

func TestTransactionUseCase_Transfer(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 500), account("8000000002", 20))

	result, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountNo: "8000000001",
		ToAccountNo:   "8000000002",
		Amount:        "200",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.From.Balance.Equal(decimal.NewFromInt(300)) || !result.To.Balance.Equal(decimal.NewFromInt(220)) {
		t.Errorf("unexpected result balances: from=%s to=%s", result.From.Balance, result.To.Balance)
	}

	total := f.balance(t, "8000000001").Add(f.balance(t, "8000000002"))
	if !total.Equal(decimal.NewFromInt(520)) {
		t.Errorf("transfer must conserve money, total=%s", total)
	}

	entries := f.entryRepo.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Amount.Add(entries[1].Amount).IsZero() {
		t.Errorf("transfer entries must net to zero")
	}
	if entries[0].MovementID != result.Movement.ID {
		t.Errorf("entry not linked to movement")
	}
}

func TestTransactionUseCase_TransferInsufficientBalance(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 500), account("8000000002", 0))
	f.accRepo.UpdateBalanceFunc = func(ctx context.Context, tx usecase.Transaction, accountNo string, balance decimal.Decimal, updatedAt time.Time) error {
		t.Fatal("no balance may be written for a rejected transfer")
		return nil
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountNo: "8000000001",
		ToAccountNo:   "8000000002",
		Amount:        "1000",
	})

	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if tx := f.txMgr.Last(); tx == nil || !tx.RolledBack || tx.Committed {
		t.Error("expected transaction to be rolled back")
	}
	if got := f.balance(t, "8000000001"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("sender balance changed to %s", got)
	}
	if len(f.entryRepo.All()) != 0 || len(f.outbox.Events()) != 0 {
		t.Error("rejected transfer wrote entries or events")
	}
}

func TestTransactionUseCase_RejectsBeforeStorage(t *testing.T) {
	tests := []struct {
		name    string
		run     func(uc *usecase.TransactionUseCase) error
		wantErr error
	}{
		{
			name: "self transfer",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Transfer(context.Background(), usecase.TransferInput{
					FromAccountNo: "8000000001", ToAccountNo: "8000000001", Amount: "10",
				})
				return err
			},
			wantErr: domain.ErrSelfTransfer,
		},
		{
			name: "missing recipient",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Transfer(context.Background(), usecase.TransferInput{FromAccountNo: "8000000001", Amount: "10"})
				return err
			},
			wantErr: domain.ErrMissingRecipient,
		},
		{
			name: "non numeric amount",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: "ten"})
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountNo: "8000000001", Amount: "-5"})
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "below minimum",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: "4"})
				return err
			},
			wantErr: domain.ErrAmountOutOfRange,
		},
		{
			name: "above maximum",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: "2000001"})
				return err
			},
			wantErr: domain.ErrAmountOutOfRange,
		},
		{
			name: "huge exponent",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: "1e500000000"})
				return err
			},
			wantErr: domain.ErrAmountOutOfRange,
		},
		{
			name: "tiny exponent",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountNo: "8000000001", Amount: "5e-500000000"})
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "NaN",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: "NaN"})
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "infinity",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Transfer(context.Background(), usecase.TransferInput{
					FromAccountNo: "8000000001", ToAccountNo: "8000000002", Amount: "Infinity",
				})
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "invalid amount wins over self transfer",
			run: func(uc *usecase.TransactionUseCase) error {
				_, err := uc.Transfer(context.Background(), usecase.TransferInput{
					FromAccountNo: "8000000001", ToAccountNo: "8000000001", Amount: "0",
				})
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, 0, account("8000000001", 1000))
			failOnBegin(t, f.txMgr)

			err := tt.run(f.uc)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := f.balance(t, "8000000001"); !got.Equal(decimal.NewFromInt(1000)) {
				t.Errorf("balance changed to %s", got)
			}
		})
	}
}

func TestTransactionUseCase_AmountBounds(t *testing.T) {
	for _, amount := range []string{"5", "2000000", "5e0", "1e3", "2e6", "2.5e1"} {
		t.Run(amount, func(t *testing.T) {
			f := newEngineFixture(t, 0, account("8000000001", 0))

			if _, err := f.uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: amount}); err != nil {
				t.Fatalf("expected %s to be accepted, got %v", amount, err)
			}
		})
	}
}

func TestTransactionUseCase_AccountNotFound(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 100))

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountNo: "8000000001",
		ToAccountNo:   "8999999999",
		Amount:        "10",
	})

	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if got := f.balance(t, "8000000001"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("sender balance changed to %s", got)
	}
	if tx := f.txMgr.Last(); tx == nil || !tx.RolledBack {
		t.Error("expected rollback")
	}
}

func TestTransactionUseCase_LocksInAccountOrder(t *testing.T) {
	f := newEngineFixture(t, 0, account("9000000000", 100), account("1000000000", 100))

	var order []string
	f.accRepo.GetByAccountNoForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, accountNo string) (*domain.Account, error) {
		order = append(order, accountNo)
		return f.accRepo.GetByAccountNo(ctx, accountNo)
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountNo: "9000000000",
		ToAccountNo:   "1000000000",
		Amount:        "10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "1000000000" || order[1] != "9000000000" {
		t.Errorf("expected ascending lock order, got %v", order)
	}
}

func TestTransactionUseCase_StorageFailure(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 100), account("8000000002", 0))
	cause := errors.New("connection reset by peer")

	// The second balance write fails after the first one already succeeded.
	calls := 0
	f.accRepo.UpdateBalanceFunc = func(ctx context.Context, tx usecase.Transaction, accountNo string, balance decimal.Decimal, updatedAt time.Time) error {
		calls++
		if calls == 2 {
			return cause
		}
		return nil
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountNo: "8000000001",
		ToAccountNo:   "8000000002",
		Amount:        "10",
	})

	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	if tx := f.txMgr.Last(); tx == nil || !tx.RolledBack || tx.Committed {
		t.Error("expected rollback")
	}
}

func TestTransactionUseCase_CommitFailure(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 100))
	f.txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		return &mocks.MockTransaction{
			CommitFunc: func(ctx context.Context) error { return errors.New("commit failed") },
		}, nil
	}

	_, err := f.uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: "10"})

	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
}

func TestTransactionUseCase_BeginFailure(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 100))
	f.txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		return nil, errors.New("pool exhausted")
	}

	_, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountNo: "8000000001", Amount: "10"})

	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
}

func TestTransactionUseCase_Timeout(t *testing.T) {
	f := newEngineFixture(t, 20*time.Millisecond, account("8000000001", 100))
	f.accRepo.GetByAccountNoForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, accountNo string) (*domain.Account, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountNo: "8000000001", Amount: "10"})

	if !errors.Is(err, domain.ErrTransactionTimeout) {
		t.Fatalf("expected ErrTransactionTimeout, got %v", err)
	}
	if tx := f.txMgr.Last(); tx == nil || !tx.RolledBack {
		t.Error("expected rollback after timeout")
	}
}

func TestTransactionUseCase_RecordsOutcome(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 100))

	_, _ = f.uc.Fund(context.Background(), usecase.FundInput{AccountNo: "8000000001", Amount: "10"})
	_, _ = f.uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountNo: "8000000001", Amount: "1000"})

	if len(f.recorder.Calls) != 2 {
		t.Fatalf("expected 2 recorded operations, got %d", len(f.recorder.Calls))
	}
	if c := f.recorder.Calls[0]; c.Operation != domain.OperationFund || c.Kind != domain.KindNone {
		t.Errorf("unexpected first record: %+v", c)
	}
	if c := f.recorder.Calls[1]; c.Operation != domain.OperationWithdraw || c.Kind != domain.KindInsufficientBalance {
		t.Errorf("unexpected second record: %+v", c)
	}
}

func TestTransactionUseCase_IdempotentRejection(t *testing.T) {
	f := newEngineFixture(t, 0, account("8000000001", 30))

	for i := 0; i < 3; i++ {
		_, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountNo: "8000000001", Amount: "50"})
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("attempt %d: expected ErrInsufficientBalance, got %v", i, err)
		}
	}

	if got := f.balance(t, "8000000001"); !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("balance changed to %s", got)
	}
}
