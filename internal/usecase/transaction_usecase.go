package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
)

// TransactionConfig tunes the balance-mutation engine.
type TransactionConfig struct {
	Policy   domain.AmountPolicy
	Timeout  time.Duration
	Recorder OperationRecorder
	Logger   *zerolog.Logger
}

// TransactionUseCase applies fund, withdraw and transfer operations atomically.
//
// Every operation validates its raw input, opens one transaction, locks the
// involved rows in ascending account-number order, re-checks balances on the
// locked rows and writes balances, entries and the outbox event before commit.
// Any failure rolls the whole unit back.
type TransactionUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	policy      domain.AmountPolicy
	timeout     time.Duration
	recorder    OperationRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cfg TransactionConfig,
) *TransactionUseCase {
	if cfg.Policy.Max.IsZero() {
		cfg.Policy = domain.DefaultAmountPolicy()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTransactionTimeout
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "transaction_engine").Logger()
	}

	return &TransactionUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		policy:      cfg.Policy,
		timeout:     cfg.Timeout,
		recorder:    cfg.Recorder,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// FundInput represents input for crediting an account.
type FundInput struct {
	AccountNo string
	Amount    string
}

// WithdrawInput represents input for debiting an account.
type WithdrawInput struct {
	AccountNo string
	Amount    string
}

// TransferInput represents input for moving money between two accounts.
type TransferInput struct {
	FromAccountNo string
	ToAccountNo   string
	Amount        string
}

// TransferResult holds the post-transfer state of both accounts.
type TransferResult struct {
	Movement *domain.Movement
	From     *domain.Account
	To       *domain.Account
}

// Fund credits the account and returns its post-operation snapshot.
func (uc *TransactionUseCase) Fund(ctx context.Context, input FundInput) (account *domain.Account, err error) {
	start := time.Now()
	amount := decimal.Zero
	defer func() { uc.observe(domain.OperationFund, amount, start, err, input.AccountNo) }()

	amount, err = uc.policy.Parse(input.Amount)
	if err != nil {
		return nil, err
	}

	err = uc.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		locked, err := uc.lockAccounts(ctx, tx, input.AccountNo)
		if err != nil {
			return err
		}

		now := uc.now()
		acc := locked[input.AccountNo]
		after := map[string]*domain.Account{acc.AccountNo: acc.Snapshot(acc.ApplyCredit(amount), now)}

		movement := uc.newMovement(domain.OperationFund, acc.AccountNo, "", amount, now)
		if err := uc.apply(ctx, tx, movement, locked, after); err != nil {
			return err
		}

		account = after[acc.AccountNo]
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Withdraw debits the account if the locked balance covers the amount.
func (uc *TransactionUseCase) Withdraw(ctx context.Context, input WithdrawInput) (account *domain.Account, err error) {
	start := time.Now()
	amount := decimal.Zero
	defer func() { uc.observe(domain.OperationWithdraw, amount, start, err, input.AccountNo) }()

	amount, err = uc.policy.Parse(input.Amount)
	if err != nil {
		return nil, err
	}

	err = uc.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		locked, err := uc.lockAccounts(ctx, tx, input.AccountNo)
		if err != nil {
			return err
		}

		acc := locked[input.AccountNo]
		if err := acc.ValidateDebit(amount); err != nil {
			return err
		}

		now := uc.now()
		after := map[string]*domain.Account{acc.AccountNo: acc.Snapshot(acc.ApplyDebit(amount), now)}

		movement := uc.newMovement(domain.OperationWithdraw, acc.AccountNo, "", amount, now)
		if err := uc.apply(ctx, tx, movement, locked, after); err != nil {
			return err
		}

		account = after[acc.AccountNo]
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Transfer moves amount from one account to another. Both balance updates commit together or not at all.
func (uc *TransactionUseCase) Transfer(ctx context.Context, input TransferInput) (result *TransferResult, err error) {
	start := time.Now()
	amount := decimal.Zero
	defer func() { uc.observe(domain.OperationTransfer, amount, start, err, input.FromAccountNo) }()

	amount, err = uc.policy.Parse(input.Amount)
	if err != nil {
		return nil, err
	}
	if err = domain.ValidateTransferPair(input.FromAccountNo, input.ToAccountNo); err != nil {
		return nil, err
	}

	err = uc.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		locked, err := uc.lockAccounts(ctx, tx, input.FromAccountNo, input.ToAccountNo)
		if err != nil {
			return err
		}

		from := locked[input.FromAccountNo]
		to := locked[input.ToAccountNo]

		if err := from.ValidateDebit(amount); err != nil {
			return err
		}

		now := uc.now()
		after := map[string]*domain.Account{
			from.AccountNo: from.Snapshot(from.ApplyDebit(amount), now),
			to.AccountNo:   to.Snapshot(to.ApplyCredit(amount), now),
		}

		movement := uc.newMovement(domain.OperationTransfer, from.AccountNo, to.AccountNo, amount, now)
		if err := uc.apply(ctx, tx, movement, locked, after); err != nil {
			return err
		}

		result = &TransferResult{
			Movement: movement,
			From:     after[from.AccountNo],
			To:       after[to.AccountNo],
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// runInTx runs fn inside a bounded transaction. The deferred rollback is a no-op after commit.
func (uc *TransactionUseCase) runInTx(ctx context.Context, fn func(context.Context, Transaction) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return uc.classify(ctx, fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(ctx, tx); err != nil {
		return uc.classify(ctx, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uc.classify(ctx, fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

// lockAccounts takes row locks in ascending account-number order.
// All multi-account locking goes through here so concurrent transfers never wait on each other in a cycle.
func (uc *TransactionUseCase) lockAccounts(
	ctx context.Context,
	tx Transaction,
	accountNos ...string,
) (map[string]*domain.Account, error) {
	ordered := uniqueSorted(accountNos)

	locked := make(map[string]*domain.Account, len(ordered))
	for _, accountNo := range ordered {
		acc, err := uc.accountRepo.GetByAccountNoForUpdate(ctx, tx, accountNo)
		if err != nil {
			return nil, err
		}
		locked[accountNo] = acc
	}

	return locked, nil
}

// apply persists the new balances, the movement's entries and its outbox event on tx.
func (uc *TransactionUseCase) apply(
	ctx context.Context,
	tx Transaction,
	movement *domain.Movement,
	before, after map[string]*domain.Account,
) error {
	for _, accountNo := range uniqueSorted(keys(after)) {
		acc := after[accountNo]
		if err := uc.accountRepo.UpdateBalance(ctx, tx, accountNo, acc.Balance, acc.UpdatedAt); err != nil {
			return fmt.Errorf("update balance of %s: %w", accountNo, err)
		}
	}

	for _, entry := range movement.Entries(before, after, uc.idGen.Generate) {
		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
	}

	event := domain.NewMovementEvent(uc.idGen.Generate(), movement, after)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("create outbox event: %w", err)
	}

	return nil
}

func (uc *TransactionUseCase) newMovement(
	op domain.Operation,
	from, to string,
	amount decimal.Decimal,
	now time.Time,
) *domain.Movement {
	return &domain.Movement{
		ID:            uc.idGen.Generate(),
		Kind:          op,
		FromAccountNo: from,
		ToAccountNo:   to,
		Amount:        amount,
		CreatedAt:     now,
	}
}

// classify keeps rejections as they are and folds everything else into
// ErrTransactionTimeout or ErrStorageFailure, preserving the cause.
func (uc *TransactionUseCase) classify(ctx context.Context, err error) error {
	switch {
	case domain.IsRejection(err):
		return err
	case errors.Is(err, domain.ErrTransactionTimeout), errors.Is(err, domain.ErrStorageFailure):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrTransactionTimeout, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
}

func (uc *TransactionUseCase) observe(op domain.Operation, amount decimal.Decimal, start time.Time, err error, accountNo string) {
	kind := domain.KindOf(err)
	elapsed := time.Since(start)

	if uc.recorder != nil {
		uc.recorder.RecordOperation(op, kind, amount, elapsed)
	}

	switch {
	case err == nil:
		uc.logger.Debug().
			Str("operation", string(op)).
			Str("account_no", accountNo).
			Str("amount", amount.String()).
			Dur("duration", elapsed).
			Msg("operation committed")
	case domain.IsRejection(err):
		uc.logger.Info().
			Str("operation", string(op)).
			Str("account_no", accountNo).
			Str("kind", string(kind)).
			Msg("operation rejected")
	default:
		uc.logger.Error().
			Err(err).
			Str("operation", string(op)).
			Str("account_no", accountNo).
			Str("kind", string(kind)).
			Dur("duration", elapsed).
			Msg("operation failed")
	}
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func keys(m map[string]*domain.Account) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
