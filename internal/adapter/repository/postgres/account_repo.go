package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/infrastructure/postgres/generated"
	"github.com/iho/democredit/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create inserts a new account within a transaction.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	err := queries.CreateAccount(ctx, generated.CreateAccountParams{
		AccountNo:    account.AccountNo,
		Username:     account.Username,
		PhoneNumber:  account.PhoneNumber,
		PasswordHash: account.PasswordHash,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		Balance:      decimalToNumeric(account.Balance),
		Version:      account.Version,
		CreatedAt:    timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:    timeToPgTimestamptz(account.UpdatedAt),
	})

	return mapError(err)
}

// GetByAccountNo retrieves an account without locking it.
func (r *AccountRepository) GetByAccountNo(ctx context.Context, accountNo string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByNo(ctx, accountNo)
	if err != nil {
		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

// GetByUsername retrieves an account by its login name.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

// GetByAccountNoForUpdate retrieves an account with a FOR UPDATE lock held until tx ends.
func (r *AccountRepository) GetByAccountNoForUpdate(ctx context.Context, tx usecase.Transaction, accountNo string) (*domain.Account, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetAccountByNoForUpdate(ctx, accountNo)
	if err != nil {
		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

// UpdateBalance overwrites the balance of a locked account and bumps its version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, accountNo string, balance decimal.Decimal, updatedAt time.Time) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		AccountNo: accountNo,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		AccountNo:    row.AccountNo,
		Username:     row.Username,
		PhoneNumber:  row.PhoneNumber,
		PasswordHash: row.PasswordHash,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Balance:      numericToDecimal(row.Balance),
		Version:      row.Version,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}
