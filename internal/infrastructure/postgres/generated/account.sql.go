package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countAccounts = `-- name: CountAccounts :one
SELECT COUNT(*) FROM accounts
`

func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countAccounts)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (account_no, username, phone_number, password_hash, first_name, last_name, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type CreateAccountParams struct {
	AccountNo    string             `json:"account_no"`
	Username     string             `json:"username"`
	PhoneNumber  string             `json:"phone_number"`
	PasswordHash string             `json:"password_hash"`
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name"`
	Balance      pgtype.Numeric     `json:"balance"`
	Version      int64              `json:"version"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.Exec(ctx, createAccount,
		arg.AccountNo,
		arg.Username,
		arg.PhoneNumber,
		arg.PasswordHash,
		arg.FirstName,
		arg.LastName,
		arg.Balance,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getAccountByNo = `-- name: GetAccountByNo :one
SELECT account_no, username, phone_number, password_hash, first_name, last_name, balance, version, created_at, updated_at FROM accounts WHERE account_no = $1
`

func (q *Queries) GetAccountByNo(ctx context.Context, accountNo string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByNo, accountNo)
	var i Account
	err := row.Scan(
		&i.AccountNo,
		&i.Username,
		&i.PhoneNumber,
		&i.PasswordHash,
		&i.FirstName,
		&i.LastName,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByNoForUpdate = `-- name: GetAccountByNoForUpdate :one
SELECT account_no, username, phone_number, password_hash, first_name, last_name, balance, version, created_at, updated_at FROM accounts WHERE account_no = $1 FOR UPDATE
`

func (q *Queries) GetAccountByNoForUpdate(ctx context.Context, accountNo string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByNoForUpdate, accountNo)
	var i Account
	err := row.Scan(
		&i.AccountNo,
		&i.Username,
		&i.PhoneNumber,
		&i.PasswordHash,
		&i.FirstName,
		&i.LastName,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByUsername = `-- name: GetAccountByUsername :one
SELECT account_no, username, phone_number, password_hash, first_name, last_name, balance, version, created_at, updated_at FROM accounts WHERE username = $1
`

func (q *Queries) GetAccountByUsername(ctx context.Context, username string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByUsername, username)
	var i Account
	err := row.Scan(
		&i.AccountNo,
		&i.Username,
		&i.PhoneNumber,
		&i.PasswordHash,
		&i.FirstName,
		&i.LastName,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAccounts = `-- name: ListAccounts :many
SELECT account_no, username, phone_number, password_hash, first_name, last_name, balance, version, created_at, updated_at FROM accounts
ORDER BY created_at DESC, account_no
LIMIT $1 OFFSET $2
`

type ListAccountsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.AccountNo,
			&i.Username,
			&i.PhoneNumber,
			&i.PasswordHash,
			&i.FirstName,
			&i.LastName,
			&i.Balance,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateAccountBalance = `-- name: UpdateAccountBalance :execrows
UPDATE accounts SET balance = $2, version = version + 1, updated_at = $3 WHERE account_no = $1
`

type UpdateAccountBalanceParams struct {
	AccountNo string             `json:"account_no"`
	Balance   pgtype.Numeric     `json:"balance"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountBalance(ctx context.Context, arg UpdateAccountBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateAccountBalance, arg.AccountNo, arg.Balance, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
