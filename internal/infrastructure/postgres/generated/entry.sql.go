package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createEntry = `-- name: CreateEntry :exec
INSERT INTO entries (id, account_no, movement_id, operation, counterparty_account_no, amount, account_previous_balance, account_current_balance, account_version, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type CreateEntryParams struct {
	ID                     string             `json:"id"`
	AccountNo              string             `json:"account_no"`
	MovementID             string             `json:"movement_id"`
	Operation              string             `json:"operation"`
	CounterpartyAccountNo  pgtype.Text        `json:"counterparty_account_no"`
	Amount                 pgtype.Numeric     `json:"amount"`
	AccountPreviousBalance pgtype.Numeric     `json:"account_previous_balance"`
	AccountCurrentBalance  pgtype.Numeric     `json:"account_current_balance"`
	AccountVersion         int64              `json:"account_version"`
	CreatedAt              pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.Exec(ctx, createEntry,
		arg.ID,
		arg.AccountNo,
		arg.MovementID,
		arg.Operation,
		arg.CounterpartyAccountNo,
		arg.Amount,
		arg.AccountPreviousBalance,
		arg.AccountCurrentBalance,
		arg.AccountVersion,
		arg.CreatedAt,
	)
	return err
}

const getAccountBalanceAtTime = `-- name: GetAccountBalanceAtTime :one
SELECT COALESCE(SUM(amount), 0)::NUMERIC AS balance FROM entries
WHERE account_no = $1 AND created_at <= $2
`

type GetAccountBalanceAtTimeParams struct {
	AccountNo string             `json:"account_no"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) GetAccountBalanceAtTime(ctx context.Context, arg GetAccountBalanceAtTimeParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, getAccountBalanceAtTime, arg.AccountNo, arg.CreatedAt)
	var balance pgtype.Numeric
	err := row.Scan(&balance)
	return balance, err
}

const getEntriesByAccount = `-- name: GetEntriesByAccount :many
SELECT id, account_no, movement_id, operation, counterparty_account_no, amount, account_previous_balance, account_current_balance, account_version, created_at FROM entries
WHERE account_no = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type GetEntriesByAccountParams struct {
	AccountNo string `json:"account_no"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) GetEntriesByAccount(ctx context.Context, arg GetEntriesByAccountParams) ([]Entry, error) {
	rows, err := q.db.Query(ctx, getEntriesByAccount, arg.AccountNo, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.AccountNo,
			&i.MovementID,
			&i.Operation,
			&i.CounterpartyAccountNo,
			&i.Amount,
			&i.AccountPreviousBalance,
			&i.AccountCurrentBalance,
			&i.AccountVersion,
			&i.CreatedAt,
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

const getEntriesByMovement = `-- name: GetEntriesByMovement :many
SELECT id, account_no, movement_id, operation, counterparty_account_no, amount, account_previous_balance, account_current_balance, account_version, created_at FROM entries
WHERE movement_id = $1
ORDER BY amount
`

func (q *Queries) GetEntriesByMovement(ctx context.Context, movementID string) ([]Entry, error) {
	rows, err := q.db.Query(ctx, getEntriesByMovement, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.AccountNo,
			&i.MovementID,
			&i.Operation,
			&i.CounterpartyAccountNo,
			&i.Amount,
			&i.AccountPreviousBalance,
			&i.AccountCurrentBalance,
			&i.AccountVersion,
			&i.CreatedAt,
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
