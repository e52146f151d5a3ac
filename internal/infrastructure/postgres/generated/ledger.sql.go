package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const checkLedgerConsistency = `-- name: CheckLedgerConsistency :one
SELECT
    (SELECT COALESCE(SUM(balance), 0) FROM accounts)::NUMERIC AS total_account_balance,
    (SELECT COALESCE(SUM(amount), 0) FROM entries)::NUMERIC AS total_entry_amount
`

type CheckLedgerConsistencyRow struct {
	TotalAccountBalance pgtype.Numeric `json:"total_account_balance"`
	TotalEntryAmount    pgtype.Numeric `json:"total_entry_amount"`
}

func (q *Queries) CheckLedgerConsistency(ctx context.Context) (CheckLedgerConsistencyRow, error) {
	row := q.db.QueryRow(ctx, checkLedgerConsistency)
	var i CheckLedgerConsistencyRow
	err := row.Scan(&i.TotalAccountBalance, &i.TotalEntryAmount)
	return i, err
}

const findBalanceDrift = `-- name: FindBalanceDrift :many
SELECT a.account_no, a.balance, COALESCE(SUM(e.amount), 0)::NUMERIC AS calculated_balance
FROM accounts a
LEFT JOIN entries e ON e.account_no = a.account_no
GROUP BY a.account_no, a.balance
HAVING a.balance <> COALESCE(SUM(e.amount), 0)
ORDER BY a.account_no
LIMIT $1
`

type FindBalanceDriftRow struct {
	AccountNo         string         `json:"account_no"`
	Balance           pgtype.Numeric `json:"balance"`
	CalculatedBalance pgtype.Numeric `json:"calculated_balance"`
}

func (q *Queries) FindBalanceDrift(ctx context.Context, limit int32) ([]FindBalanceDriftRow, error) {
	rows, err := q.db.Query(ctx, findBalanceDrift, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FindBalanceDriftRow
	for rows.Next() {
		var i FindBalanceDriftRow
		if err := rows.Scan(&i.AccountNo, &i.Balance, &i.CalculatedBalance); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findUnbalancedMovements = `-- name: FindUnbalancedMovements :many
SELECT movement_id FROM entries
WHERE operation IN ('transfer_out', 'transfer_in')
GROUP BY movement_id
HAVING SUM(amount) <> 0 OR COUNT(*) <> 2
ORDER BY movement_id
LIMIT $1
`

func (q *Queries) FindUnbalancedMovements(ctx context.Context, limit int32) ([]string, error) {
	rows, err := q.db.Query(ctx, findUnbalancedMovements, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var movementID string
		if err := rows.Scan(&movementID); err != nil {
			return nil, err
		}
		items = append(items, movementID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
