package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operation names an engine operation. Transfer movements produce one
// transfer_out and one transfer_in entry.
type Operation string

const (
	OperationFund        Operation = "fund"
	OperationWithdraw    Operation = "withdraw"
	OperationTransfer    Operation = "transfer"
	OperationTransferOut Operation = "transfer_out"
	OperationTransferIn  Operation = "transfer_in"
)

// Entry is an immutable record of one balance change on one account.
// Amount is signed: credits are positive, debits negative.
type Entry struct {
	CreatedAt              time.Time
	ID                     string
	AccountNo              string
	MovementID             string
	Operation              Operation
	CounterpartyAccountNo  string
	Amount                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
}
