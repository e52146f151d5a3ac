package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement groups the entries written by a single fund, withdraw or transfer.
// Fund and withdraw touch one account; ToAccountNo is empty for them.
type Movement struct {
	CreatedAt     time.Time
	ID            string
	Kind          Operation
	FromAccountNo string
	ToAccountNo   string
	Amount        decimal.Decimal
}

// Entries returns the ledger entries for the movement given the pre- and post-operation
// snapshots of each touched account, keyed by account number.
func (m *Movement) Entries(before, after map[string]*Account, newID func() string) []*Entry {
	switch m.Kind {
	case OperationFund:
		return []*Entry{m.entry(newID(), OperationFund, m.FromAccountNo, "", m.Amount, before, after)}
	case OperationWithdraw:
		return []*Entry{m.entry(newID(), OperationWithdraw, m.FromAccountNo, "", m.Amount.Neg(), before, after)}
	case OperationTransfer:
		return []*Entry{
			m.entry(newID(), OperationTransferOut, m.FromAccountNo, m.ToAccountNo, m.Amount.Neg(), before, after),
			m.entry(newID(), OperationTransferIn, m.ToAccountNo, m.FromAccountNo, m.Amount, before, after),
		}
	}
	return nil
}

func (m *Movement) entry(
	id string,
	op Operation,
	accountNo, counterparty string,
	amount decimal.Decimal,
	before, after map[string]*Account,
) *Entry {
	return &Entry{
		ID:                     id,
		AccountNo:              accountNo,
		MovementID:             m.ID,
		Operation:              op,
		CounterpartyAccountNo:  counterparty,
		Amount:                 amount,
		AccountPreviousBalance: before[accountNo].Balance,
		AccountCurrentBalance:  after[accountNo].Balance,
		AccountVersion:         after[accountNo].Version,
		CreatedAt:              m.CreatedAt,
	}
}
