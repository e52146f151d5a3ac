package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a custodial wallet owned by a single registered user.
// AccountNo is derived from the phone number at registration and never changes.
type Account struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	AccountNo    string
	Username     string
	PhoneNumber  string
	PasswordHash string
	FirstName    string
	LastName     string
	Balance      decimal.Decimal
	Version      int64
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// Snapshot returns a copy of the account with the given balance and the next version.
func (a *Account) Snapshot(balance decimal.Decimal, at time.Time) *Account {
	cp := *a
	cp.Balance = balance
	cp.Version = a.Version + 1
	cp.UpdatedAt = at
	return &cp
}
