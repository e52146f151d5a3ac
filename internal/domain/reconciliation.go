package domain

import "github.com/shopspring/decimal"

// BalanceDrift describes an account whose stored balance differs from the sum of its entries.
type BalanceDrift struct {
	AccountNo         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
}

// Difference returns recorded minus calculated balance.
func (d *BalanceDrift) Difference() decimal.Decimal {
	return d.RecordedBalance.Sub(d.CalculatedBalance)
}
