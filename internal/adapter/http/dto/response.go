package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
)

// Envelope is the shape of every API response.
type Envelope struct {
	Successful bool   `json:"successful"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// Success builds a successful envelope.
func Success(message string, data any) Envelope {
	return Envelope{Successful: true, Message: message, Data: data}
}

// Failure builds a failed envelope.
func Failure(message string) Envelope {
	return Envelope{Successful: false, Message: message}
}

// Money renders an amount with two decimal places as a JSON number.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(domain.AmountDecimalPlaces))
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	AccountNo   string      `json:"AccountNo"`
	Username    string      `json:"Username"`
	Firstname   string      `json:"Firstname"`
	Lastname    string      `json:"Lastname"`
	PhoneNumber string      `json:"PhoneNumber"`
	Balance     json.Number `json:"Balance"`
	CreatedAt   time.Time   `json:"CreatedAt"`
}

// AccountFromDomain converts domain account to response. The password hash never leaves the service.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		AccountNo:   a.AccountNo,
		Username:    a.Username,
		Firstname:   a.FirstName,
		Lastname:    a.LastName,
		PhoneNumber: a.PhoneNumber,
		Balance:     Money(a.Balance),
		CreatedAt:   a.CreatedAt,
	}
}

// BalanceResponse is returned after a withdrawal.
type BalanceResponse struct {
	AccountNo string      `json:"AccountNo"`
	Balance   json.Number `json:"Balance"`
}

// BalanceFromDomain converts domain account to a balance view.
func BalanceFromDomain(a *domain.Account) *BalanceResponse {
	return &BalanceResponse{AccountNo: a.AccountNo, Balance: Money(a.Balance)}
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	AccountNo string `json:"AccountNo"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID                     string      `json:"id"`
	MovementID             string      `json:"movement_id"`
	Operation              string      `json:"operation"`
	CounterpartyAccountNo  string      `json:"counterparty_account_no,omitempty"`
	Amount                 json.Number `json:"amount"`
	AccountPreviousBalance json.Number `json:"account_previous_balance"`
	AccountCurrentBalance  json.Number `json:"account_current_balance"`
	AccountVersion         int64       `json:"account_version"`
	CreatedAt              time.Time   `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:                     e.ID,
		MovementID:             e.MovementID,
		Operation:              string(e.Operation),
		CounterpartyAccountNo:  e.CounterpartyAccountNo,
		Amount:                 Money(e.Amount),
		AccountPreviousBalance: Money(e.AccountPreviousBalance),
		AccountCurrentBalance:  Money(e.AccountCurrentBalance),
		AccountVersion:         e.AccountVersion,
		CreatedAt:              e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// EntriesResponse is a page of entries for one account.
type EntriesResponse struct {
	AccountNo string           `json:"AccountNo"`
	Entries   []*EntryResponse `json:"entries"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
}

// DiscrepancyResponse describes one account whose balance disagrees with its entries.
type DiscrepancyResponse struct {
	AccountNo         string      `json:"AccountNo"`
	RecordedBalance   json.Number `json:"recorded_balance"`
	CalculatedBalance json.Number `json:"calculated_balance"`
	Difference        json.Number `json:"difference"`
}

// DiscrepancyFromResult converts a single-account reconciliation result.
func DiscrepancyFromResult(r *usecase.ReconciliationResult) *DiscrepancyResponse {
	return &DiscrepancyResponse{
		AccountNo:         r.AccountNo,
		RecordedBalance:   Money(r.RecordedBalance),
		CalculatedBalance: Money(r.CalculatedBalance),
		Difference:        Money(r.Difference),
	}
}

// ReconciliationResponse is the ledger-wide reconciliation report.
type ReconciliationResponse struct {
	Consistent          bool                   `json:"consistent"`
	TotalBalance        json.Number            `json:"total_balance"`
	TotalEntries        json.Number            `json:"total_entries"`
	Discrepancies       []*DiscrepancyResponse `json:"discrepancies"`
	UnbalancedMovements []string               `json:"unbalanced_movements"`
	CheckedAt           time.Time              `json:"checked_at"`
}

// ReconciliationFromReport converts a reconciliation report to response.
func ReconciliationFromReport(r *usecase.ReconciliationReport) *ReconciliationResponse {
	discrepancies := make([]*DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = DiscrepancyFromResult(d)
	}

	unbalanced := r.UnbalancedMovements
	if unbalanced == nil {
		unbalanced = []string{}
	}

	return &ReconciliationResponse{
		Consistent:          r.LedgerConsistent,
		TotalBalance:        Money(r.TotalBalance),
		TotalEntries:        Money(r.TotalEntries),
		Discrepancies:       discrepancies,
		UnbalancedMovements: unbalanced,
		CheckedAt:           r.CheckedAt,
	}
}
