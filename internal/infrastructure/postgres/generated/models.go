package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
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

type Entry struct {
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

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}
