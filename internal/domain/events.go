package domain

import "time"

// Event types
const (
	EventTypeFundsCredited    = "funds.credited"
	EventTypeFundsDebited     = "funds.debited"
	EventTypeFundsTransferred = "funds.transferred"
	EventTypeAccountCreated   = "account.created"
)

// Aggregate types
const (
	AggregateTypeMovement = "movement"
	AggregateTypeAccount  = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewMovementEvent builds the outbox event for a committed movement.
func NewMovementEvent(id string, m *Movement, after map[string]*Account) *OutboxEvent {
	eventType := EventTypeFundsCredited
	switch m.Kind {
	case OperationWithdraw:
		eventType = EventTypeFundsDebited
	case OperationTransfer:
		eventType = EventTypeFundsTransferred
	}

	payload := map[string]any{
		"movement_id":     m.ID,
		"operation":       string(m.Kind),
		"from_account_no": m.FromAccountNo,
		"amount":          m.Amount.StringFixed(AmountDecimalPlaces),
		"event_at":        m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if m.ToAccountNo != "" {
		payload["to_account_no"] = m.ToAccountNo
	}
	if acc, ok := after[m.FromAccountNo]; ok {
		payload["from_balance"] = acc.Balance.StringFixed(AmountDecimalPlaces)
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   m.ID,
		AggregateType: AggregateTypeMovement,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     m.CreatedAt,
	}
}

// NewAccountCreatedEvent builds the outbox event for a registration.
func NewAccountCreatedEvent(id string, a *Account) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   a.AccountNo,
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeAccountCreated,
		Payload: map[string]any{
			"account_no": a.AccountNo,
			"username":   a.Username,
		},
		CreatedAt: a.CreatedAt,
	}
}
