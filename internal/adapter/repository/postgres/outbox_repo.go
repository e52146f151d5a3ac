package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/infrastructure/postgres/generated"
	"github.com/iho/democredit/internal/usecase"
)

// OutboxRepository stores ledger events next to the balance changes that
// produced them; the event publisher relays them afterwards.
type OutboxRepository struct {
	queries *generated.Queries
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(db)}
}

// Create inserts the event on the caller's transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.EventType, err)
	}

	err = generated.New(tx.(*Tx).PgxTx()).CreateOutboxEvent(ctx, generated.CreateOutboxEventParams{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	})
	if err != nil {
		return fmt.Errorf("insert outbox event %s: %w", event.ID, err)
	}
	return nil
}

// GetUnpublished returns up to limit pending events in creation order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetUnpublishedEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("load pending outbox events: %w", err)
	}

	events := make([]*domain.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		event, err := outboxEventFromRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// MarkPublished flags the event as relayed.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	err := r.queries.MarkEventPublished(ctx, generated.MarkEventPublishedParams{
		ID:          id,
		PublishedAt: timeToPgTimestamptz(publishedAt),
	})
	if err != nil {
		return fmt.Errorf("mark outbox event %s published: %w", id, err)
	}
	return nil
}

// DeletePublished drops relayed events published before the cutoff and
// reports how many went.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	n, err := r.queries.DeletePublishedEvents(ctx, timeToPgTimestamptz(before))
	if err != nil {
		return 0, fmt.Errorf("purge published outbox events: %w", err)
	}
	return n, nil
}

func outboxEventFromRow(row generated.OutboxEvent) (*domain.OutboxEvent, error) {
	event := &domain.OutboxEvent{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		CreatedAt:     row.CreatedAt.Time,
		Published:     row.Published,
	}
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &event.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of outbox event %s: %w", row.ID, err)
		}
	}
	if row.PublishedAt.Valid {
		t := row.PublishedAt.Time
		event.PublishedAt = &t
	}
	return event, nil
}
