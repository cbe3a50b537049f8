package postgres

import (
	"context"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
)

type outboxRepository struct {
	db DBTX
}

func NewOutboxRepository(db DBTX) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Append(ctx context.Context, e *domain.OutboxEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()
	query := `INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, event_type, payload, created_at) 
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("INSERT", "outbox_events", "eventType", e.EventType, "aggregateID", e.AggregateID)
	err := r.db.QueryRowContext(ctx, query, e.EventID, e.AggregateType, e.AggregateID, e.EventType, []byte(e.Payload), e.CreatedAt).Scan(&e.ID)
	logger.DatabaseResult("INSERT", 1, err, "outboxID", e.ID)
	return err
}

func (r *outboxRepository) ListUnpublished(ctx context.Context, limit int32) ([]domain.OutboxEvent, error) {
	query := `SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, created_at, published_at
	          FROM outbox_events WHERE published_at IS NULL ORDER BY id LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, err
		}
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET published_at = $1 WHERE id = $2`, at, id)
	return err
}
