package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/outbox/model"
	"fulfillment-backend/pkg/database"
)

type postgresRepository struct{}

// NewRepository creates a PostgreSQL outbox repository.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

func (r *postgresRepository) Enqueue(ctx context.Context, db database.DBTX, tenantID uuid.UUID, aggregateType string, aggregateID uuid.UUID, eventType string, payload any) (*model.Event, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	event := &model.Event{
		ID:            uuid.New(),
		TenantID:      tenantID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		Status:        model.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	query := `
		INSERT INTO outbox_events (
			id, tenant_id, aggregate_type, aggregate_id, event_type,
			payload, status, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
	`

	if _, err := db.Exec(ctx, query,
		event.ID, event.TenantID, event.AggregateType, event.AggregateID,
		event.EventType, event.Payload, event.Status, event.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to enqueue outbox event: %w", err)
	}

	return event, nil
}

func (r *postgresRepository) ClaimPending(ctx context.Context, db database.DBTX, limit int) ([]model.Event, error) {
	query := `
		SELECT id, tenant_id, aggregate_type, aggregate_id, event_type,
		       payload, status, attempts, created_at, published_at
		FROM outbox_events
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.AggregateType, &e.AggregateID, &e.EventType,
			&e.Payload, &e.Status, &e.Attempts, &e.CreatedAt, &e.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox events: %w", err)
	}

	return events, nil
}

func (r *postgresRepository) MarkPublished(ctx context.Context, db database.DBTX, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = 'PUBLISHED', published_at = NOW(), attempts = attempts + 1
		WHERE id = $1
	`
	if _, err := db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark outbox event published: %w", err)
	}
	return nil
}

func (r *postgresRepository) MarkFailed(ctx context.Context, db database.DBTX, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = 'FAILED', attempts = attempts + 1
		WHERE id = $1
	`
	if _, err := db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	return nil
}
