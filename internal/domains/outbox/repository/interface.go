package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/outbox/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface is the transactional outbox store.
type RepositoryInterface interface {
	// Enqueue inserts a PENDING event on the caller's transaction so the
	// emission commits or rolls back with the state change.
	Enqueue(ctx context.Context, db database.DBTX, tenantID uuid.UUID, aggregateType string, aggregateID uuid.UUID, eventType string, payload any) (*model.Event, error)

	// ClaimPending locks up to limit PENDING events FOR UPDATE SKIP LOCKED
	// so concurrent publishers never double-claim.
	ClaimPending(ctx context.Context, db database.DBTX, limit int) ([]model.Event, error)

	// MarkPublished finalizes a delivered event.
	MarkPublished(ctx context.Context, db database.DBTX, id uuid.UUID) error

	// MarkFailed records a delivery failure, bumping the attempt counter.
	MarkFailed(ctx context.Context, db database.DBTX, id uuid.UUID) error
}

// marshalPayload normalizes any payload value into raw JSON.
func marshalPayload(payload any) (json.RawMessage, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
