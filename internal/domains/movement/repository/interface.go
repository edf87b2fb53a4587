package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/movement/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface is the movement store.
type RepositoryInterface interface {
	// CreateMovement inserts the header. A conflict on the tenant's
	// idempotency key returns the existing movement (with lines) and
	// found=true so posting can finish by linking.
	CreateMovement(ctx context.Context, db database.DBTX, m *model.Movement) (existing *model.Movement, found bool, err error)

	// InsertLine appends one movement line.
	InsertLine(ctx context.Context, db database.DBTX, line *model.Line) error

	// GetByID loads a movement and its lines.
	GetByID(ctx context.Context, db database.DBTX, tenantID, movementID uuid.UUID) (*model.Movement, error)
}
