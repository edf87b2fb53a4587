package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/balance/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface is the balance store. Mutations happen only through
// ApplyDelta under the row lock of the caller's transaction.
type RepositoryInterface interface {
	// EnsureRow idempotently inserts a zero-counter row.
	EnsureRow(ctx context.Context, db database.DBTX, key model.Key) error

	// LockAndRead takes the row lock (FOR UPDATE) and returns the counters.
	LockAndRead(ctx context.Context, db database.DBTX, key model.Key) (*model.Balance, error)

	// Read returns the counters without locking.
	Read(ctx context.Context, db database.DBTX, key model.Key) (*model.Balance, error)

	// ApplyDelta locks, validates, clamps and writes the next counters.
	// No-op when every component is within epsilon.
	ApplyDelta(ctx context.Context, db database.DBTX, key model.Key, delta model.Delta) (*model.Balance, error)

	// ListByItemLocation returns every uom row for one (tenant, item,
	// location).
	ListByItemLocation(ctx context.Context, db database.DBTX, tenantID, itemID, locationID uuid.UUID) ([]model.Balance, error)
}
