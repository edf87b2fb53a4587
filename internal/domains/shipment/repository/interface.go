package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/shipment/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface is the shipment store. The core only posts; creation
// and cancellation live with order management.
type RepositoryInterface interface {
	// GetByID loads a shipment without locking.
	GetByID(ctx context.Context, db database.DBTX, tenantID, id uuid.UUID) (*model.Shipment, error)

	// LockByID loads a shipment FOR UPDATE.
	LockByID(ctx context.Context, db database.DBTX, tenantID, id uuid.UUID) (*model.Shipment, error)

	// LockLines locks the shipment's lines FOR UPDATE in creation order.
	LockLines(ctx context.Context, db database.DBTX, shipmentID uuid.UUID) ([]model.Line, error)

	// ListLines reads lines without locking.
	ListLines(ctx context.Context, db database.DBTX, shipmentID uuid.UUID) ([]model.Line, error)

	// MarkPosted finalizes the shipment and links its movement.
	MarkPosted(ctx context.Context, db database.DBTX, s *model.Shipment) error
}
