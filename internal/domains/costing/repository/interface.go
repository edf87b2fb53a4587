package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/costing/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface is the cost-layer store. All writes run on the
// caller's transaction.
type RepositoryInterface interface {
	// CreateLayer appends a layer, assigning the next sequence for the
	// (item, location, day).
	CreateLayer(ctx context.Context, db database.DBTX, params model.CreateLayerParams) (*model.CostLayer, error)

	// CreateReceiptLayerOnce guarantees exactly one layer per receipt
	// document line; a conflicting insert returns the existing layer.
	CreateReceiptLayerOnce(ctx context.Context, db database.DBTX, params model.CreateLayerParams) (*model.CostLayer, error)

	// AvailableLayers returns unexhausted, unvoided layers in FIFO order,
	// locked FOR UPDATE.
	AvailableLayers(ctx context.Context, db database.DBTX, tenantID, itemID, locationID uuid.UUID, lotID *uuid.UUID) ([]model.CostLayer, error)

	// ApplyDraw updates a layer's remaining quantity and writes the
	// consumption ledger row.
	ApplyDraw(ctx context.Context, db database.DBTX, draw model.Draw, consumption model.Consumption) error

	// DeleteLayer removes a never-consumed layer (remaining == original).
	DeleteLayer(ctx context.Context, db database.DBTX, tenantID, layerID uuid.UUID) error
}
