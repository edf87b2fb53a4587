package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/masterdata/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface exposes the master-data lookups the core consumes.
// Master-data CRUD lives outside this service; the core only reads.
type RepositoryInterface interface {
	GetItem(ctx context.Context, db database.DBTX, tenantID, itemID uuid.UUID) (*model.Item, error)
	GetItemCanonicalUom(ctx context.Context, db database.DBTX, tenantID, itemID uuid.UUID) (string, error)
	GetLocation(ctx context.Context, db database.DBTX, tenantID, locationID uuid.UUID) (*model.Location, error)
	GetSalesOrderLine(ctx context.Context, db database.DBTX, tenantID, lineID uuid.UUID) (*model.SalesOrderLine, error)
}
