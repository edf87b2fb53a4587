package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fulfillment-backend/internal/domains/masterdata/model"
	"fulfillment-backend/pkg/database"
)

type postgresRepository struct{}

// NewRepository creates a PostgreSQL master-data repository. Methods take a
// DBTX so lookups run on the caller's transaction snapshot.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

func (r *postgresRepository) GetItem(ctx context.Context, db database.DBTX, tenantID, itemID uuid.UUID) (*model.Item, error) {
	query := `
		SELECT id, tenant_id, sku, canonical_uom
		FROM items
		WHERE tenant_id = $1 AND id = $2
	`

	var item model.Item
	err := db.QueryRow(ctx, query, tenantID, itemID).Scan(
		&item.ID,
		&item.TenantID,
		&item.SKU,
		&item.CanonicalUom,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewItemNotFoundError(itemID)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

func (r *postgresRepository) GetItemCanonicalUom(ctx context.Context, db database.DBTX, tenantID, itemID uuid.UUID) (string, error) {
	item, err := r.GetItem(ctx, db, tenantID, itemID)
	if err != nil {
		return "", err
	}
	return item.CanonicalUom, nil
}

func (r *postgresRepository) GetLocation(ctx context.Context, db database.DBTX, tenantID, locationID uuid.UUID) (*model.Location, error) {
	query := `
		SELECT id, tenant_id, warehouse_id, code, sellable
		FROM locations
		WHERE tenant_id = $1 AND id = $2
	`

	var loc model.Location
	err := db.QueryRow(ctx, query, tenantID, locationID).Scan(
		&loc.ID,
		&loc.TenantID,
		&loc.WarehouseID,
		&loc.Code,
		&loc.Sellable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewLocationNotFoundError(locationID)
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &loc, nil
}

func (r *postgresRepository) GetSalesOrderLine(ctx context.Context, db database.DBTX, tenantID, lineID uuid.UUID) (*model.SalesOrderLine, error) {
	query := `
		SELECT sol.id, sol.tenant_id, sol.sales_order_id, sol.item_id, so.warehouse_id
		FROM sales_order_lines sol
		JOIN sales_orders so ON so.id = sol.sales_order_id
		WHERE sol.tenant_id = $1 AND sol.id = $2
	`

	var line model.SalesOrderLine
	err := db.QueryRow(ctx, query, tenantID, lineID).Scan(
		&line.ID,
		&line.TenantID,
		&line.SalesOrderID,
		&line.ItemID,
		&line.WarehouseID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewSalesOrderLineNotFoundError(lineID)
		}
		return nil, fmt.Errorf("failed to get sales order line: %w", err)
	}

	return &line, nil
}
