package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fulfillment-backend/internal/domains/shipment/model"
	"fulfillment-backend/pkg/database"
)

const shipmentColumns = `
	id, tenant_id, sales_order_id, ship_from_location_id, status,
	posted_at, posted_idempotency_key, movement_id, created_at, updated_at
`

type postgresRepository struct{}

// NewRepository creates a PostgreSQL shipment repository.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

func (r *postgresRepository) GetByID(ctx context.Context, db database.DBTX, tenantID, id uuid.UUID) (*model.Shipment, error) {
	query := `SELECT ` + shipmentColumns + `
		FROM shipments
		WHERE tenant_id = $1 AND id = $2`

	return r.scanOne(db.QueryRow(ctx, query, tenantID, id))
}

func (r *postgresRepository) LockByID(ctx context.Context, db database.DBTX, tenantID, id uuid.UUID) (*model.Shipment, error) {
	query := `SELECT ` + shipmentColumns + `
		FROM shipments
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`

	return r.scanOne(db.QueryRow(ctx, query, tenantID, id))
}

func (r *postgresRepository) LockLines(ctx context.Context, db database.DBTX, shipmentID uuid.UUID) ([]model.Line, error) {
	query := `
		SELECT id, shipment_id, sales_order_line_id, item_id, quantity_shipped, uom, created_at
		FROM shipment_lines
		WHERE shipment_id = $1
		ORDER BY created_at ASC, id ASC
		FOR UPDATE
	`

	return r.queryLines(ctx, db, query, shipmentID)
}

func (r *postgresRepository) ListLines(ctx context.Context, db database.DBTX, shipmentID uuid.UUID) ([]model.Line, error) {
	query := `
		SELECT id, shipment_id, sales_order_line_id, item_id, quantity_shipped, uom, created_at
		FROM shipment_lines
		WHERE shipment_id = $1
		ORDER BY created_at ASC, id ASC
	`

	return r.queryLines(ctx, db, query, shipmentID)
}

func (r *postgresRepository) MarkPosted(ctx context.Context, db database.DBTX, s *model.Shipment) error {
	query := `
		UPDATE shipments
		SET status = $3, posted_at = $4, posted_idempotency_key = $5, movement_id = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2
	`

	tag, err := db.Exec(ctx, query,
		s.TenantID, s.ID, s.Status, s.PostedAt, s.PostedIdempotencyKey, s.MovementID, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark shipment posted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrShipmentNotFound
	}

	return nil
}

func (r *postgresRepository) queryLines(ctx context.Context, db database.DBTX, query string, shipmentID uuid.UUID) ([]model.Line, error) {
	rows, err := db.Query(ctx, query, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipment lines: %w", err)
	}
	defer rows.Close()

	var out []model.Line
	for rows.Next() {
		var l model.Line
		if err := rows.Scan(
			&l.ID, &l.ShipmentID, &l.SalesOrderLineID, &l.ItemID,
			&l.QuantityShipped, &l.Uom, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shipment line: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shipment lines: %w", err)
	}

	return out, nil
}

func (r *postgresRepository) scanOne(row pgx.Row) (*model.Shipment, error) {
	var s model.Shipment
	err := row.Scan(
		&s.ID, &s.TenantID, &s.SalesOrderID, &s.ShipFromLocationID, &s.Status,
		&s.PostedAt, &s.PostedIdempotencyKey, &s.MovementID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("failed to scan shipment: %w", err)
	}

	return &s, nil
}
