package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/pkg/database"
)

const reservationColumns = `
	id, tenant_id, warehouse_id, demand_type, demand_id, item_id, location_id,
	canonical_uom, state, quantity_reserved, quantity_fulfilled,
	reserved_at, allocated_at, fulfilled_at, canceled_at, expired_at,
	expires_at, idempotency_key, cancel_reason, created_at, updated_at
`

type postgresRepository struct{}

// NewRepository creates a PostgreSQL reservation repository.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

func (r *postgresRepository) Insert(ctx context.Context, db database.DBTX, res *model.Reservation) (bool, error) {
	query := `
		INSERT INTO inventory_reservations (
			id, tenant_id, warehouse_id, demand_type, demand_id, item_id, location_id,
			canonical_uom, state, quantity_reserved, quantity_fulfilled,
			reserved_at, expires_at, idempotency_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (tenant_id, warehouse_id, demand_type, demand_id, item_id, location_id, canonical_uom)
			WHERE state IN ('RESERVED', 'ALLOCATED')
		DO NOTHING
	`

	tag, err := db.Exec(ctx, query,
		res.ID, res.TenantID, res.WarehouseID, res.DemandType, res.DemandID,
		res.ItemID, res.LocationID, res.CanonicalUom, res.State,
		res.QuantityReserved, res.QuantityFulfilled,
		res.ReservedAt, res.ExpiresAt, res.IdempotencyKey,
		res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "inventory_reservations_tenant_idempotency_key_idx") {
			// Same key raced in from another transaction; the caller
			// resolves it by key.
			return false, nil
		}
		return false, fmt.Errorf("failed to insert reservation: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, db database.DBTX, tenantID, id uuid.UUID) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE tenant_id = $1 AND id = $2`

	return r.scanOne(db.QueryRow(ctx, query, tenantID, id))
}

func (r *postgresRepository) LockByID(ctx context.Context, db database.DBTX, tenantID, id uuid.UUID) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`

	return r.scanOne(db.QueryRow(ctx, query, tenantID, id))
}

func (r *postgresRepository) LockByIDs(ctx context.Context, db database.DBTX, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Reservation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE tenant_id = $1 AND id = ANY($2)
		ORDER BY id ASC
		FOR UPDATE`

	rows, err := db.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock reservations: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

func (r *postgresRepository) FindByIdempotencyKey(ctx context.Context, db database.DBTX, tenantID uuid.UUID, key string) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE tenant_id = $1 AND idempotency_key = $2`

	return r.scanOne(db.QueryRow(ctx, query, tenantID, key))
}

func (r *postgresRepository) FindActiveByDemand(ctx context.Context, db database.DBTX, tenantID uuid.UUID, tuple model.DemandTuple, lock bool) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE tenant_id = $1 AND warehouse_id = $2 AND demand_type = $3 AND demand_id = $4
		  AND item_id = $5 AND location_id = $6 AND canonical_uom = $7
		  AND state IN ('RESERVED', 'ALLOCATED')`
	if lock {
		query += ` FOR UPDATE`
	}

	return r.scanOne(db.QueryRow(ctx, query,
		tenantID, tuple.WarehouseID, tuple.DemandType, tuple.DemandID,
		tuple.ItemID, tuple.LocationID, tuple.CanonicalUom,
	))
}

func (r *postgresRepository) Update(ctx context.Context, db database.DBTX, res *model.Reservation) error {
	query := `
		UPDATE inventory_reservations
		SET state = $3, quantity_reserved = $4, quantity_fulfilled = $5,
		    allocated_at = $6, fulfilled_at = $7, canceled_at = $8, expired_at = $9,
		    cancel_reason = $10, updated_at = $11
		WHERE tenant_id = $1 AND id = $2
	`

	tag, err := db.Exec(ctx, query,
		res.TenantID, res.ID, res.State, res.QuantityReserved, res.QuantityFulfilled,
		res.AllocatedAt, res.FulfilledAt, res.CanceledAt, res.ExpiredAt,
		res.CancelReason, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *postgresRepository) InsertEvent(ctx context.Context, db database.DBTX, ev *model.Event) error {
	query := `
		INSERT INTO reservation_events (id, reservation_id, tenant_id, event_type, delta_reserved, delta_allocated, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := db.Exec(ctx, query,
		ev.ID, ev.ReservationID, ev.TenantID, ev.EventType,
		ev.DeltaReserved, ev.DeltaAllocated, ev.OccurredAt,
	); err != nil {
		return fmt.Errorf("failed to insert reservation event: %w", err)
	}

	return nil
}

func (r *postgresRepository) UpsertBackorder(ctx context.Context, db database.DBTX, b *model.Backorder) error {
	query := `
		INSERT INTO inventory_backorders (
			id, tenant_id, demand_type, demand_id, item_id, location_id, uom,
			quantity_backordered, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, demand_type, demand_id, item_id, location_id, uom)
		DO UPDATE SET
			quantity_backordered = inventory_backorders.quantity_backordered + EXCLUDED.quantity_backordered,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := db.Exec(ctx, query,
		b.ID, b.TenantID, b.DemandType, b.DemandID, b.ItemID, b.LocationID,
		b.Uom, b.QuantityBackordered, b.CreatedAt, b.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert backorder: %w", err)
	}

	return nil
}

func (r *postgresRepository) ListBackordersByDemand(ctx context.Context, db database.DBTX, tenantID uuid.UUID, demandType model.DemandType, demandID uuid.UUID) ([]model.Backorder, error) {
	query := `
		SELECT id, tenant_id, demand_type, demand_id, item_id, location_id, uom,
			quantity_backordered, created_at, updated_at
		FROM inventory_backorders
		WHERE tenant_id = $1 AND demand_type = $2 AND demand_id = $3
		ORDER BY created_at ASC
	`

	rows, err := db.Query(ctx, query, tenantID, demandType, demandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backorders: %w", err)
	}
	defer rows.Close()

	var out []model.Backorder
	for rows.Next() {
		var b model.Backorder
		if err := rows.Scan(
			&b.ID, &b.TenantID, &b.DemandType, &b.DemandID, &b.ItemID,
			&b.LocationID, &b.Uom, &b.QuantityBackordered, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan backorder: %w", err)
		}
		out = append(out, b)
	}

	return out, rows.Err()
}

func (r *postgresRepository) ListExpireEligible(ctx context.Context, db database.DBTX, now time.Time, limit int) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE state = 'RESERVED' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`

	rows, err := db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expirable reservations: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

func (r *postgresRepository) scanOne(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID, &res.TenantID, &res.WarehouseID, &res.DemandType, &res.DemandID,
		&res.ItemID, &res.LocationID, &res.CanonicalUom, &res.State,
		&res.QuantityReserved, &res.QuantityFulfilled,
		&res.ReservedAt, &res.AllocatedAt, &res.FulfilledAt, &res.CanceledAt, &res.ExpiredAt,
		&res.ExpiresAt, &res.IdempotencyKey, &res.CancelReason,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}

	return &res, nil
}

func (r *postgresRepository) scanMany(rows pgx.Rows) ([]model.Reservation, error) {
	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(
			&res.ID, &res.TenantID, &res.WarehouseID, &res.DemandType, &res.DemandID,
			&res.ItemID, &res.LocationID, &res.CanonicalUom, &res.State,
			&res.QuantityReserved, &res.QuantityFulfilled,
			&res.ReservedAt, &res.AllocatedAt, &res.FulfilledAt, &res.CanceledAt, &res.ExpiredAt,
			&res.ExpiresAt, &res.IdempotencyKey, &res.CancelReason,
			&res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	return out, nil
}
