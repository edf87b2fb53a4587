package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fulfillment-backend/internal/domains/balance/model"
	"fulfillment-backend/pkg/database"
)

type postgresRepository struct{}

// NewRepository creates a PostgreSQL balance repository.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

const balanceColumns = `tenant_id, item_id, location_id, uom, on_hand, reserved, allocated, updated_at`

func (r *postgresRepository) EnsureRow(ctx context.Context, db database.DBTX, key model.Key) error {
	query := `
		INSERT INTO inventory_balance (tenant_id, item_id, location_id, uom, on_hand, reserved, allocated, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, NOW())
		ON CONFLICT (tenant_id, item_id, location_id, uom) DO NOTHING
	`

	if _, err := db.Exec(ctx, query, key.TenantID, key.ItemID, key.LocationID, key.Uom); err != nil {
		return fmt.Errorf("failed to ensure balance row: %w", err)
	}
	return nil
}

func (r *postgresRepository) LockAndRead(ctx context.Context, db database.DBTX, key model.Key) (*model.Balance, error) {
	return r.read(ctx, db, key, true)
}

func (r *postgresRepository) Read(ctx context.Context, db database.DBTX, key model.Key) (*model.Balance, error) {
	return r.read(ctx, db, key, false)
}

func (r *postgresRepository) read(ctx context.Context, db database.DBTX, key model.Key, lock bool) (*model.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM inventory_balance
		WHERE tenant_id = $1 AND item_id = $2 AND location_id = $3 AND uom = $4
	`
	if lock {
		query += " FOR UPDATE"
	}

	var b model.Balance
	err := db.QueryRow(ctx, query, key.TenantID, key.ItemID, key.LocationID, key.Uom).Scan(
		&b.TenantID,
		&b.ItemID,
		&b.LocationID,
		&b.Uom,
		&b.OnHand,
		&b.Reserved,
		&b.Allocated,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: item=%s location=%s uom=%s",
				model.ErrBalanceRowMissing, key.ItemID, key.LocationID, key.Uom)
		}
		return nil, fmt.Errorf("failed to read balance row: %w", err)
	}

	return &b, nil
}

func (r *postgresRepository) ApplyDelta(ctx context.Context, db database.DBTX, key model.Key, delta model.Delta) (*model.Balance, error) {
	if delta.IsNoop() {
		return r.Read(ctx, db, key)
	}

	current, err := r.LockAndRead(ctx, db, key)
	if err != nil {
		return nil, err
	}

	next, err := current.Apply(delta)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE inventory_balance
		SET on_hand = $5, reserved = $6, allocated = $7, updated_at = $8
		WHERE tenant_id = $1 AND item_id = $2 AND location_id = $3 AND uom = $4
	`

	tag, err := db.Exec(ctx, query,
		key.TenantID, key.ItemID, key.LocationID, key.Uom,
		next.OnHand, next.Reserved, next.Allocated, next.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to apply balance delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: item=%s location=%s uom=%s",
			model.ErrBalanceRowMissing, key.ItemID, key.LocationID, key.Uom)
	}

	return &next, nil
}

func (r *postgresRepository) ListByItemLocation(ctx context.Context, db database.DBTX, tenantID, itemID, locationID uuid.UUID) ([]model.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM inventory_balance
		WHERE tenant_id = $1 AND item_id = $2 AND location_id = $3
		ORDER BY uom ASC
	`

	rows, err := db.Query(ctx, query, tenantID, itemID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance rows: %w", err)
	}
	defer rows.Close()

	var balances []model.Balance
	for rows.Next() {
		var b model.Balance
		if err := rows.Scan(
			&b.TenantID, &b.ItemID, &b.LocationID, &b.Uom,
			&b.OnHand, &b.Reserved, &b.Allocated, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance rows: %w", err)
	}

	return balances, nil
}
