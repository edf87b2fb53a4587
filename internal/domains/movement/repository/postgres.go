package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fulfillment-backend/internal/domains/movement/model"
	"fulfillment-backend/pkg/database"
)

type postgresRepository struct{}

// NewRepository creates a PostgreSQL movement repository.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

func (r *postgresRepository) CreateMovement(ctx context.Context, db database.DBTX, m *model.Movement) (*model.Movement, bool, error) {
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal movement metadata: %w", err)
	}

	insert := `
		INSERT INTO inventory_movements (
			id, tenant_id, movement_type, status, external_ref,
			source_type, source_id, idempotency_key, occurred_at, posted_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tenant_id, idempotency_key) WHERE idempotency_key IS NOT NULL
		DO NOTHING
	`

	tag, err := db.Exec(ctx, insert,
		m.ID, m.TenantID, m.MovementType, m.Status, m.ExternalRef,
		m.SourceType, m.SourceID, m.IdempotencyKey, m.OccurredAt, m.PostedAt, metadata,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "inventory_movements_tenant_external_ref_key") {
			return nil, false, model.NewDuplicateExternalRefError(m.ExternalRef)
		}
		return nil, false, fmt.Errorf("failed to insert movement: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil, false, nil
	}

	// Conflict on the idempotency key: the movement already exists from a
	// previous execution of the same request.
	if m.IdempotencyKey == nil {
		return nil, false, fmt.Errorf("movement insert conflicted without idempotency key")
	}

	existing, err := r.getByIdempotencyKey(ctx, db, m.TenantID, *m.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	return existing, true, nil
}

func (r *postgresRepository) getByIdempotencyKey(ctx context.Context, db database.DBTX, tenantID uuid.UUID, key string) (*model.Movement, error) {
	query := `
		SELECT id FROM inventory_movements
		WHERE tenant_id = $1 AND idempotency_key = $2
	`

	var id uuid.UUID
	if err := db.QueryRow(ctx, query, tenantID, key).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMovementNotFound
		}
		return nil, fmt.Errorf("failed to resolve movement by idempotency key: %w", err)
	}

	return r.GetByID(ctx, db, tenantID, id)
}

func (r *postgresRepository) InsertLine(ctx context.Context, db database.DBTX, line *model.Line) error {
	query := `
		INSERT INTO inventory_movement_lines (
			id, movement_id, item_id, location_id,
			quantity_delta, uom,
			quantity_delta_entered, uom_entered,
			quantity_delta_canonical, canonical_uom, uom_dimension,
			unit_cost, extended_cost, reason_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	if _, err := db.Exec(ctx, query,
		line.ID, line.MovementID, line.ItemID, line.LocationID,
		line.QuantityDelta, line.Uom,
		line.QuantityDeltaEntered, line.UomEntered,
		line.QuantityDeltaCanonical, line.CanonicalUom, line.UomDimension,
		line.UnitCost, line.ExtendedCost, line.ReasonCode,
	); err != nil {
		return fmt.Errorf("failed to insert movement line: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, db database.DBTX, tenantID, movementID uuid.UUID) (*model.Movement, error) {
	query := `
		SELECT id, tenant_id, movement_type, status, external_ref,
		       source_type, source_id, idempotency_key, occurred_at, posted_at, metadata
		FROM inventory_movements
		WHERE tenant_id = $1 AND id = $2
	`

	var m model.Movement
	var metadata []byte
	err := db.QueryRow(ctx, query, tenantID, movementID).Scan(
		&m.ID, &m.TenantID, &m.MovementType, &m.Status, &m.ExternalRef,
		&m.SourceType, &m.SourceID, &m.IdempotencyKey, &m.OccurredAt, &m.PostedAt, &metadata,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMovementNotFound
		}
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal movement metadata: %w", err)
		}
	}

	lines := `
		SELECT id, movement_id, item_id, location_id,
		       quantity_delta, uom,
		       quantity_delta_entered, uom_entered,
		       quantity_delta_canonical, canonical_uom, uom_dimension,
		       unit_cost, extended_cost, reason_code
		FROM inventory_movement_lines
		WHERE movement_id = $1
		ORDER BY id ASC
	`

	rows, err := db.Query(ctx, lines, movementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query movement lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.Line
		if err := rows.Scan(
			&l.ID, &l.MovementID, &l.ItemID, &l.LocationID,
			&l.QuantityDelta, &l.Uom,
			&l.QuantityDeltaEntered, &l.UomEntered,
			&l.QuantityDeltaCanonical, &l.CanonicalUom, &l.UomDimension,
			&l.UnitCost, &l.ExtendedCost, &l.ReasonCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan movement line: %w", err)
		}
		m.Lines = append(m.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movement lines: %w", err)
	}

	return &m, nil
}
