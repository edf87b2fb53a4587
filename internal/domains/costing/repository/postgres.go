package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fulfillment-backend/internal/domains/costing/model"
	"fulfillment-backend/pkg/database"
)

type postgresRepository struct{}

// NewRepository creates a PostgreSQL cost-layer repository.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

const layerColumns = `id, tenant_id, item_id, location_id, uom, layer_date, layer_sequence,
	original_qty, remaining_qty, unit_cost, extended_cost,
	source_type, source_document_id, movement_id, lot_id, voided, created_at`

func scanLayer(row pgx.Row) (*model.CostLayer, error) {
	var l model.CostLayer
	err := row.Scan(
		&l.ID, &l.TenantID, &l.ItemID, &l.LocationID, &l.Uom,
		&l.LayerDate, &l.LayerSequence,
		&l.OriginalQty, &l.RemainingQty, &l.UnitCost, &l.ExtendedCost,
		&l.SourceType, &l.SourceDocumentID, &l.MovementID, &l.LotID,
		&l.Voided, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *postgresRepository) CreateLayer(ctx context.Context, db database.DBTX, params model.CreateLayerParams) (*model.CostLayer, error) {
	// The sequence subquery and the insert run in one statement so two
	// writers on the same (item, location, day) serialize on the unique
	// index instead of racing the MAX.
	query := `
		INSERT INTO inventory_cost_layers (
			id, tenant_id, item_id, location_id, uom, layer_date, layer_sequence,
			original_qty, remaining_qty, unit_cost, extended_cost,
			source_type, source_document_id, movement_id, lot_id, voided, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			(
				SELECT COALESCE(MAX(layer_sequence), 0) + 1
				FROM inventory_cost_layers
				WHERE tenant_id = $2 AND item_id = $3 AND location_id = $4 AND layer_date = $6
			),
			$7, $7, $8, $9, $10, $11, $12, $13, FALSE, $14
		)
		RETURNING ` + layerColumns

	extended := params.OriginalQty.Mul(params.UnitCost)
	layer, err := scanLayer(db.QueryRow(ctx, query,
		uuid.New(),
		params.TenantID,
		params.ItemID,
		params.LocationID,
		params.Uom,
		params.LayerDate,
		params.OriginalQty,
		params.UnitCost,
		extended,
		params.SourceType,
		params.SourceDocumentID,
		params.MovementID,
		params.LotID,
		time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create cost layer: %w", err)
	}

	return layer, nil
}

func (r *postgresRepository) CreateReceiptLayerOnce(ctx context.Context, db database.DBTX, params model.CreateLayerParams) (*model.CostLayer, error) {
	query := `
		INSERT INTO inventory_cost_layers (
			id, tenant_id, item_id, location_id, uom, layer_date, layer_sequence,
			original_qty, remaining_qty, unit_cost, extended_cost,
			source_type, source_document_id, movement_id, lot_id, voided, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			(
				SELECT COALESCE(MAX(layer_sequence), 0) + 1
				FROM inventory_cost_layers
				WHERE tenant_id = $2 AND item_id = $3 AND location_id = $4 AND layer_date = $6
			),
			$7, $7, $8, $9, 'receipt', $10, $11, $12, FALSE, $13
		)
		ON CONFLICT (tenant_id, source_type, source_document_id) WHERE NOT voided
		DO NOTHING
		RETURNING ` + layerColumns

	extended := params.OriginalQty.Mul(params.UnitCost)
	layer, err := scanLayer(db.QueryRow(ctx, query,
		uuid.New(),
		params.TenantID,
		params.ItemID,
		params.LocationID,
		params.Uom,
		params.LayerDate,
		params.OriginalQty,
		params.UnitCost,
		extended,
		params.SourceDocumentID,
		params.MovementID,
		params.LotID,
		time.Now().UTC(),
	))
	if err == nil {
		return layer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to create receipt cost layer: %w", err)
	}

	// Conflict: another call already created the layer for this receipt
	// document. Return it.
	existing := `
		SELECT ` + layerColumns + `
		FROM inventory_cost_layers
		WHERE tenant_id = $1 AND source_type = 'receipt' AND source_document_id = $2 AND NOT voided
	`
	layer, err = scanLayer(db.QueryRow(ctx, existing, params.TenantID, params.SourceDocumentID))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve existing receipt cost layer: %w", err)
	}

	return layer, nil
}

func (r *postgresRepository) AvailableLayers(ctx context.Context, db database.DBTX, tenantID, itemID, locationID uuid.UUID, lotID *uuid.UUID) ([]model.CostLayer, error) {
	query := `
		SELECT ` + layerColumns + `
		FROM inventory_cost_layers
		WHERE tenant_id = $1 AND item_id = $2 AND location_id = $3
		  AND remaining_qty > 0 AND NOT voided
	`
	args := []any{tenantID, itemID, locationID}
	if lotID != nil {
		query += " AND lot_id = $4"
		args = append(args, *lotID)
	}
	query += `
		ORDER BY layer_date ASC, layer_sequence ASC
		FOR UPDATE
	`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost layers: %w", err)
	}
	defer rows.Close()

	var layers []model.CostLayer
	for rows.Next() {
		layer, err := scanLayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cost layer: %w", err)
		}
		layers = append(layers, *layer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cost layers: %w", err)
	}

	return layers, nil
}

func (r *postgresRepository) ApplyDraw(ctx context.Context, db database.DBTX, draw model.Draw, consumption model.Consumption) error {
	update := `
		UPDATE inventory_cost_layers
		SET remaining_qty = $3
		WHERE tenant_id = $1 AND id = $2 AND remaining_qty = $4
	`

	tag, err := db.Exec(ctx, update,
		draw.Layer.TenantID, draw.Layer.ID, draw.NewRemaining, draw.Layer.RemainingQty,
	)
	if err != nil {
		return fmt.Errorf("failed to update cost layer remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The layer was locked FOR UPDATE, so a miss means the plan went
		// stale inside the same transaction. Treat as a defect.
		return fmt.Errorf("cost layer %s changed under lock", draw.Layer.ID)
	}

	insert := `
		INSERT INTO cost_layer_consumptions (
			id, tenant_id, cost_layer_id, consumed_qty, unit_cost, extended_cost,
			consumption_type, document_id, movement_id, consumed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if _, err := db.Exec(ctx, insert,
		consumption.ID,
		consumption.TenantID,
		consumption.CostLayerID,
		consumption.ConsumedQty,
		consumption.UnitCost,
		consumption.ExtendedCost,
		consumption.ConsumptionType,
		consumption.DocumentID,
		consumption.MovementID,
		consumption.ConsumedAt,
	); err != nil {
		return fmt.Errorf("failed to insert cost layer consumption: %w", err)
	}

	return nil
}

func (r *postgresRepository) DeleteLayer(ctx context.Context, db database.DBTX, tenantID, layerID uuid.UUID) error {
	query := `
		DELETE FROM inventory_cost_layers
		WHERE tenant_id = $1 AND id = $2
		  AND remaining_qty = original_qty
		  AND NOT EXISTS (
			SELECT 1 FROM cost_layer_consumptions WHERE cost_layer_id = $2
		  )
	`

	tag, err := db.Exec(ctx, query, tenantID, layerID)
	if err != nil {
		return fmt.Errorf("failed to delete cost layer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		check := "SELECT EXISTS(SELECT 1 FROM inventory_cost_layers WHERE tenant_id = $1 AND id = $2)"
		if err := db.QueryRow(ctx, check, tenantID, layerID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check cost layer existence: %w", err)
		}
		if !exists {
			return model.ErrLayerNotFound
		}
		return model.ErrLayerConsumed
	}

	return nil
}
