package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fulfillment-backend/internal/domains/idempotency/model"
	"fulfillment-backend/pkg/database"
)

type postgresRepository struct{}

// NewRepository creates a PostgreSQL idempotency repository.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

func (r *postgresRepository) Begin(ctx context.Context, db database.DBTX, key, bodyHash string) (model.BeginResult, error) {
	insert := `
		INSERT INTO idempotency_records (key, body_hash, status, created_at, updated_at)
		VALUES ($1, $2, 'IN_PROGRESS', NOW(), NOW())
		ON CONFLICT (key) DO NOTHING
	`

	tag, err := db.Exec(ctx, insert, key, bodyHash)
	if err != nil {
		return model.BeginResult{}, fmt.Errorf("failed to insert idempotency record: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return model.BeginResult{Outcome: model.OutcomeProceed}, nil
	}

	// Key exists: decide from the current record.
	query := `
		SELECT key, body_hash, status, entity_ref, created_at, updated_at
		FROM idempotency_records
		WHERE key = $1
		FOR UPDATE
	`

	var rec model.Record
	err = db.QueryRow(ctx, query, key).Scan(
		&rec.Key, &rec.BodyHash, &rec.Status, &rec.EntityRef, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The conflicting record was rolled back between our insert and
			// select; treat the key as fresh.
			return r.Begin(ctx, db, key, bodyHash)
		}
		return model.BeginResult{}, fmt.Errorf("failed to read idempotency record: %w", err)
	}

	result, err := model.Decide(&rec, bodyHash)
	if err != nil {
		return model.BeginResult{}, err
	}

	if result.Outcome == model.OutcomeProceed && rec.Status == model.StatusFailed {
		update := `
			UPDATE idempotency_records
			SET status = 'IN_PROGRESS', body_hash = $2, entity_ref = NULL, updated_at = NOW()
			WHERE key = $1
		`
		if _, err := db.Exec(ctx, update, key, bodyHash); err != nil {
			return model.BeginResult{}, fmt.Errorf("failed to reclaim idempotency record: %w", err)
		}
	}

	return result, nil
}

func (r *postgresRepository) Complete(ctx context.Context, db database.DBTX, key string, status model.Status, entityRef *string) error {
	query := `
		UPDATE idempotency_records
		SET status = $2, entity_ref = $3, updated_at = NOW()
		WHERE key = $1
	`

	if _, err := db.Exec(ctx, query, key, status, entityRef); err != nil {
		return fmt.Errorf("failed to complete idempotency record: %w", err)
	}
	return nil
}
