package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/audit/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface is the append-only audit log.
type RepositoryInterface interface {
	Insert(ctx context.Context, db database.DBTX, entry model.Entry) error
}

type postgresRepository struct{}

// NewRepository creates a PostgreSQL audit repository.
func NewRepository() RepositoryInterface {
	return &postgresRepository{}
}

func (r *postgresRepository) Insert(ctx context.Context, db database.DBTX, entry model.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_log (id, tenant_id, action, entity_type, entity_id, actor_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if _, err := db.Exec(ctx, query,
		entry.ID, entry.TenantID, entry.Action, entry.EntityType,
		entry.EntityID, entry.ActorID, metadata, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}
