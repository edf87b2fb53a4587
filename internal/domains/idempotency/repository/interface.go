package repository

import (
	"context"

	"fulfillment-backend/internal/domains/idempotency/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface is the idempotency record store. Records are written
// on the caller's transaction, so an aborted operation never records
// SUCCEEDED.
type RepositoryInterface interface {
	// Begin claims key for this execution or resolves the existing record
	// per the Decide table.
	Begin(ctx context.Context, db database.DBTX, key, bodyHash string) (model.BeginResult, error)

	// Complete finalizes the record, usually to SUCCEEDED with the created
	// entity's reference.
	Complete(ctx context.Context, db database.DBTX, key string, status model.Status, entityRef *string) error
}
