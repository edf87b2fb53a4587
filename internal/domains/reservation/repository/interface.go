package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/pkg/database"
)

// RepositoryInterface is the reservation store. All mutating methods expect
// to run on the caller's transaction after the advisory locks are held.
type RepositoryInterface interface {
	// Insert writes a new reservation with ON CONFLICT DO NOTHING against
	// the non-terminal demand-tuple index. inserted=false means another
	// non-terminal reservation holds the tuple.
	Insert(ctx context.Context, db database.DBTX, r *model.Reservation) (inserted bool, err error)

	// GetByID loads a reservation without locking.
	GetByID(ctx context.Context, db database.DBTX, tenantID, id uuid.UUID) (*model.Reservation, error)

	// LockByID loads a reservation FOR UPDATE.
	LockByID(ctx context.Context, db database.DBTX, tenantID, id uuid.UUID) (*model.Reservation, error)

	// LockByIDs locks several reservations ordered by id ASC, the global
	// reservation lock order.
	LockByIDs(ctx context.Context, db database.DBTX, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Reservation, error)

	// FindByIdempotencyKey resolves the reservation a previous execution
	// created under key.
	FindByIdempotencyKey(ctx context.Context, db database.DBTX, tenantID uuid.UUID, key string) (*model.Reservation, error)

	// FindActiveByDemand locates the RESERVED or ALLOCATED reservation
	// holding the demand tuple, FOR UPDATE when lock is set.
	FindActiveByDemand(ctx context.Context, db database.DBTX, tenantID uuid.UUID, tuple model.DemandTuple, lock bool) (*model.Reservation, error)

	// Update persists state, quantities, timestamps and cancel reason.
	Update(ctx context.Context, db database.DBTX, r *model.Reservation) error

	// InsertEvent appends one ledger row.
	InsertEvent(ctx context.Context, db database.DBTX, ev *model.Event) error

	// UpsertBackorder adds qty to the demand's backorder row.
	UpsertBackorder(ctx context.Context, db database.DBTX, b *model.Backorder) error

	// ListBackordersByDemand returns every backorder row held for a demand.
	ListBackordersByDemand(ctx context.Context, db database.DBTX, tenantID uuid.UUID, demandType model.DemandType, demandID uuid.UUID) ([]model.Backorder, error)

	// ListExpireEligible locks up to limit RESERVED rows whose expiresAt
	// has passed, FOR UPDATE SKIP LOCKED so concurrent sweeps never clash.
	ListExpireEligible(ctx context.Context, db database.DBTX, now time.Time, limit int) ([]model.Reservation, error)
}
