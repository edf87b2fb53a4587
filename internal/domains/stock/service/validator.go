package service

import (
	"context"

	"github.com/google/uuid"

	balanceModel "fulfillment-backend/internal/domains/balance/model"
	balanceRepo "fulfillment-backend/internal/domains/balance/repository"
	"fulfillment-backend/internal/domains/stock/model"
	sharedTypes "fulfillment-backend/internal/shared"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/pkg/database"
)

// Validator guards consumptions against negative stock and arbitrates
// override requests.
type Validator struct {
	balances balanceRepo.RepositoryInterface
}

func NewValidator(balances balanceRepo.RepositoryInterface) *Validator {
	return &Validator{balances: balances}
}

// ValidateConsumption ensures each balance row exists, reads canonical
// availability, and applies the negative-stock policy. It runs inside the
// caller's transaction; rows touched here are typically already locked by
// the caller's balance operations.
func (v *Validator) ValidateConsumption(ctx context.Context, db database.DBTX, tenantID uuid.UUID, lines []model.Line, act actor.Actor, req model.OverrideRequest) (*model.OverrideMetadata, error) {
	var shortfalls []model.Shortfall
	for _, line := range lines {
		key := balanceModel.Key{
			TenantID:   tenantID,
			ItemID:     line.ItemID,
			LocationID: line.LocationID,
			Uom:        line.Uom,
		}
		if err := v.balances.EnsureRow(ctx, db, key); err != nil {
			return nil, err
		}
		bal, err := v.balances.Read(ctx, db, key)
		if err != nil {
			return nil, err
		}
		if !line.Covered(bal.Available()) {
			shortfalls = append(shortfalls, model.Shortfall{
				ItemID:     line.ItemID,
				LocationID: line.LocationID,
				Uom:        line.Uom,
				Available:  bal.Available(),
				Requested:  line.QuantityToConsume,
			})
		}
	}

	authorized := act.Has(sharedTypes.CapabilityNegativeStockOverride)
	return model.Decide(shortfalls, req, act.ID, authorized)
}
