package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fulfillment-backend/internal/domains/costing/model"
	"fulfillment-backend/internal/domains/costing/repository"
	"fulfillment-backend/pkg/database"
)

// ConsumeParams identifies the stock being costed and the document driving
// the consumption.
type ConsumeParams struct {
	TenantID        uuid.UUID
	ItemID          uuid.UUID
	LocationID      uuid.UUID
	LotID           *uuid.UUID
	Qty             decimal.Decimal
	ConsumptionType string
	DocumentID      *uuid.UUID
	MovementID      *uuid.UUID
}

// Service drives FIFO cost-layer consumption inside a caller's transaction.
type Service struct {
	repo repository.RepositoryInterface
}

func NewService(repo repository.RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// CreateLayer appends a cost layer.
func (s *Service) CreateLayer(ctx context.Context, db database.DBTX, params model.CreateLayerParams) (*model.CostLayer, error) {
	return s.repo.CreateLayer(ctx, db, params)
}

// CreateReceiptLayerOnce creates exactly one layer per receipt document.
func (s *Service) CreateReceiptLayerOnce(ctx context.Context, db database.DBTX, params model.CreateLayerParams) (*model.CostLayer, error) {
	params.SourceType = model.SourceReceipt
	return s.repo.CreateReceiptLayerOnce(ctx, db, params)
}

// Consume drains layers FIFO for qty, writing a ledger row per drained layer
// and returning cost totals. Runs entirely on the caller's transaction.
func (s *Service) Consume(ctx context.Context, db database.DBTX, params ConsumeParams) (*model.ConsumeResult, error) {
	layers, err := s.repo.AvailableLayers(ctx, db, params.TenantID, params.ItemID, params.LocationID, params.LotID)
	if err != nil {
		return nil, err
	}

	draws, err := model.PlanConsumption(layers, params.Qty)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &model.ConsumeResult{}
	for _, draw := range draws {
		consumption := model.Consumption{
			ID:              uuid.New(),
			TenantID:        params.TenantID,
			CostLayerID:     draw.Layer.ID,
			ConsumedQty:     draw.Qty,
			UnitCost:        draw.Layer.UnitCost,
			ExtendedCost:    draw.ExtendedCost,
			ConsumptionType: params.ConsumptionType,
			DocumentID:      params.DocumentID,
			MovementID:      params.MovementID,
			ConsumedAt:      now,
		}

		if err := s.repo.ApplyDraw(ctx, db, draw, consumption); err != nil {
			return nil, err
		}
		result.Consumptions = append(result.Consumptions, consumption)
	}

	result.TotalCost, result.WeightedAverageUnitCost = model.Summarize(draws, params.Qty)
	return result, nil
}

// DeleteLayer removes a never-consumed layer.
func (s *Service) DeleteLayer(ctx context.Context, db database.DBTX, tenantID, layerID uuid.UUID) error {
	return s.repo.DeleteLayer(ctx, db, tenantID, layerID)
}
