package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceType tags where a cost layer came from.
type SourceType string

const (
	SourceReceipt        SourceType = "receipt"
	SourceProduction     SourceType = "production"
	SourceAdjustment     SourceType = "adjustment"
	SourceOpeningBalance SourceType = "opening_balance"
	SourceTransferIn     SourceType = "transfer_in"
)

// CostLayer is one append-only receipt bucket consumed FIFO by
// (layerDate ASC, layerSequence ASC).
type CostLayer struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	ItemID           uuid.UUID
	LocationID       uuid.UUID
	Uom              string
	LayerDate        time.Time
	LayerSequence    int
	OriginalQty      decimal.Decimal
	RemainingQty     decimal.Decimal
	UnitCost         decimal.Decimal
	ExtendedCost     decimal.Decimal
	SourceType       SourceType
	SourceDocumentID *uuid.UUID
	MovementID       *uuid.UUID
	LotID            *uuid.UUID
	Voided           bool
	CreatedAt        time.Time
}

// Consumption is one ledger row recording a draw from a layer.
type Consumption struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	CostLayerID     uuid.UUID
	ConsumedQty     decimal.Decimal
	UnitCost        decimal.Decimal
	ExtendedCost    decimal.Decimal
	ConsumptionType string
	DocumentID      *uuid.UUID
	MovementID      *uuid.UUID
	ConsumedAt      time.Time
}

// ConsumeResult summarizes one FIFO consumption.
type ConsumeResult struct {
	TotalCost               decimal.Decimal
	WeightedAverageUnitCost decimal.Decimal
	Consumptions            []Consumption
}

// CreateLayerParams carries everything needed to append a new layer.
type CreateLayerParams struct {
	TenantID         uuid.UUID
	ItemID           uuid.UUID
	LocationID       uuid.UUID
	Uom              string
	LayerDate        time.Time
	OriginalQty      decimal.Decimal
	UnitCost         decimal.Decimal
	SourceType       SourceType
	SourceDocumentID *uuid.UUID
	MovementID       *uuid.UUID
	LotID            *uuid.UUID
}
