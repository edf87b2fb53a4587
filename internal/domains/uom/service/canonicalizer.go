package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fulfillment-backend/internal/domains/uom/model"
	"fulfillment-backend/pkg/database"
	"fulfillment-backend/pkg/quantity"
)

// ItemUomReader resolves the canonical uom configured on an item.
type ItemUomReader interface {
	GetItemCanonicalUom(ctx context.Context, db database.DBTX, tenantID, itemID uuid.UUID) (string, error)
}

// Canonicalizer converts entered (quantity, uom) pairs into an item's
// canonical uom.
type Canonicalizer struct {
	items ItemUomReader
}

func NewCanonicalizer(items ItemUomReader) *Canonicalizer {
	return &Canonicalizer{items: items}
}

// ConvertToCanonical normalizes qty from uom into the item's canonical uom.
func (c *Canonicalizer) ConvertToCanonical(ctx context.Context, db database.DBTX, tenantID, itemID uuid.UUID, qty decimal.Decimal, uom string) (model.CanonicalQuantity, error) {
	canonicalUom, err := c.items.GetItemCanonicalUom(ctx, db, tenantID, itemID)
	if err != nil {
		return model.CanonicalQuantity{}, err
	}
	if canonicalUom == "" {
		return model.CanonicalQuantity{}, fmt.Errorf("%w: item=%s", model.ErrItemCanonicalUomMissing, itemID)
	}

	return Convert(qty, uom, canonicalUom)
}

// MovementFields normalizes qty and keeps the entered pair for audit.
func (c *Canonicalizer) MovementFields(ctx context.Context, db database.DBTX, tenantID, itemID uuid.UUID, qty decimal.Decimal, uom string) (model.MovementFields, error) {
	canonical, err := c.ConvertToCanonical(ctx, db, tenantID, itemID, qty, uom)
	if err != nil {
		return model.MovementFields{}, err
	}

	return model.MovementFields{
		QuantityEntered:   quantity.Round(qty),
		UomEntered:        uom,
		QuantityCanonical: canonical.Quantity,
		CanonicalUom:      canonical.Uom,
		Dimension:         canonical.Dimension,
	}, nil
}

// Convert is the pure conversion between two unit codes. Both must belong to
// the same dimension; the result is quantized to storage precision.
func Convert(qty decimal.Decimal, fromUom, toUom string) (model.CanonicalQuantity, error) {
	from, ok := model.LookupUnit(fromUom)
	if !ok {
		return model.CanonicalQuantity{}, model.NewUnknownUomError(fromUom)
	}
	to, ok := model.LookupUnit(toUom)
	if !ok {
		return model.CanonicalQuantity{}, model.NewUnknownUomError(toUom)
	}
	if from.Dimension != to.Dimension {
		return model.CanonicalQuantity{}, model.NewDimensionMismatchError(fromUom, toUom)
	}

	converted := qty.Mul(from.Factor).Div(to.Factor)
	return model.CanonicalQuantity{
		Quantity:  quantity.Round(converted),
		Uom:       to.Code,
		Dimension: to.Dimension,
	}, nil
}
