package model

import (
	"github.com/shopspring/decimal"

	"fulfillment-backend/pkg/quantity"
)

// Draw is one planned take from a layer.
type Draw struct {
	Layer        CostLayer
	Qty          decimal.Decimal
	ExtendedCost decimal.Decimal
	NewRemaining decimal.Decimal
}

// PlanConsumption greedily drains layers oldest-first until qty is covered.
// Layers must already be in FIFO order (layerDate ASC, layerSequence ASC).
// Fails with ErrNoLayers when the slice is empty and ErrInsufficientLayerQty
// when the sum of remaining quantities is short by more than epsilon.
func PlanConsumption(layers []CostLayer, qty decimal.Decimal) ([]Draw, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}

	available := decimal.Zero
	for _, l := range layers {
		available = available.Add(l.RemainingQty)
	}
	if !quantity.GTE(available, qty) {
		return nil, NewInsufficientLayerQtyError(qty, available)
	}

	remaining := qty
	var draws []Draw
	for _, l := range layers {
		if !quantity.IsPositive(remaining) {
			break
		}
		take := quantity.Min(l.RemainingQty, remaining)
		if !quantity.IsPositive(take) {
			continue
		}

		draws = append(draws, Draw{
			Layer:        l,
			Qty:          quantity.Round(take),
			ExtendedCost: quantity.Round(take.Mul(l.UnitCost)),
			NewRemaining: quantity.Round(l.RemainingQty.Sub(take)),
		})
		remaining = remaining.Sub(take)
	}

	return draws, nil
}

// Summarize folds planned draws into totals.
func Summarize(draws []Draw, qty decimal.Decimal) (totalCost, weightedAverage decimal.Decimal) {
	for _, d := range draws {
		totalCost = totalCost.Add(d.ExtendedCost)
	}
	totalCost = quantity.Round(totalCost)
	if quantity.IsPositive(qty) {
		weightedAverage = quantity.Round(totalCost.Div(qty))
	}
	return totalCost, weightedAverage
}
