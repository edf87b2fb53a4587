package model

import (
	"github.com/shopspring/decimal"

	"fulfillment-backend/pkg/quantity"
)

// ReserveSplit is the outcome of planning one reservation against the
// current availability.
type ReserveSplit struct {
	ReserveQty   decimal.Decimal
	BackorderQty decimal.Decimal
}

// PlanReserve splits a requested quantity into what reserves now and what
// backorders. Requested must be positive. When backorders are disabled any
// shortfall is an error. A residual backorder within epsilon is absorbed
// into the reserve so rounding noise never creates phantom backorders.
func PlanReserve(available, requested decimal.Decimal, allowBackorder bool) (ReserveSplit, error) {
	if !quantity.IsPositive(requested) {
		return ReserveSplit{}, NewInvalidQuantityError(requested)
	}

	if quantity.GTE(available, requested) {
		return ReserveSplit{ReserveQty: quantity.Round(requested)}, nil
	}

	if !allowBackorder {
		return ReserveSplit{}, NewInsufficientAvailableError(available, requested)
	}

	reserve := quantity.Round(quantity.ClampFloor(available, decimal.Zero))
	backorder := quantity.Round(requested.Sub(reserve))
	if quantity.IsZero(backorder) {
		return ReserveSplit{ReserveQty: quantity.Round(requested)}, nil
	}

	return ReserveSplit{ReserveQty: reserve, BackorderQty: backorder}, nil
}

// FulfillPlan is the outcome of planning one incremental fulfillment.
type FulfillPlan struct {
	ConsumeQty   decimal.Decimal
	NewFulfilled decimal.Decimal
	Complete     bool
}

// PlanFulfill clamps an incremental consume quantity to the reservation's
// open remainder and decides whether the reservation completes. qty is
// "consume now", never a new fulfilled total.
func PlanFulfill(r Reservation, qty decimal.Decimal) (FulfillPlan, error) {
	if !quantity.IsPositive(qty) {
		return FulfillPlan{}, NewInvalidQuantityError(qty)
	}

	remaining := r.Remaining()
	consume := quantity.Round(decimal.Min(qty, remaining))
	if !quantity.IsPositive(consume) {
		return FulfillPlan{}, NewInvalidQuantityError(qty)
	}

	newFulfilled := quantity.Round(r.QuantityFulfilled.Add(consume))
	return FulfillPlan{
		ConsumeQty:   consume,
		NewFulfilled: newFulfilled,
		Complete:     quantity.GTE(newFulfilled, r.QuantityReserved),
	}, nil
}
