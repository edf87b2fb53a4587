package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fulfillment-backend/pkg/quantity"
)

// Key identifies one balance row.
type Key struct {
	TenantID   uuid.UUID
	ItemID     uuid.UUID
	LocationID uuid.UUID
	Uom        string
}

// Balance is the authoritative three-counter row per (tenant, item, location,
// uom). Rows are auto-ensured on first touch and never deleted.
type Balance struct {
	Key
	OnHand    decimal.Decimal
	Reserved  decimal.Decimal
	Allocated decimal.Decimal
	UpdatedAt time.Time
}

// Available is the derived ATP quantity: onHand - reserved - allocated.
func (b Balance) Available() decimal.Decimal {
	return b.OnHand.Sub(b.Reserved).Sub(b.Allocated)
}

// Delta is one counter adjustment applied under the row lock.
type Delta struct {
	OnHand    decimal.Decimal
	Reserved  decimal.Decimal
	Allocated decimal.Decimal
}

// IsNoop reports whether every component is within epsilon of zero, in which
// case the write is skipped entirely.
func (d Delta) IsNoop() bool {
	return quantity.IsZero(d.OnHand) && quantity.IsZero(d.Reserved) && quantity.IsZero(d.Allocated)
}

// Apply computes the next counters. Reserved and allocated are rejected below
// -epsilon and clamped to zero on write; on-hand may go negative only through
// the validator's override path, so it is not clamped here.
func (b Balance) Apply(d Delta) (Balance, error) {
	next := b
	next.OnHand = quantity.Round(b.OnHand.Add(d.OnHand))
	nextReserved := quantity.Round(b.Reserved.Add(d.Reserved))
	nextAllocated := quantity.Round(b.Allocated.Add(d.Allocated))

	if quantity.IsNegative(nextReserved) {
		return Balance{}, NewNegativeCounterError("reserved", nextReserved)
	}
	if quantity.IsNegative(nextAllocated) {
		return Balance{}, NewNegativeCounterError("allocated", nextAllocated)
	}

	next.Reserved = quantity.ClampFloor(nextReserved, decimal.Zero)
	next.Allocated = quantity.ClampFloor(nextAllocated, decimal.Zero)
	return next, nil
}
