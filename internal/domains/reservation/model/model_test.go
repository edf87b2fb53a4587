package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from State
		to   State
		ok   bool
	}{
		{StateReserved, StateAllocated, true},
		{StateReserved, StateCancelled, true},
		{StateReserved, StateExpired, true},
		{StateReserved, StateFulfilled, false},
		{StateAllocated, StateFulfilled, true},
		{StateAllocated, StateCancelled, true},
		{StateAllocated, StateExpired, false},
		{StateAllocated, StateReserved, false},
		{StateFulfilled, StateCancelled, false},
		{StateCancelled, StateReserved, false},
		{StateExpired, StateAllocated, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StateReserved.Terminal())
	assert.False(t, StateAllocated.Terminal())
	assert.True(t, StateFulfilled.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.True(t, StateExpired.Terminal())
}

func TestRemaining(t *testing.T) {
	r := Reservation{QuantityReserved: dec("10"), QuantityFulfilled: dec("3.5")}
	assert.True(t, dec("6.5").Equal(r.Remaining()))

	r = Reservation{QuantityReserved: dec("10"), QuantityFulfilled: dec("10")}
	assert.True(t, r.Remaining().IsZero())
}

func TestTuple(t *testing.T) {
	r := Reservation{
		WarehouseID:  uuid.New(),
		DemandType:   DemandSalesOrderLine,
		DemandID:     uuid.New(),
		ItemID:       uuid.New(),
		LocationID:   uuid.New(),
		CanonicalUom: "each",
	}

	got := r.Tuple()
	assert.Equal(t, r.WarehouseID, got.WarehouseID)
	assert.Equal(t, r.DemandType, got.DemandType)
	assert.Equal(t, r.DemandID, got.DemandID)
	assert.Equal(t, r.ItemID, got.ItemID)
	assert.Equal(t, r.LocationID, got.LocationID)
	assert.Equal(t, "each", got.CanonicalUom)

	// Tuples are comparable: same fields, same key.
	other := r
	assert.Equal(t, got, other.Tuple())
}
