package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	balanceModel "fulfillment-backend/internal/domains/balance/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/shipment/model"
	uomModel "fulfillment-backend/internal/domains/uom/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSortPostedLines(t *testing.T) {
	itemA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	itemB := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	lineFirst := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	lineSecond := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")

	prepared := []postedLine{
		{line: model.Line{ID: lineSecond, ItemID: itemB}, fields: uomModel.MovementFields{CanonicalUom: "each"}},
		{line: model.Line{ID: lineSecond, ItemID: itemA}, fields: uomModel.MovementFields{CanonicalUom: "g"}},
		{line: model.Line{ID: lineFirst, ItemID: itemA}, fields: uomModel.MovementFields{CanonicalUom: "g"}},
		{line: model.Line{ID: lineFirst, ItemID: itemA}, fields: uomModel.MovementFields{CanonicalUom: "each"}},
	}

	sortPostedLines(prepared)

	// (itemId, canonicalUom, shipmentLineId) ascending.
	assert.Equal(t, itemA, prepared[0].line.ItemID)
	assert.Equal(t, "each", prepared[0].fields.CanonicalUom)
	assert.Equal(t, lineFirst, prepared[1].line.ID)
	assert.Equal(t, "g", prepared[1].fields.CanonicalUom)
	assert.Equal(t, lineSecond, prepared[2].line.ID)
	assert.Equal(t, itemB, prepared[3].line.ItemID)
}

// Replays the posting deltas for a reservation shipped in two parts and
// verifies every later release path still has allocated quantity to draw
// from. The RESERVED -> ALLOCATED shift must move the full open remainder,
// not just the first shipment's share.
func TestPartialShipmentBalanceFlow(t *testing.T) {
	res := reservationModel.Reservation{
		State:             reservationModel.StateReserved,
		QuantityReserved:  dec("10"),
		QuantityFulfilled: decimal.Zero,
	}
	bal := balanceModel.Balance{OnHand: dec("10"), Reserved: dec("10")}

	// First shipment: 4 of 10. Allocate the full open remainder, then issue.
	firstPlan := model.PlanLineConsumption(dec("4"), res.Remaining())
	require.True(t, dec("4").Equal(firstPlan.ReserveConsume))

	open := res.Remaining()
	next, err := bal.Apply(balanceModel.Delta{Reserved: open.Neg(), Allocated: open})
	require.NoError(t, err)
	next, err = next.Apply(balanceModel.Delta{OnHand: dec("-4"), Allocated: firstPlan.ReserveConsume.Neg()})
	require.NoError(t, err)

	res.State = reservationModel.StateAllocated
	res.QuantityFulfilled = firstPlan.ReserveConsume

	assert.True(t, dec("6").Equal(next.OnHand))
	assert.True(t, next.Reserved.IsZero())
	assert.True(t, dec("6").Equal(next.Allocated))

	// Second shipment: the remaining 6. Already ALLOCATED, so no shift.
	secondPlan := model.PlanLineConsumption(dec("6"), res.Remaining())
	require.True(t, dec("6").Equal(secondPlan.ReserveConsume))

	shipped, err := next.Apply(balanceModel.Delta{OnHand: dec("-6"), Allocated: secondPlan.ReserveConsume.Neg()})
	require.NoError(t, err)
	assert.True(t, shipped.OnHand.IsZero())
	assert.True(t, shipped.Allocated.IsZero())

	// Alternative endings for the remainder: fulfill or cancel both release
	// from allocated.
	fulfilled, err := next.Apply(balanceModel.Delta{Allocated: res.Remaining().Neg()})
	require.NoError(t, err)
	assert.True(t, fulfilled.Allocated.IsZero())

	cancelled, err := next.Apply(balanceModel.Delta{Allocated: res.Remaining().Neg()})
	require.NoError(t, err)
	assert.True(t, cancelled.Allocated.IsZero())
}
