package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanReserveFullyAvailable(t *testing.T) {
	split, err := PlanReserve(dec("100"), dec("40"), false)
	require.NoError(t, err)
	assert.True(t, dec("40").Equal(split.ReserveQty))
	assert.True(t, split.BackorderQty.IsZero())
}

func TestPlanReserveExactAvailability(t *testing.T) {
	split, err := PlanReserve(dec("40"), dec("40"), false)
	require.NoError(t, err)
	assert.True(t, dec("40").Equal(split.ReserveQty))
	assert.True(t, split.BackorderQty.IsZero())
}

func TestPlanReserveBackorderSplit(t *testing.T) {
	split, err := PlanReserve(dec("30"), dec("50"), true)
	require.NoError(t, err)
	assert.True(t, dec("30").Equal(split.ReserveQty))
	assert.True(t, dec("20").Equal(split.BackorderQty))
}

func TestPlanReserveNegativeAvailabilityBackordersEverything(t *testing.T) {
	split, err := PlanReserve(dec("-5"), dec("10"), true)
	require.NoError(t, err)
	assert.True(t, split.ReserveQty.IsZero())
	assert.True(t, dec("10").Equal(split.BackorderQty))
}

func TestPlanReserveEpsilonShortfallAbsorbed(t *testing.T) {
	// Rounding noise below epsilon never produces a phantom backorder.
	split, err := PlanReserve(dec("9.9999999"), dec("10"), true)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(split.ReserveQty))
	assert.True(t, split.BackorderQty.IsZero())
}

func TestPlanReserveInsufficientWithoutBackorder(t *testing.T) {
	_, err := PlanReserve(dec("30"), dec("50"), false)
	assert.True(t, errors.Is(err, ErrInsufficientAvailable))
}

func TestPlanReserveRejectsNonPositive(t *testing.T) {
	_, err := PlanReserve(dec("100"), decimal.Zero, true)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = PlanReserve(dec("100"), dec("-1"), true)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
}

func TestPlanFulfillPartial(t *testing.T) {
	r := Reservation{QuantityReserved: dec("10"), QuantityFulfilled: dec("2")}

	plan, err := PlanFulfill(r, dec("3"))
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(plan.ConsumeQty))
	assert.True(t, dec("5").Equal(plan.NewFulfilled))
	assert.False(t, plan.Complete)
}

func TestPlanFulfillClampsToRemaining(t *testing.T) {
	r := Reservation{QuantityReserved: dec("10"), QuantityFulfilled: dec("8")}

	plan, err := PlanFulfill(r, dec("5"))
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(plan.ConsumeQty))
	assert.True(t, dec("10").Equal(plan.NewFulfilled))
	assert.True(t, plan.Complete)
}

func TestPlanFulfillCompletesWithinEpsilon(t *testing.T) {
	r := Reservation{QuantityReserved: dec("10"), QuantityFulfilled: decimal.Zero}

	plan, err := PlanFulfill(r, dec("9.9999995"))
	require.NoError(t, err)
	assert.True(t, plan.Complete)
}

func TestPlanFulfillRejectsNonPositive(t *testing.T) {
	r := Reservation{QuantityReserved: dec("10"), QuantityFulfilled: dec("2")}

	_, err := PlanFulfill(r, decimal.Zero)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	// Nothing left to consume.
	done := Reservation{QuantityReserved: dec("10"), QuantityFulfilled: dec("10")}
	_, err = PlanFulfill(done, dec("1"))
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
}
