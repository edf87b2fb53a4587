package model

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineCovered(t *testing.T) {
	line := Line{QuantityToConsume: dec("10")}

	assert.True(t, line.Covered(dec("10")))
	assert.True(t, line.Covered(dec("15")))
	assert.False(t, line.Covered(dec("9")))

	// Sub-epsilon gaps do not count as shortfalls.
	assert.True(t, line.Covered(dec("9.9999995")))
}

func TestLineCoveredWithAllowance(t *testing.T) {
	// Consumption backed by a reservation release: availability alone is
	// short, availability plus allowance is not.
	line := Line{QuantityToConsume: dec("10"), Allowance: dec("6")}

	assert.True(t, line.Covered(dec("4")))
	assert.True(t, line.Covered(dec("3.9999995")))
	assert.False(t, line.Covered(dec("3")))
}

func TestDecideNoShortfalls(t *testing.T) {
	meta, err := Decide(nil, OverrideRequest{}, "user-1", false)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestDecideShortfallWithoutOverride(t *testing.T) {
	shortfalls := []Shortfall{{
		ItemID:    uuid.New(),
		Available: dec("2"),
		Requested: dec("5"),
	}}

	_, err := Decide(shortfalls, OverrideRequest{}, "user-1", true)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.True(t, IsInsufficientStock(err))
}

func TestDecideOverridePolicy(t *testing.T) {
	shortfalls := []Shortfall{{ItemID: uuid.New(), Requested: dec("5")}}

	_, err := Decide(shortfalls, OverrideRequest{Requested: true, Reason: "cycle count pending"}, "user-1", false)
	assert.True(t, errors.Is(err, ErrOverrideNotAllowed))

	_, err = Decide(shortfalls, OverrideRequest{Requested: true}, "user-1", true)
	assert.True(t, errors.Is(err, ErrOverrideRequiresReason))

	meta, err := Decide(shortfalls, OverrideRequest{
		Requested: true,
		Reason:    "cycle count pending",
		Reference: "CC-2041",
	}, "user-1", true)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "cycle count pending", meta.Reason)
	assert.Equal(t, "CC-2041", meta.Reference)
	assert.Equal(t, "user-1", meta.ActorID)
}
