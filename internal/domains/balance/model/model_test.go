package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBalanceAvailable(t *testing.T) {
	b := Balance{OnHand: dec("100"), Reserved: dec("30"), Allocated: dec("20")}
	assert.True(t, dec("50").Equal(b.Available()))

	// Negative on-hand passes through into availability.
	b = Balance{OnHand: dec("-5"), Reserved: decimal.Zero, Allocated: decimal.Zero}
	assert.True(t, dec("-5").Equal(b.Available()))
}

func TestDeltaIsNoop(t *testing.T) {
	assert.True(t, Delta{}.IsNoop())
	assert.True(t, Delta{OnHand: dec("0.000001")}.IsNoop())
	assert.False(t, Delta{Reserved: dec("0.01")}.IsNoop())
}

func TestBalanceApply(t *testing.T) {
	b := Balance{OnHand: dec("10"), Reserved: dec("4"), Allocated: dec("1")}

	next, err := b.Apply(Delta{OnHand: dec("-2"), Reserved: dec("-4"), Allocated: dec("4")})
	require.NoError(t, err)
	assert.True(t, dec("8").Equal(next.OnHand))
	assert.True(t, decimal.Zero.Equal(next.Reserved))
	assert.True(t, dec("5").Equal(next.Allocated))
}

func TestBalanceApplyClampsEpsilonResidue(t *testing.T) {
	b := Balance{Reserved: dec("3")}

	// A release overshooting by epsilon lands exactly at zero, not negative.
	next, err := b.Apply(Delta{Reserved: dec("-3.000001")})
	require.NoError(t, err)
	assert.True(t, next.Reserved.IsZero())
}

func TestBalanceApplyRejectsNegativeCounters(t *testing.T) {
	b := Balance{Reserved: dec("3"), Allocated: dec("2")}

	_, err := b.Apply(Delta{Reserved: dec("-3.1")})
	assert.True(t, errors.Is(err, ErrNegativeCounter))

	_, err = b.Apply(Delta{Allocated: dec("-2.5")})
	assert.True(t, errors.Is(err, ErrNegativeCounter))
}

func TestBalanceApplyAllowsNegativeOnHand(t *testing.T) {
	b := Balance{OnHand: dec("1")}

	next, err := b.Apply(Delta{OnHand: dec("-4")})
	require.NoError(t, err)
	assert.True(t, dec("-3").Equal(next.OnHand))
}
