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

func layer(remaining, unitCost string) CostLayer {
	return CostLayer{
		ID:           uuid.New(),
		RemainingQty: dec(remaining),
		UnitCost:     dec(unitCost),
	}
}

func TestPlanConsumptionSingleLayer(t *testing.T) {
	draws, err := PlanConsumption([]CostLayer{layer("10", "2.50")}, dec("4"))
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.True(t, dec("4").Equal(draws[0].Qty))
	assert.True(t, dec("10").Equal(draws[0].ExtendedCost))
	assert.True(t, dec("6").Equal(draws[0].NewRemaining))
}

func TestPlanConsumptionSpansLayersFIFO(t *testing.T) {
	layers := []CostLayer{layer("5", "1.00"), layer("5", "3.00")}

	draws, err := PlanConsumption(layers, dec("8"))
	require.NoError(t, err)
	require.Len(t, draws, 2)

	// Oldest layer drains fully before the next one is touched.
	assert.True(t, dec("5").Equal(draws[0].Qty))
	assert.True(t, draws[0].NewRemaining.IsZero())
	assert.True(t, dec("3").Equal(draws[1].Qty))
	assert.True(t, dec("2").Equal(draws[1].NewRemaining))

	total, avg := Summarize(draws, dec("8"))
	assert.True(t, dec("14").Equal(total))
	assert.True(t, dec("1.75").Equal(avg))
}

func TestPlanConsumptionSkipsEmptyLayers(t *testing.T) {
	layers := []CostLayer{layer("0", "1.00"), layer("6", "2.00")}

	draws, err := PlanConsumption(layers, dec("6"))
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.True(t, dec("6").Equal(draws[0].Qty))
}

func TestPlanConsumptionErrors(t *testing.T) {
	_, err := PlanConsumption(nil, dec("1"))
	assert.True(t, errors.Is(err, ErrNoLayers))

	_, err = PlanConsumption([]CostLayer{layer("3", "1.00")}, dec("5"))
	assert.True(t, errors.Is(err, ErrInsufficientLayerQty))
}

func TestPlanConsumptionEpsilonShortfallCovered(t *testing.T) {
	// A sub-epsilon shortfall is treated as covered.
	draws, err := PlanConsumption([]CostLayer{layer("4.9999995", "2.00")}, dec("5"))
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.True(t, dec("4.9999995").Round(6).Equal(draws[0].Qty))
}

func TestSummarizeZeroQty(t *testing.T) {
	total, avg := Summarize(nil, decimal.Zero)
	assert.True(t, total.IsZero())
	assert.True(t, avg.IsZero())
}
