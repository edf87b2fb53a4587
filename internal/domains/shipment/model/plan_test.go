package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPlanLineConsumption(t *testing.T) {
	cases := []struct {
		name      string
		issue     string
		remaining string
		wantRC    string
		wantNet   string
	}{
		{name: "no reservation", issue: "10", remaining: "0", wantRC: "0", wantNet: "10"},
		{name: "reservation covers issue", issue: "4", remaining: "10", wantRC: "4", wantNet: "0"},
		{name: "reservation exactly covers", issue: "10", remaining: "10", wantRC: "10", wantNet: "0"},
		{name: "issue exceeds remainder", issue: "10", remaining: "6", wantRC: "6", wantNet: "4"},
		{name: "negative remainder treated as drained", issue: "5", remaining: "-1", wantRC: "0", wantNet: "5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := PlanLineConsumption(dec(tc.issue), dec(tc.remaining))
			assert.True(t, dec(tc.wantRC).Equal(plan.ReserveConsume), "reserveConsume=%s", plan.ReserveConsume)
			assert.True(t, dec(tc.wantNet).Equal(plan.NetNew), "netNew=%s", plan.NetNew)
		})
	}
}

func TestAllowanceCovers(t *testing.T) {
	// available + reserveConsume >= issue, within epsilon.
	assert.True(t, AllowanceCovers(dec("4"), dec("6"), dec("10")))
	assert.True(t, AllowanceCovers(dec("3.9999995"), dec("6"), dec("10")))
	assert.False(t, AllowanceCovers(dec("3"), dec("6"), dec("10")))

	// No reservation share: strict availability only.
	assert.True(t, AllowanceCovers(dec("10"), decimal.Zero, dec("10")))
	assert.False(t, AllowanceCovers(dec("9"), decimal.Zero, dec("10")))

	// Negative availability is only covered by the reservation share.
	assert.True(t, AllowanceCovers(dec("-2"), dec("12"), dec("10")))
	assert.False(t, AllowanceCovers(dec("-2"), dec("10"), dec("10")))
}
