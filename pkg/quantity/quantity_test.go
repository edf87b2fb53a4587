package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound(t *testing.T) {
	assert.True(t, dec("1.123457").Equal(Round(dec("1.1234565"))))
	assert.True(t, dec("1.123456").Equal(Round(dec("1.1234564"))))
	assert.True(t, dec("2").Equal(Round(dec("2"))))
}

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10", want: "10"},
		{in: "0.0000005", want: "0.000001"},
		{in: "-3.25", want: "-3.25"},
		{in: "1e3", want: "1000"},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.True(t, dec(tc.want).Equal(got), "Parse(%q) = %s", tc.in, got)
	}
}

func TestEpsilonComparisons(t *testing.T) {
	eps := dec("0.000001")

	assert.True(t, IsZero(decimal.Zero))
	assert.True(t, IsZero(eps))
	assert.True(t, IsZero(eps.Neg()))
	assert.False(t, IsZero(dec("0.000002")))

	assert.False(t, IsPositive(eps))
	assert.True(t, IsPositive(dec("0.000002")))
	assert.False(t, IsNegative(eps.Neg()))
	assert.True(t, IsNegative(dec("-0.000002")))

	// GTE/LTE tolerate a sub-epsilon gap in the wrong direction.
	assert.True(t, GTE(dec("9.9999995"), dec("10")))
	assert.False(t, GTE(dec("9.999998"), dec("10")))
	assert.True(t, LTE(dec("10.0000005"), dec("10")))
	assert.False(t, LTE(dec("10.000002"), dec("10")))

	assert.True(t, Equal(dec("5"), dec("5.000001")))
	assert.False(t, Equal(dec("5"), dec("5.000002")))
}

func TestMinMaxClamp(t *testing.T) {
	assert.True(t, dec("1").Equal(Min(dec("1"), dec("2"))))
	assert.True(t, dec("2").Equal(Max(dec("1"), dec("2"))))
	assert.True(t, decimal.Zero.Equal(ClampFloor(dec("-0.5"), decimal.Zero)))
	assert.True(t, dec("3").Equal(ClampFloor(dec("3"), decimal.Zero)))
}
