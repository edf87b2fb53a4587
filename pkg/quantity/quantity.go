package quantity

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Scale is the fixed precision used for every stored quantity.
const Scale = 6

// Epsilon is the comparison tolerance for quantities (10^-Scale).
var Epsilon = decimal.New(1, -Scale)

// Round quantizes d to the storage precision (half-up, 6 decimals).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// FromFloat converts a float64 into a quantized quantity.
func FromFloat(f float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(f))
}

// Parse converts a decimal string into a quantized quantity.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		// Accept scientific notation the way float parsing does.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", s, err)
		}
		d = decimal.NewFromFloat(f)
	}
	return Round(d), nil
}

// IsZero reports whether d is zero within Epsilon.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// IsPositive reports whether d exceeds Epsilon.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Epsilon)
}

// IsNegative reports whether d is below -Epsilon.
func IsNegative(d decimal.Decimal) bool {
	return d.LessThan(Epsilon.Neg())
}

// GTE reports a >= b within Epsilon.
func GTE(a, b decimal.Decimal) bool {
	return a.Add(Epsilon).GreaterThanOrEqual(b)
}

// LTE reports a <= b within Epsilon.
func LTE(a, b decimal.Decimal) bool {
	return a.Sub(Epsilon).LessThanOrEqual(b)
}

// Equal reports |a-b| <= Epsilon.
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// ClampFloor returns d, raised to floor when it is within Epsilon below it.
// Used when counters must never be stored negative.
func ClampFloor(d, floor decimal.Decimal) decimal.Decimal {
	if d.LessThan(floor) {
		return floor
	}
	return d
}
