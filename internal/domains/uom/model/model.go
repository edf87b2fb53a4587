package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Dimension classifies units of measure. Quantities convert only within one
// dimension.
type Dimension string

const (
	DimensionMass   Dimension = "mass"
	DimensionVolume Dimension = "volume"
	DimensionCount  Dimension = "count"
	DimensionLength Dimension = "length"
)

// Unit describes one unit of measure and its factor to the dimension base
// (g, ml, each, mm).
type Unit struct {
	Code      string
	Dimension Dimension
	Factor    decimal.Decimal // multiplier from this unit to the dimension base
}

var units = map[string]Unit{
	// mass (base: gram)
	"mg": {Code: "mg", Dimension: DimensionMass, Factor: decimal.New(1, -3)},
	"g":  {Code: "g", Dimension: DimensionMass, Factor: decimal.New(1, 0)},
	"kg": {Code: "kg", Dimension: DimensionMass, Factor: decimal.New(1, 3)},

	// volume (base: milliliter)
	"ml": {Code: "ml", Dimension: DimensionVolume, Factor: decimal.New(1, 0)},
	"cl": {Code: "cl", Dimension: DimensionVolume, Factor: decimal.New(1, 1)},
	"l":  {Code: "l", Dimension: DimensionVolume, Factor: decimal.New(1, 3)},

	// count (base: each)
	"each":  {Code: "each", Dimension: DimensionCount, Factor: decimal.New(1, 0)},
	"ea":    {Code: "each", Dimension: DimensionCount, Factor: decimal.New(1, 0)},
	"pair":  {Code: "each", Dimension: DimensionCount, Factor: decimal.New(2, 0)},
	"dozen": {Code: "each", Dimension: DimensionCount, Factor: decimal.New(12, 0)},

	// length (base: millimeter)
	"mm": {Code: "mm", Dimension: DimensionLength, Factor: decimal.New(1, 0)},
	"cm": {Code: "cm", Dimension: DimensionLength, Factor: decimal.New(1, 1)},
	"m":  {Code: "m", Dimension: DimensionLength, Factor: decimal.New(1, 3)},
}

// LookupUnit resolves a unit code, case-insensitively.
func LookupUnit(code string) (Unit, bool) {
	u, ok := units[strings.ToLower(strings.TrimSpace(code))]
	return u, ok
}

// CanonicalQuantity is a quantity normalized into an item's canonical uom.
type CanonicalQuantity struct {
	Quantity  decimal.Decimal
	Uom       string
	Dimension Dimension
}

// MovementFields carries both the entered pair (for audit) and the canonical
// triplet stored on movement lines.
type MovementFields struct {
	QuantityEntered   decimal.Decimal
	UomEntered        string
	QuantityCanonical decimal.Decimal
	CanonicalUom      string
	Dimension         Dimension
}
