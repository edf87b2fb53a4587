package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownUom is returned when a unit code is not recognized.
	ErrUnknownUom = errors.New("unknown unit of measure")

	// ErrDimensionMismatch is returned when a quantity's uom and the item's
	// canonical uom belong to different dimensions.
	ErrDimensionMismatch = errors.New("uom dimension mismatch")

	// ErrItemCanonicalUomMissing is returned when an item has no canonical
	// uom configured.
	ErrItemCanonicalUomMissing = errors.New("item canonical uom missing")
)

func NewUnknownUomError(code string) error {
	return fmt.Errorf("%w: %q", ErrUnknownUom, code)
}

func NewDimensionMismatchError(entered, canonical string) error {
	return fmt.Errorf("%w: entered uom %q, canonical uom %q", ErrDimensionMismatch, entered, canonical)
}
