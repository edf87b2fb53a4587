package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoLayers is returned when consumption finds no available layers.
	ErrNoLayers = errors.New("no cost layers available")

	// ErrInsufficientLayerQty is returned when the available layers cannot
	// cover the requested quantity.
	ErrInsufficientLayerQty = errors.New("insufficient cost layer quantity")

	// ErrLayerConsumed is returned when deleting a layer that has been
	// drawn from.
	ErrLayerConsumed = errors.New("cost layer has been consumed")

	// ErrLayerNotFound is returned for an unknown layer id.
	ErrLayerNotFound = errors.New("cost layer not found")
)

func NewInsufficientLayerQtyError(requested, available decimal.Decimal) error {
	return fmt.Errorf("%w: requested=%s available=%s",
		ErrInsufficientLayerQty, requested.String(), available.String())
}
