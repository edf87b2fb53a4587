package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrShipmentNotFound is returned for an unknown shipment id.
	ErrShipmentNotFound = errors.New("shipment not found")

	// ErrShipmentCanceled is returned when posting a canceled shipment.
	ErrShipmentCanceled = errors.New("shipment is canceled")

	// ErrShipmentNoLines is returned when posting a shipment without lines.
	ErrShipmentNoLines = errors.New("shipment has no lines")

	// ErrInvalidLineQuantity is returned for a non-positive shipped
	// quantity.
	ErrInvalidLineQuantity = errors.New("shipment line quantity must be positive")

	// ErrCrossWarehouse is returned when the ship-from warehouse differs
	// from the sales order's warehouse.
	ErrCrossWarehouse = errors.New("shipment crosses warehouse boundaries")

	// ErrInsufficientAvailableWithAllowance is returned when availability
	// plus the reservation consumption allowance cannot cover a line.
	ErrInsufficientAvailableWithAllowance = errors.New("insufficient available quantity even with reservation allowance")
)

func NewCrossWarehouseError(shipFrom, salesOrder uuid.UUID) error {
	return fmt.Errorf("%w: ship-from warehouse %s, sales order warehouse %s", ErrCrossWarehouse, shipFrom, salesOrder)
}

func NewInsufficientWithAllowanceError(itemID uuid.UUID, available, allowance, requested decimal.Decimal) error {
	return fmt.Errorf("%w: item %s, available %s, allowance %s, requested %s",
		ErrInsufficientAvailableWithAllowance, itemID, available.String(), allowance.String(), requested.String())
}
