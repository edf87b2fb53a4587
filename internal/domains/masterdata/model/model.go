package model

import (
	"github.com/google/uuid"
)

// Item is the read-side projection of an item the core needs.
type Item struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	SKU          string
	CanonicalUom string
}

// Location is the read-side projection of a stock location.
type Location struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	WarehouseID uuid.UUID
	Code        string
	Sellable    bool
}

// SalesOrderLine is the demand line a reservation or shipment binds to.
type SalesOrderLine struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	SalesOrderID uuid.UUID
	ItemID       uuid.UUID
	WarehouseID  uuid.UUID
}
