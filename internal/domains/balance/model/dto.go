package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityView is one balance row as served to callers.
type AvailabilityView struct {
	ItemID      uuid.UUID `json:"item_id"`
	LocationID  uuid.UUID `json:"location_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Uom         string    `json:"uom"`
	OnHand      string    `json:"on_hand"`
	Reserved    string    `json:"reserved"`
	Allocated   string    `json:"allocated"`
	Available   string    `json:"available"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToAvailabilityView builds the view for one balance row.
func (b Balance) ToAvailabilityView(warehouseID uuid.UUID) AvailabilityView {
	return AvailabilityView{
		ItemID:      b.ItemID,
		LocationID:  b.LocationID,
		WarehouseID: warehouseID,
		Uom:         b.Uom,
		OnHand:      b.OnHand.String(),
		Reserved:    b.Reserved.String(),
		Allocated:   b.Allocated.String(),
		Available:   b.Available().String(),
		UpdatedAt:   b.UpdatedAt,
	}
}
