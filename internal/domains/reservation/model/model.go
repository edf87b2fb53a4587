package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fulfillment-backend/pkg/quantity"
)

// State is the reservation lifecycle. FULFILLED, CANCELLED and EXPIRED are
// terminal and contribute nothing to reserved or allocated.
type State string

const (
	StateReserved  State = "RESERVED"
	StateAllocated State = "ALLOCATED"
	StateFulfilled State = "FULFILLED"
	StateCancelled State = "CANCELLED"
	StateExpired   State = "EXPIRED"
)

var transitions = map[State]map[State]bool{
	StateReserved: {
		StateAllocated: true,
		StateCancelled: true,
		StateExpired:   true,
	},
	StateAllocated: {
		StateFulfilled: true,
		StateCancelled: true,
	},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s State) CanTransitionTo(next State) bool {
	return transitions[s][next]
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// DemandType classifies what a reservation is held for.
type DemandType string

const (
	DemandSalesOrderLine DemandType = "sales_order_line"
	DemandWorkOrder      DemandType = "work_order"
	DemandTransferOrder  DemandType = "transfer_order"
)

// Reservation holds quantity against a demand line. The demand tuple
// (tenant, warehouse, demandType, demandId, item, location, canonicalUom) is
// unique while the reservation is non-terminal.
type Reservation struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	WarehouseID       uuid.UUID
	DemandType        DemandType
	DemandID          uuid.UUID
	ItemID            uuid.UUID
	LocationID        uuid.UUID
	CanonicalUom      string
	State             State
	QuantityReserved  decimal.Decimal
	QuantityFulfilled decimal.Decimal
	ReservedAt        time.Time
	AllocatedAt       *time.Time
	FulfilledAt       *time.Time
	CanceledAt        *time.Time
	ExpiredAt         *time.Time
	ExpiresAt         *time.Time
	IdempotencyKey    *string
	CancelReason      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Remaining is the open quantity: reserved minus fulfilled.
func (r Reservation) Remaining() decimal.Decimal {
	return quantity.Round(r.QuantityReserved.Sub(r.QuantityFulfilled))
}

// DemandTuple is the invariant key a non-terminal reservation holds
// exclusively.
type DemandTuple struct {
	WarehouseID  uuid.UUID
	DemandType   DemandType
	DemandID     uuid.UUID
	ItemID       uuid.UUID
	LocationID   uuid.UUID
	CanonicalUom string
}

// Tuple returns the reservation's demand tuple.
func (r Reservation) Tuple() DemandTuple {
	return DemandTuple{
		WarehouseID:  r.WarehouseID,
		DemandType:   r.DemandType,
		DemandID:     r.DemandID,
		ItemID:       r.ItemID,
		LocationID:   r.LocationID,
		CanonicalUom: r.CanonicalUom,
	}
}

// EventType labels one reservation event.
type EventType string

const (
	EventReserved  EventType = "RESERVED"
	EventAllocated EventType = "ALLOCATED"
	EventCancelled EventType = "CANCELLED"
	EventExpired   EventType = "EXPIRED"
	EventFulfilled EventType = "FULFILLED"
)

// Event is one append-only ledger row. Summing deltas over a reservation's
// events reproduces its current contribution to reserved and allocated.
type Event struct {
	ID             uuid.UUID
	ReservationID  uuid.UUID
	TenantID       uuid.UUID
	EventType      EventType
	DeltaReserved  decimal.Decimal
	DeltaAllocated decimal.Decimal
	OccurredAt     time.Time
}

// Backorder accumulates demand the balance could not cover.
type Backorder struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	DemandType          DemandType
	DemandID            uuid.UUID
	ItemID              uuid.UUID
	LocationID          uuid.UUID
	Uom                 string
	QuantityBackordered decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ChangedPayload is the outbox payload for inventory.reservation.changed.
// EventID is fresh per emission and doubles as the consumer dedup key.
type ChangedPayload struct {
	EventID       uuid.UUID  `json:"event_id"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	WarehouseID   uuid.UUID  `json:"warehouse_id"`
	ItemID        uuid.UUID  `json:"item_id"`
	LocationID    uuid.UUID  `json:"location_id"`
	CanonicalUom  string     `json:"canonical_uom"`
	DemandType    DemandType `json:"demand_type"`
	DemandID      uuid.UUID  `json:"demand_id"`
	State         State      `json:"state"`
}
