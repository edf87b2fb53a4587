package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fulfillment-backend/pkg/quantity"
)

// CreateLineRequest is one requested reservation inside a create batch.
// WarehouseID is optional; when given it must agree with the warehouse
// derived from the location and the demand.
type CreateLineRequest struct {
	DemandType  DemandType `json:"demand_type"`
	DemandID    uuid.UUID  `json:"demand_id"`
	ItemID      uuid.UUID  `json:"item_id"`
	LocationID  uuid.UUID  `json:"location_id"`
	Quantity    string     `json:"quantity"`
	Uom         string     `json:"uom"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (r CreateLineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DemandType, validation.Required, validation.In(
			DemandSalesOrderLine, DemandWorkOrder, DemandTransferOrder)),
		validation.Field(&r.DemandID, validation.Required, validation.By(validateUUID)),
		validation.Field(&r.ItemID, validation.Required, validation.By(validateUUID)),
		validation.Field(&r.LocationID, validation.Required, validation.By(validateUUID)),
		validation.Field(&r.Quantity, validation.Required, validation.By(validatePositiveQuantity)),
		validation.Field(&r.Uom, validation.Required),
	)
}

// ParsedQuantity returns the line quantity as a decimal. Validate must have
// passed first.
func (r CreateLineRequest) ParsedQuantity() decimal.Decimal {
	q, _ := decimal.NewFromString(r.Quantity)
	return quantity.Round(q)
}

// CreateRequest is the create-reservations batch body.
type CreateRequest struct {
	Reservations   []CreateLineRequest `json:"reservations"`
	IdempotencyKey *string             `json:"idempotency_key,omitempty"`
	AllowBackorder *bool               `json:"allow_backorder,omitempty"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reservations, validation.Required, validation.Length(1, 100)),
	)
}

// FulfillRequest carries the incremental consume quantity.
type FulfillRequest struct {
	Quantity string `json:"quantity"`
}

func (r FulfillRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.Required, validation.By(validatePositiveQuantity)),
	)
}

// ParsedQuantity returns the fulfill quantity as a decimal.
func (r FulfillRequest) ParsedQuantity() decimal.Decimal {
	q, _ := decimal.NewFromString(r.Quantity)
	return quantity.Round(q)
}

// CancelRequest carries the optional cancel reason.
type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func validateUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return validation.NewError("validation_uuid", "must be a non-nil UUID")
	}
	return nil
}

func validatePositiveQuantity(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_quantity", "must be a decimal string")
	}
	q, err := decimal.NewFromString(s)
	if err != nil {
		return validation.NewError("validation_quantity", "must be a decimal string")
	}
	if !quantity.IsPositive(q) {
		return validation.NewError("validation_quantity", "must be positive")
	}
	return nil
}

// Response is the reservation view returned to callers.
type Response struct {
	ID                uuid.UUID  `json:"id"`
	WarehouseID       uuid.UUID  `json:"warehouse_id"`
	DemandType        DemandType `json:"demand_type"`
	DemandID          uuid.UUID  `json:"demand_id"`
	ItemID            uuid.UUID  `json:"item_id"`
	LocationID        uuid.UUID  `json:"location_id"`
	CanonicalUom      string     `json:"canonical_uom"`
	State             State      `json:"state"`
	QuantityReserved  string     `json:"quantity_reserved"`
	QuantityFulfilled string     `json:"quantity_fulfilled"`
	QuantityBackorder string     `json:"quantity_backordered,omitempty"`
	ReservedAt        time.Time  `json:"reserved_at"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BackorderResponse is the backorder view returned to callers.
type BackorderResponse struct {
	DemandType          DemandType `json:"demand_type"`
	DemandID            uuid.UUID  `json:"demand_id"`
	ItemID              uuid.UUID  `json:"item_id"`
	LocationID          uuid.UUID  `json:"location_id"`
	Uom                 string     `json:"uom"`
	QuantityBackordered string     `json:"quantity_backordered"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ToResponse converts a Backorder to its view.
func (b Backorder) ToResponse() BackorderResponse {
	return BackorderResponse{
		DemandType:          b.DemandType,
		DemandID:            b.DemandID,
		ItemID:              b.ItemID,
		LocationID:          b.LocationID,
		Uom:                 b.Uom,
		QuantityBackordered: b.QuantityBackordered.String(),
		UpdatedAt:           b.UpdatedAt,
	}
}

// ToResponse converts a Reservation to its view.
func (r *Reservation) ToResponse() Response {
	return Response{
		ID:                r.ID,
		WarehouseID:       r.WarehouseID,
		DemandType:        r.DemandType,
		DemandID:          r.DemandID,
		ItemID:            r.ItemID,
		LocationID:        r.LocationID,
		CanonicalUom:      r.CanonicalUom,
		State:             r.State,
		QuantityReserved:  r.QuantityReserved.String(),
		QuantityFulfilled: r.QuantityFulfilled.String(),
		ReservedAt:        r.ReservedAt,
		ExpiresAt:         r.ExpiresAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
