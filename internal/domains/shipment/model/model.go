package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the shipment lifecycle. Posting is the only transition the core
// performs; creation and cancellation belong to order management.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPosted   Status = "posted"
	StatusCanceled Status = "canceled"
)

// Shipment is a sales-order shipment header. Posting links it to the
// inventory movement that consumed the stock.
type Shipment struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	SalesOrderID         uuid.UUID
	ShipFromLocationID   uuid.UUID
	Status               Status
	PostedAt             *time.Time
	PostedIdempotencyKey *string
	MovementID           *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Line is one shipment line against a sales-order line.
type Line struct {
	ID               uuid.UUID
	ShipmentID       uuid.UUID
	SalesOrderLineID uuid.UUID
	ItemID           uuid.UUID
	QuantityShipped  decimal.Decimal
	Uom              string
	CreatedAt        time.Time
}

// PostRequest is the post-shipment body. The idempotency key arrives in the
// Idempotency-Key header.
type PostRequest struct {
	OverrideRequested bool   `json:"override_requested"`
	OverrideReason    string `json:"override_reason,omitempty"`
	OverrideReference string `json:"override_reference,omitempty"`
}

// LineResponse is one posted line view.
type LineResponse struct {
	ID               uuid.UUID `json:"id"`
	SalesOrderLineID uuid.UUID `json:"sales_order_line_id"`
	ItemID           uuid.UUID `json:"item_id"`
	QuantityShipped  string    `json:"quantity_shipped"`
	Uom              string    `json:"uom"`
}

// Response is the shipment view returned after posting.
type Response struct {
	ID           uuid.UUID      `json:"id"`
	SalesOrderID uuid.UUID      `json:"sales_order_id"`
	Status       Status         `json:"status"`
	PostedAt     *time.Time     `json:"posted_at,omitempty"`
	MovementID   *uuid.UUID     `json:"movement_id,omitempty"`
	Lines        []LineResponse `json:"lines"`
}

// ToResponse builds the view for a shipment and its lines.
func (s *Shipment) ToResponse(lines []Line) Response {
	out := Response{
		ID:           s.ID,
		SalesOrderID: s.SalesOrderID,
		Status:       s.Status,
		PostedAt:     s.PostedAt,
		MovementID:   s.MovementID,
		Lines:        make([]LineResponse, 0, len(lines)),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, LineResponse{
			ID:               l.ID,
			SalesOrderLineID: l.SalesOrderLineID,
			ItemID:           l.ItemID,
			QuantityShipped:  l.QuantityShipped.String(),
			Uom:              l.Uom,
		})
	}
	return out
}
