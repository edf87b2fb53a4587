package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fulfillment-backend/pkg/quantity"
)

// Line is one consumption the caller intends to post against a balance row.
// Quantities are canonical.
type Line struct {
	ItemID            uuid.UUID
	LocationID        uuid.UUID
	Uom               string
	QuantityToConsume decimal.Decimal
	// Allowance is extra headroom beyond strict availability. The only
	// caller that sets it is shipment posting, which releases the same
	// quantity from reserved in the same transaction.
	Allowance decimal.Decimal
}

// OverrideRequest carries the caller's intent to consume below zero.
type OverrideRequest struct {
	Requested bool
	Reason    string
	Reference string
}

// OverrideMetadata is recorded on the movement and in audit when an
// authorized override let the posting proceed.
type OverrideMetadata struct {
	Reason    string `json:"override_reason"`
	Reference string `json:"override_reference,omitempty"`
	ActorID   string `json:"actor"`
}

// Shortfall describes one line that strict availability cannot cover.
type Shortfall struct {
	ItemID     uuid.UUID
	LocationID uuid.UUID
	Uom        string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

// Covered reports whether availability plus allowance covers the consumption
// within epsilon.
func (l Line) Covered(available decimal.Decimal) bool {
	return quantity.GTE(available.Add(l.Allowance), l.QuantityToConsume)
}

// Decide applies the negative-stock policy to the observed shortfalls.
// No shortfalls: proceed without override metadata. Otherwise the caller
// must have requested an override, the actor must hold the capability, and
// a reason must be given.
func Decide(shortfalls []Shortfall, req OverrideRequest, actorID string, actorAuthorized bool) (*OverrideMetadata, error) {
	if len(shortfalls) == 0 {
		return nil, nil
	}
	if !req.Requested {
		return nil, NewInsufficientStockError(shortfalls)
	}
	if !actorAuthorized {
		return nil, ErrOverrideNotAllowed
	}
	if req.Reason == "" {
		return nil, ErrOverrideRequiresReason
	}
	return &OverrideMetadata{Reason: req.Reason, Reference: req.Reference, ActorID: actorID}, nil
}
