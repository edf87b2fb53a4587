package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	uomModel "fulfillment-backend/internal/domains/uom/model"
)

// MovementType classifies what a movement does to stock.
type MovementType string

const (
	MovementIssue      MovementType = "issue"
	MovementReceive    MovementType = "receive"
	MovementTransfer   MovementType = "transfer"
	MovementAdjustment MovementType = "adjustment"
)

// Status is the movement lifecycle. Posted movements are immutable.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusPosted Status = "posted"
)

// Movement is the header of one stock movement. ExternalRef is unique per
// tenant; IdempotencyKey, when present, is unique per tenant too.
type Movement struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	MovementType   MovementType
	Status         Status
	ExternalRef    string
	SourceType     *string
	SourceID       *uuid.UUID
	IdempotencyKey *string
	OccurredAt     time.Time
	PostedAt       *time.Time
	Metadata       map[string]any
	Lines          []Line
}

// Policy carries the posting-time enforcement toggles.
type Policy struct {
	RequireExternalRef     bool
	RequireCanonicalFields bool
	CanonicalRequiredAfter time.Time
}

// ValidateForPost checks a movement against the posting policy before it is
// written. Posted movements must carry at least one line; the canonical-field
// requirement applies only to movements occurring after the cutover.
func (m *Movement) ValidateForPost(p Policy) error {
	if m.Status == StatusPosted && len(m.Lines) == 0 {
		return ErrPostedMovementNoLines
	}
	if p.RequireExternalRef && m.ExternalRef == "" {
		return ErrExternalRefRequired
	}
	if p.RequireCanonicalFields && m.OccurredAt.After(p.CanonicalRequiredAfter) {
		for _, l := range m.Lines {
			if l.CanonicalUom == "" || l.UomEntered == "" {
				return ErrCanonicalFieldsRequired
			}
		}
	}
	return nil
}

// Line is one movement line. Quantities are stored canonically, with the
// entered pair retained for audit.
type Line struct {
	ID                    uuid.UUID
	MovementID            uuid.UUID
	ItemID                uuid.UUID
	LocationID            uuid.UUID
	QuantityDelta         decimal.Decimal
	Uom                   string
	QuantityDeltaEntered  decimal.Decimal
	UomEntered            string
	QuantityDeltaCanonical decimal.Decimal
	CanonicalUom          string
	UomDimension          uomModel.Dimension
	UnitCost              *decimal.Decimal
	ExtendedCost          *decimal.Decimal
	ReasonCode            *string
}
