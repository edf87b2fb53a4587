package model

import (
	"github.com/shopspring/decimal"

	"fulfillment-backend/pkg/quantity"
)

// ConsumePlan splits one issue quantity between the matched reservation and
// strict availability.
type ConsumePlan struct {
	// ReserveConsume is the share drawn from the reservation's open
	// remainder; the same quantity is released from the balance's
	// reserved/allocated counters in the posting transaction.
	ReserveConsume decimal.Decimal

	// NetNew is the consumption left over after the reservation's share,
	// charged against strict availability by the negative-stock check.
	NetNew decimal.Decimal
}

// PlanLineConsumption computes the reservation share for one shipment line.
// A zero or negative remainder (no reservation, or one already drained)
// plans the whole issue as net new consumption.
func PlanLineConsumption(issueQty, reservationRemaining decimal.Decimal) ConsumePlan {
	open := quantity.ClampFloor(reservationRemaining, decimal.Zero)
	rc := quantity.Round(decimal.Min(issueQty, open))
	return ConsumePlan{
		ReserveConsume: rc,
		NetNew:         quantity.Round(quantity.ClampFloor(issueQty.Sub(rc), decimal.Zero)),
	}
}

// AllowanceCovers reports whether availability plus the reservation share
// covers the issue within epsilon. This is the only place consumption may
// borrow beyond strict availability.
func AllowanceCovers(available, reserveConsume, issueQty decimal.Decimal) bool {
	return quantity.GTE(available.Add(reserveConsume), issueQty)
}
