package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func postedMovement() Movement {
	return Movement{
		Status:      StatusPosted,
		ExternalRef: "shipment:1",
		OccurredAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Lines: []Line{
			{CanonicalUom: "each", UomEntered: "each"},
		},
	}
}

func TestValidateForPost(t *testing.T) {
	cutover := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	strict := Policy{
		RequireExternalRef:     true,
		RequireCanonicalFields: true,
		CanonicalRequiredAfter: cutover,
	}

	m := postedMovement()
	assert.NoError(t, m.ValidateForPost(strict))
	assert.NoError(t, m.ValidateForPost(Policy{}))

	m = postedMovement()
	m.Lines = nil
	assert.True(t, errors.Is(m.ValidateForPost(strict), ErrPostedMovementNoLines))

	m = postedMovement()
	m.ExternalRef = ""
	assert.True(t, errors.Is(m.ValidateForPost(strict), ErrExternalRefRequired))
	assert.NoError(t, m.ValidateForPost(Policy{RequireCanonicalFields: true, CanonicalRequiredAfter: cutover}))

	m = postedMovement()
	m.Lines[0].CanonicalUom = ""
	assert.True(t, errors.Is(m.ValidateForPost(strict), ErrCanonicalFieldsRequired))

	// Movements from before the cutover are exempt from the canonical rule.
	m = postedMovement()
	m.Lines[0].CanonicalUom = ""
	m.OccurredAt = cutover.AddDate(0, -1, 0)
	assert.NoError(t, m.ValidateForPost(strict))
}
