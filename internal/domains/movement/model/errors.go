package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMovementNotFound is returned for an unknown movement.
	ErrMovementNotFound = errors.New("inventory movement not found")

	// ErrDuplicateExternalRef is returned when a tenant reuses an
	// external ref for a different movement.
	ErrDuplicateExternalRef = errors.New("movement external ref already used")

	// ErrExternalRefRequired is returned when the enforce-external-ref
	// policy is on and no ref was supplied.
	ErrExternalRefRequired = errors.New("movement external ref required")

	// ErrCanonicalFieldsRequired is returned when the canonical-fields
	// policy applies to the movement's occurredAt and a line is missing
	// the entered+canonical triplets.
	ErrCanonicalFieldsRequired = errors.New("movement line canonical fields required")

	// ErrPostedMovementNoLines is returned when posting a movement with
	// no lines.
	ErrPostedMovementNoLines = errors.New("posted movement must have at least one line")
)

func NewDuplicateExternalRefError(ref string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateExternalRef, ref)
}
