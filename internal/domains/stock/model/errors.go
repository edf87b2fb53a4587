package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientStock is returned when availability cannot cover the
	// requested consumption and no override was requested.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOverrideNotAllowed is returned when the actor lacks the
	// negative-stock override capability.
	ErrOverrideNotAllowed = errors.New("negative stock override not allowed")

	// ErrOverrideRequiresReason is returned when an override is requested
	// without a reason.
	ErrOverrideRequiresReason = errors.New("negative stock override requires a reason")
)

func NewInsufficientStockError(shortfalls []Shortfall) error {
	parts := make([]string, 0, len(shortfalls))
	for _, s := range shortfalls {
		parts = append(parts, fmt.Sprintf("item %s at %s: available %s, requested %s",
			s.ItemID, s.LocationID, s.Available.String(), s.Requested.String()))
	}
	return fmt.Errorf("%w: %s", ErrInsufficientStock, strings.Join(parts, "; "))
}

func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
