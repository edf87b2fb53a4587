package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned for an unknown reservation id.
	ErrNotFound = errors.New("reservation not found")

	// ErrInvalidState is returned when the lifecycle forbids the requested
	// transition.
	ErrInvalidState = errors.New("reservation state does not permit this operation")

	// ErrInvalidQuantity is returned for non-positive or sub-epsilon
	// quantities.
	ErrInvalidQuantity = errors.New("reservation quantity is invalid")

	// ErrConflict is returned when a non-terminal reservation already holds
	// the demand tuple and cannot be resolved idempotently.
	ErrConflict = errors.New("conflicting reservation exists for this demand")

	// ErrLocationNotSellable is returned when the location cannot serve
	// sales demand.
	ErrLocationNotSellable = errors.New("location is not sellable")

	// ErrInsufficientAvailable is returned when demand exceeds availability
	// and backorders are disabled.
	ErrInsufficientAvailable = errors.New("insufficient available quantity")

	// ErrConcurrencyExhausted is returned after the serializable retry
	// budget is spent. Callers may retry the whole request.
	ErrConcurrencyExhausted = errors.New("concurrent inventory activity, retries exhausted")

	// ErrWarehouseScopeRequired is returned when no source can supply the
	// warehouse scope.
	ErrWarehouseScopeRequired = errors.New("warehouse scope required")

	// ErrWarehouseScopeMismatch is returned when known warehouse sources
	// disagree.
	ErrWarehouseScopeMismatch = errors.New("warehouse scope mismatch")
)

func NewInvalidStateError(state State, operation string) error {
	return fmt.Errorf("%w: cannot %s a %s reservation", ErrInvalidState, operation, state)
}

func NewInvalidQuantityError(qty decimal.Decimal) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuantity, qty.String())
}

func NewInsufficientAvailableError(available, requested decimal.Decimal) error {
	return fmt.Errorf("%w: available %s, requested %s", ErrInsufficientAvailable, available.String(), requested.String())
}

func NewConcurrencyExhaustedError(attempts int, err error) error {
	return fmt.Errorf("%w after %d attempts: %w", ErrConcurrencyExhausted, attempts, err)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyExhausted)
}
