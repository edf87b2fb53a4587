package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInProgress is returned when another execution currently holds the
	// same idempotency key.
	ErrInProgress = errors.New("operation with this idempotency key is in progress")

	// ErrConflict is returned when a key is reused with a different
	// request body.
	ErrConflict = errors.New("idempotency key reused with a different request body")
)

// OperationInProgressError tags ErrInProgress with the operation holding the
// key, so handlers can emit per-operation error codes.
type OperationInProgressError struct {
	Op string
}

func (e *OperationInProgressError) Error() string {
	return fmt.Sprintf("%s: another execution with this idempotency key is in progress", e.Op)
}

func (e *OperationInProgressError) Unwrap() error { return ErrInProgress }

// Code is the per-operation error code, e.g. RESERVATION_ALLOCATE_IN_PROGRESS.
func (e *OperationInProgressError) Code() string {
	return strings.ToUpper(e.Op) + "_IN_PROGRESS"
}

func NewOperationInProgressError(op string) error {
	return &OperationInProgressError{Op: op}
}

// InProgressCode extracts the per-operation code from an in-progress error,
// falling back to the generic code when the operation is unknown.
func InProgressCode(err error) string {
	var inProg *OperationInProgressError
	if errors.As(err, &inProg) {
		return inProg.Code()
	}
	return "OPERATION_IN_PROGRESS"
}
