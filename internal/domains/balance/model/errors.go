package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrBalanceRowMissing is returned when a row is absent after ensure.
	ErrBalanceRowMissing = errors.New("balance row missing")

	// ErrNegativeCounter is returned when a delta would push reserved or
	// allocated below -epsilon.
	ErrNegativeCounter = errors.New("balance counter would go negative")
)

func NewNegativeCounterError(counter string, value decimal.Decimal) error {
	return fmt.Errorf("%w: %s=%s", ErrNegativeCounter, counter, value.String())
}
