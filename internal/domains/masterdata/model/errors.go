package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound           = errors.New("item not found")
	ErrLocationNotFound       = errors.New("location not found")
	ErrSalesOrderLineNotFound = errors.New("sales order line not found")
)

func NewItemNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrItemNotFound, id)
}

func NewLocationNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrLocationNotFound, id)
}

func NewSalesOrderLineNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrSalesOrderLineNotFound, id)
}
