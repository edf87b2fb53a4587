package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLine() CreateLineRequest {
	return CreateLineRequest{
		DemandType: DemandSalesOrderLine,
		DemandID:   uuid.New(),
		ItemID:     uuid.New(),
		LocationID: uuid.New(),
		Quantity:   "5",
		Uom:        "each",
	}
}

func TestCreateLineRequestValidate(t *testing.T) {
	assert.NoError(t, validLine().Validate())

	bad := validLine()
	bad.DemandType = "purchase_order"
	assert.Error(t, bad.Validate())

	bad = validLine()
	bad.DemandID = uuid.Nil
	assert.Error(t, bad.Validate())

	bad = validLine()
	bad.Quantity = "0"
	assert.Error(t, bad.Validate())

	bad = validLine()
	bad.Quantity = "-2"
	assert.Error(t, bad.Validate())

	bad = validLine()
	bad.Quantity = "not-a-number"
	assert.Error(t, bad.Validate())

	bad = validLine()
	bad.Uom = ""
	assert.Error(t, bad.Validate())
}

func TestCreateLineRequestParsedQuantity(t *testing.T) {
	line := validLine()
	line.Quantity = "2.5000004"

	require.NoError(t, line.Validate())
	assert.True(t, dec("2.5").Equal(line.ParsedQuantity()))
}

func TestCreateRequestValidate(t *testing.T) {
	assert.Error(t, CreateRequest{}.Validate())

	req := CreateRequest{Reservations: []CreateLineRequest{validLine()}}
	assert.NoError(t, req.Validate())

	lines := make([]CreateLineRequest, 101)
	for i := range lines {
		lines[i] = validLine()
	}
	assert.Error(t, CreateRequest{Reservations: lines}.Validate())
}

func TestFulfillRequestValidate(t *testing.T) {
	assert.NoError(t, FulfillRequest{Quantity: "3"}.Validate())
	assert.Error(t, FulfillRequest{}.Validate())
	assert.Error(t, FulfillRequest{Quantity: "0"}.Validate())
}
