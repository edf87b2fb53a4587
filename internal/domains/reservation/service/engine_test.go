package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/pkg/database"
)

func TestResolveWarehouse(t *testing.T) {
	e := &Engine{}
	ctx := context.Background()
	tenantID := uuid.New()
	wh := uuid.New()
	other := uuid.New()

	// Work orders carry no sales order scope, so only the location and the
	// explicit request warehouse participate.
	line := model.CreateLineRequest{DemandType: model.DemandWorkOrder}

	got, err := e.resolveWarehouse(ctx, nil, tenantID, line, wh)
	require.NoError(t, err)
	assert.Equal(t, wh, got)

	line.WarehouseID = &wh
	got, err = e.resolveWarehouse(ctx, nil, tenantID, line, wh)
	require.NoError(t, err)
	assert.Equal(t, wh, got)

	line.WarehouseID = &other
	_, err = e.resolveWarehouse(ctx, nil, tenantID, line, wh)
	assert.True(t, errors.Is(err, model.ErrWarehouseScopeMismatch))

	line.WarehouseID = nil
	_, err = e.resolveWarehouse(ctx, nil, tenantID, line, uuid.Nil)
	assert.True(t, errors.Is(err, model.ErrWarehouseScopeRequired))
}

func TestLineIdempotencyKey(t *testing.T) {
	wh := uuid.New()
	line := model.CreateLineRequest{
		DemandID:   uuid.New(),
		ItemID:     uuid.New(),
		LocationID: uuid.New(),
	}

	key := lineIdempotencyKey("order-42", line, wh, "each")
	assert.Contains(t, key, "order-42")
	assert.Contains(t, key, line.DemandID.String())
	assert.Contains(t, key, wh.String())

	// Same inputs, same key; a different item, a different key.
	assert.Equal(t, key, lineIdempotencyKey("order-42", line, wh, "each"))
	otherLine := line
	otherLine.ItemID = uuid.New()
	assert.NotEqual(t, key, lineIdempotencyKey("order-42", otherLine, wh, "each"))
}

func TestMapRetryError(t *testing.T) {
	exhausted := &database.ErrRetriesExhausted{
		Attempts: 6,
		LastCode: "40001",
		Err:      &pgconn.PgError{Code: "40001"},
	}

	err := mapRetryError(exhausted)
	assert.True(t, errors.Is(err, model.ErrConcurrencyExhausted))
	assert.True(t, model.IsRetryable(err))

	passthrough := mapRetryError(model.ErrNotFound)
	assert.True(t, errors.Is(passthrough, model.ErrNotFound))
}
