package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	auditModel "fulfillment-backend/internal/domains/audit/model"
	balanceModel "fulfillment-backend/internal/domains/balance/model"
	idemModel "fulfillment-backend/internal/domains/idempotency/model"
	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/utils"
	"fulfillment-backend/pkg/database"
	"fulfillment-backend/pkg/quantity"
)

// mutationFunc applies one lifecycle change to a row-locked reservation.
type mutationFunc func(ctx context.Context, tx pgx.Tx, res *model.Reservation, now time.Time) error

// mutate wraps a single-reservation lifecycle change in the full protocol:
// idempotency claim, advisory lock, row lock, mutation, idempotency
// completion, cache invalidation. The mutation runs inside a SERIALIZABLE
// transaction with the standard retry budget.
func (e *Engine) mutate(ctx context.Context, tenantID, id uuid.UUID, op string, idemKey *string, body any, fn mutationFunc) (*model.Response, error) {
	var warehouseID uuid.UUID

	view, err := database.WithSerializableRetryResult(ctx, e.pool, e.cfg.SerializableRetries,
		func(tx pgx.Tx) (*model.Response, error) {
			scopedKey := ""
			if idemKey != nil {
				scopedKey = fmt.Sprintf("reservation:%s:%s", op, *idemKey)
				hash, err := utils.HashBody(body)
				if err != nil {
					return nil, err
				}
				begin, err := e.idempotency.Begin(ctx, tx, scopedKey, hash)
				if err != nil {
					if errors.Is(err, idemModel.ErrInProgress) {
						return nil, idemModel.NewOperationInProgressError("reservation_" + op)
					}
					return nil, err
				}
				if begin.Outcome == idemModel.OutcomeShortCircuit {
					return e.viewFromEntityRef(ctx, tx, tenantID, begin.EntityRef)
				}
			}

			// Read the scope first so the advisory lock precedes the row
			// lock, per the global lock order.
			peek, err := e.reservations.GetByID(ctx, tx, tenantID, id)
			if err != nil {
				return nil, err
			}
			warehouseID = peek.WarehouseID

			if err := database.AcquireAdvisoryLocks(ctx, tx, []database.AdvisoryKey{
				database.ATPAdvisoryKey(tenantID.String(), peek.WarehouseID.String(), peek.ItemID.String()),
			}); err != nil {
				return nil, err
			}

			res, err := e.reservations.LockByID(ctx, tx, tenantID, id)
			if err != nil {
				return nil, err
			}

			now := time.Now().UTC()
			if err := fn(ctx, tx, res, now); err != nil {
				return nil, err
			}

			if idemKey != nil {
				ref := res.ID.String()
				if err := e.idempotency.Complete(ctx, tx, scopedKey, idemModel.StatusSucceeded, &ref); err != nil {
					return nil, err
				}
			}

			v := res.ToResponse()
			return &v, nil
		})
	if err != nil {
		return nil, mapRetryError(err)
	}

	if warehouseID != uuid.Nil {
		e.invalidateATPCache(ctx, tenantID, []uuid.UUID{warehouseID})
	}
	return view, nil
}

func (e *Engine) viewFromEntityRef(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, ref *string) (*model.Response, error) {
	if ref == nil {
		return nil, model.ErrNotFound
	}
	refID, err := uuid.Parse(*ref)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation reference %q: %w", *ref, err)
	}
	res, err := e.reservations.GetByID(ctx, tx, tenantID, refID)
	if err != nil {
		return nil, err
	}
	v := res.ToResponse()
	return &v, nil
}

// Allocate moves the full open quantity from reserved to allocated. Only a
// RESERVED reservation with a positive remainder may allocate.
func (e *Engine) Allocate(ctx context.Context, tenantID, id uuid.UUID, idemKey *string, act actor.Actor) (*model.Response, error) {
	body := map[string]string{"op": "allocate", "reservation_id": id.String()}

	return e.mutate(ctx, tenantID, id, "allocate", idemKey, body,
		func(ctx context.Context, tx pgx.Tx, res *model.Reservation, now time.Time) error {
			if res.State != model.StateReserved {
				return model.NewInvalidStateError(res.State, "allocate")
			}
			open := res.Remaining()
			if !quantity.IsPositive(open) {
				return model.NewInvalidQuantityError(open)
			}

			if _, err := e.balances.ApplyDelta(ctx, tx, balanceKey(res), balanceModel.Delta{
				Reserved:  open.Neg(),
				Allocated: open,
			}); err != nil {
				return err
			}

			res.State = model.StateAllocated
			res.AllocatedAt = &now
			res.UpdatedAt = now
			if err := e.reservations.Update(ctx, tx, res); err != nil {
				return err
			}

			if err := e.recordChange(ctx, tx, res, model.EventAllocated, open.Neg(), open, now); err != nil {
				return err
			}
			return e.audit.Insert(ctx, tx, auditModel.Entry{
				TenantID:   tenantID,
				Action:     "allocate",
				EntityType: "reservation",
				EntityID:   res.ID,
				ActorID:    act.ID,
				Metadata:   map[string]any{"quantity_allocated": open.String()},
			})
		})
}

// Cancel releases the open remainder of a RESERVED or ALLOCATED reservation.
// Cancelling an ALLOCATED reservation releases its allocated counter.
func (e *Engine) Cancel(ctx context.Context, tenantID, id uuid.UUID, req model.CancelRequest, idemKey *string, act actor.Actor) (*model.Response, error) {
	body := map[string]any{"op": "cancel", "reservation_id": id.String(), "reason": req.Reason}

	return e.mutate(ctx, tenantID, id, "cancel", idemKey, body,
		func(ctx context.Context, tx pgx.Tx, res *model.Reservation, now time.Time) error {
			remaining := res.Remaining()

			var delta balanceModel.Delta
			var deltaReserved, deltaAllocated decimal.Decimal
			switch res.State {
			case model.StateReserved:
				delta = balanceModel.Delta{Reserved: remaining.Neg()}
				deltaReserved = remaining.Neg()
			case model.StateAllocated:
				delta = balanceModel.Delta{Allocated: remaining.Neg()}
				deltaAllocated = remaining.Neg()
			default:
				return model.NewInvalidStateError(res.State, "cancel")
			}

			if _, err := e.balances.ApplyDelta(ctx, tx, balanceKey(res), delta); err != nil {
				return err
			}

			res.State = model.StateCancelled
			res.CanceledAt = &now
			res.CancelReason = req.Reason
			res.UpdatedAt = now
			if err := e.reservations.Update(ctx, tx, res); err != nil {
				return err
			}

			if err := e.recordChange(ctx, tx, res, model.EventCancelled, deltaReserved, deltaAllocated, now); err != nil {
				return err
			}
			return e.audit.Insert(ctx, tx, auditModel.Entry{
				TenantID:   tenantID,
				Action:     "cancel",
				EntityType: "reservation",
				EntityID:   res.ID,
				ActorID:    act.ID,
				Metadata:   map[string]any{"quantity_released": remaining.String()},
			})
		})
}

// Fulfill consumes qty from an ALLOCATED reservation. qty is incremental
// ("consume now"), clamped to the open remainder; reaching the reserved
// quantity within epsilon completes the reservation.
func (e *Engine) Fulfill(ctx context.Context, tenantID, id uuid.UUID, qty decimal.Decimal, idemKey *string, act actor.Actor) (*model.Response, error) {
	body := map[string]string{"op": "fulfill", "reservation_id": id.String(), "quantity": qty.String()}

	return e.mutate(ctx, tenantID, id, "fulfill", idemKey, body,
		func(ctx context.Context, tx pgx.Tx, res *model.Reservation, now time.Time) error {
			if res.State != model.StateAllocated {
				return model.NewInvalidStateError(res.State, "fulfill")
			}

			plan, err := model.PlanFulfill(*res, qty)
			if err != nil {
				return err
			}

			if _, err := e.balances.ApplyDelta(ctx, tx, balanceKey(res), balanceModel.Delta{
				Allocated: plan.ConsumeQty.Neg(),
			}); err != nil {
				return err
			}

			res.QuantityFulfilled = plan.NewFulfilled
			eventType := model.EventAllocated
			if plan.Complete {
				res.State = model.StateFulfilled
				res.FulfilledAt = &now
				eventType = model.EventFulfilled
			}
			res.UpdatedAt = now
			if err := e.reservations.Update(ctx, tx, res); err != nil {
				return err
			}

			if err := e.recordChange(ctx, tx, res, eventType, decimal.Zero, plan.ConsumeQty.Neg(), now); err != nil {
				return err
			}
			return e.audit.Insert(ctx, tx, auditModel.Entry{
				TenantID:   tenantID,
				Action:     "fulfill",
				EntityType: "reservation",
				EntityID:   res.ID,
				ActorID:    act.ID,
				Metadata:   map[string]any{"quantity_fulfilled": plan.ConsumeQty.String()},
			})
		})
}

// ExpireDue releases every RESERVED reservation whose expiry has passed, up
// to batchSize rows per sweep. Rows are claimed FOR UPDATE SKIP LOCKED so
// concurrent sweeps and in-flight mutations are simply skipped.
func (e *Engine) ExpireDue(ctx context.Context, batchSize int) (int, error) {
	now := time.Now().UTC()
	var touched map[uuid.UUID]map[uuid.UUID]struct{}

	expired, err := database.WithSerializableRetryResult(ctx, e.pool, e.cfg.SerializableRetries,
		func(tx pgx.Tx) (int, error) {
			// A rolled-back attempt must not leave stale entries behind.
			touched = make(map[uuid.UUID]map[uuid.UUID]struct{})

			eligible, err := e.reservations.ListExpireEligible(ctx, tx, now, batchSize)
			if err != nil {
				return 0, err
			}

			count := 0
			for i := range eligible {
				res := &eligible[i]
				remaining := res.Remaining()

				if quantity.IsPositive(remaining) {
					if _, err := e.balances.ApplyDelta(ctx, tx, balanceKey(res), balanceModel.Delta{
						Reserved: remaining.Neg(),
					}); err != nil {
						return 0, err
					}
				}

				res.State = model.StateExpired
				res.ExpiredAt = &now
				res.UpdatedAt = now
				if err := e.reservations.Update(ctx, tx, res); err != nil {
					return 0, err
				}

				if err := e.recordChange(ctx, tx, res, model.EventExpired, remaining.Neg(), decimal.Zero, now); err != nil {
					return 0, err
				}

				if _, ok := touched[res.TenantID]; !ok {
					touched[res.TenantID] = make(map[uuid.UUID]struct{})
				}
				touched[res.TenantID][res.WarehouseID] = struct{}{}
				count++
			}

			return count, nil
		})
	if err != nil {
		return 0, mapRetryError(err)
	}

	for tenantID, warehouses := range touched {
		ids := make([]uuid.UUID, 0, len(warehouses))
		for w := range warehouses {
			ids = append(ids, w)
		}
		e.invalidateATPCache(ctx, tenantID, ids)
	}

	return expired, nil
}

func balanceKey(res *model.Reservation) balanceModel.Key {
	return balanceModel.Key{
		TenantID:   res.TenantID,
		ItemID:     res.ItemID,
		LocationID: res.LocationID,
		Uom:        res.CanonicalUom,
	}
}
