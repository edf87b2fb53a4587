package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fulfillment-backend/internal/config"
	auditModel "fulfillment-backend/internal/domains/audit/model"
	auditRepo "fulfillment-backend/internal/domains/audit/repository"
	balanceModel "fulfillment-backend/internal/domains/balance/model"
	balanceRepo "fulfillment-backend/internal/domains/balance/repository"
	idemRepo "fulfillment-backend/internal/domains/idempotency/repository"
	masterdataRepo "fulfillment-backend/internal/domains/masterdata/repository"
	outboxRepo "fulfillment-backend/internal/domains/outbox/repository"
	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/reservation/repository"
	uomService "fulfillment-backend/internal/domains/uom/service"
	shared "fulfillment-backend/internal/shared"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/database"
	"fulfillment-backend/pkg/logger"
	"fulfillment-backend/pkg/quantity"
)

// Engine owns the reservation lifecycle. Every mutation runs in a
// SERIALIZABLE transaction under the advisory-lock protocol and emits a
// reservation-changed outbox event.
type Engine struct {
	pool          *pgxpool.Pool
	cfg           config.InventoryConfig
	cache         cache.Cache
	reservations  repository.RepositoryInterface
	balances      balanceRepo.RepositoryInterface
	masterdata    masterdataRepo.RepositoryInterface
	idempotency   idemRepo.RepositoryInterface
	outbox        outboxRepo.RepositoryInterface
	audit         auditRepo.RepositoryInterface
	canonicalizer *uomService.Canonicalizer
}

func NewEngine(
	pool *pgxpool.Pool,
	cfg config.InventoryConfig,
	cacheClient cache.Cache,
	reservations repository.RepositoryInterface,
	balances balanceRepo.RepositoryInterface,
	masterdata masterdataRepo.RepositoryInterface,
	idempotency idemRepo.RepositoryInterface,
	outbox outboxRepo.RepositoryInterface,
	audit auditRepo.RepositoryInterface,
	canonicalizer *uomService.Canonicalizer,
) *Engine {
	return &Engine{
		pool:          pool,
		cfg:           cfg,
		cache:         cacheClient,
		reservations:  reservations,
		balances:      balances,
		masterdata:    masterdata,
		idempotency:   idempotency,
		outbox:        outbox,
		audit:         audit,
		canonicalizer: canonicalizer,
	}
}

// preparedLine is one create input after canonicalization and warehouse
// scope resolution. The slice of prepared lines is sorted to fix the lock
// order for the whole batch.
type preparedLine struct {
	input        model.CreateLineRequest
	warehouseID  uuid.UUID
	quantity     decimal.Decimal
	canonicalUom string
	sellable     bool
	lineKey      *string
}

// Create reserves quantity for each input line inside one SERIALIZABLE
// transaction. Partial coverage becomes a backorder when backorders are
// enabled; otherwise the whole batch fails.
func (e *Engine) Create(ctx context.Context, tenantID uuid.UUID, req model.CreateRequest, act actor.Actor) ([]model.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, line := range req.Reservations {
		if err := line.Validate(); err != nil {
			return nil, err
		}
	}

	allowBackorder := e.cfg.BackordersEnabled
	if req.AllowBackorder != nil {
		allowBackorder = *req.AllowBackorder
	}

	var warehouses []uuid.UUID
	views, err := database.WithSerializableRetryResult(ctx, e.pool, e.cfg.ReservationCreateRetries,
		func(tx pgx.Tx) ([]model.Response, error) {
			warehouses = warehouses[:0]

			prepared, err := e.prepareLines(ctx, tx, tenantID, req)
			if err != nil {
				return nil, err
			}

			keys := make([]database.AdvisoryKey, 0, len(prepared))
			for _, p := range prepared {
				warehouses = append(warehouses, p.warehouseID)
				keys = append(keys, database.ATPAdvisoryKey(
					tenantID.String(), p.warehouseID.String(), p.input.ItemID.String()))
			}
			if err := database.AcquireAdvisoryLocks(ctx, tx, keys); err != nil {
				return nil, err
			}

			out := make([]model.Response, 0, len(prepared))
			for _, p := range prepared {
				view, err := e.reserveLine(ctx, tx, tenantID, p, allowBackorder, act)
				if err != nil {
					return nil, err
				}
				out = append(out, view)
			}

			return out, nil
		})
	if err != nil {
		return nil, mapRetryError(err)
	}

	e.invalidateATPCache(ctx, tenantID, warehouses)
	return views, nil
}

// prepareLines canonicalizes each input, resolves its warehouse scope and
// sorts the batch into the deterministic lock order.
func (e *Engine) prepareLines(ctx context.Context, db database.DBTX, tenantID uuid.UUID, req model.CreateRequest) ([]preparedLine, error) {
	prepared := make([]preparedLine, 0, len(req.Reservations))
	for _, line := range req.Reservations {
		canonical, err := e.canonicalizer.ConvertToCanonical(ctx, db, tenantID, line.ItemID, line.ParsedQuantity(), line.Uom)
		if err != nil {
			return nil, err
		}

		location, err := e.masterdata.GetLocation(ctx, db, tenantID, line.LocationID)
		if err != nil {
			return nil, err
		}

		warehouseID, err := e.resolveWarehouse(ctx, db, tenantID, line, location.WarehouseID)
		if err != nil {
			return nil, err
		}

		p := preparedLine{
			input:        line,
			warehouseID:  warehouseID,
			quantity:     canonical.Quantity,
			canonicalUom: canonical.Uom,
			sellable:     location.Sellable,
		}
		if req.IdempotencyKey != nil {
			key := lineIdempotencyKey(*req.IdempotencyKey, line, warehouseID, canonical.Uom)
			p.lineKey = &key
		}
		prepared = append(prepared, p)
	}

	sort.Slice(prepared, func(i, j int) bool {
		a, b := prepared[i], prepared[j]
		if a.warehouseID != b.warehouseID {
			return a.warehouseID.String() < b.warehouseID.String()
		}
		if a.input.ItemID != b.input.ItemID {
			return a.input.ItemID.String() < b.input.ItemID.String()
		}
		if a.input.LocationID != b.input.LocationID {
			return a.input.LocationID.String() < b.input.LocationID.String()
		}
		if a.canonicalUom != b.canonicalUom {
			return a.canonicalUom < b.canonicalUom
		}
		if a.input.DemandID != b.input.DemandID {
			return a.input.DemandID.String() < b.input.DemandID.String()
		}
		return a.input.DemandType < b.input.DemandType
	})

	return prepared, nil
}

// resolveWarehouse derives the warehouse scope from every known source and
// requires them all to agree: the location's warehouse, the demand's sales
// order warehouse, and an explicit warehouse on the request.
func (e *Engine) resolveWarehouse(ctx context.Context, db database.DBTX, tenantID uuid.UUID, line model.CreateLineRequest, locationWarehouseID uuid.UUID) (uuid.UUID, error) {
	candidates := []uuid.UUID{locationWarehouseID}

	if line.DemandType == model.DemandSalesOrderLine {
		soLine, err := e.masterdata.GetSalesOrderLine(ctx, db, tenantID, line.DemandID)
		if err != nil {
			return uuid.Nil, err
		}
		candidates = append(candidates, soLine.WarehouseID)
	}
	if line.WarehouseID != nil {
		candidates = append(candidates, *line.WarehouseID)
	}

	resolved := uuid.Nil
	for _, c := range candidates {
		if c == uuid.Nil {
			continue
		}
		if resolved == uuid.Nil {
			resolved = c
			continue
		}
		if resolved != c {
			return uuid.Nil, fmt.Errorf("%w: %s vs %s", model.ErrWarehouseScopeMismatch, resolved, c)
		}
	}
	if resolved == uuid.Nil {
		return uuid.Nil, model.ErrWarehouseScopeRequired
	}

	return resolved, nil
}

// reserveLine reserves one prepared line under the already-held advisory
// locks.
func (e *Engine) reserveLine(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, p preparedLine, allowBackorder bool, act actor.Actor) (model.Response, error) {
	if !p.sellable {
		return model.Response{}, fmt.Errorf("%w: %s", model.ErrLocationNotSellable, p.input.LocationID)
	}

	if p.lineKey != nil {
		existing, err := e.reservations.FindByIdempotencyKey(ctx, tx, tenantID, *p.lineKey)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return model.Response{}, err
		}
		if existing != nil {
			return existing.ToResponse(), nil
		}
	}

	key := balanceModel.Key{
		TenantID:   tenantID,
		ItemID:     p.input.ItemID,
		LocationID: p.input.LocationID,
		Uom:        p.canonicalUom,
	}
	if err := e.balances.EnsureRow(ctx, tx, key); err != nil {
		return model.Response{}, err
	}
	bal, err := e.balances.LockAndRead(ctx, tx, key)
	if err != nil {
		return model.Response{}, err
	}

	split, err := model.PlanReserve(bal.Available(), p.quantity, allowBackorder)
	if err != nil {
		return model.Response{}, err
	}

	now := time.Now().UTC()
	var view model.Response

	if quantity.IsPositive(split.ReserveQty) {
		res := &model.Reservation{
			ID:                uuid.New(),
			TenantID:          tenantID,
			WarehouseID:       p.warehouseID,
			DemandType:        p.input.DemandType,
			DemandID:          p.input.DemandID,
			ItemID:            p.input.ItemID,
			LocationID:        p.input.LocationID,
			CanonicalUom:      p.canonicalUom,
			State:             model.StateReserved,
			QuantityReserved:  split.ReserveQty,
			QuantityFulfilled: decimal.Zero,
			ReservedAt:        now,
			ExpiresAt:         p.input.ExpiresAt,
			IdempotencyKey:    p.lineKey,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		inserted, err := e.reservations.Insert(ctx, tx, res)
		if err != nil {
			return model.Response{}, err
		}
		if !inserted {
			existing, err := e.resolveConflict(ctx, tx, tenantID, p, res.Tuple())
			if err != nil {
				return model.Response{}, err
			}
			return existing.ToResponse(), nil
		}

		if _, err := e.balances.ApplyDelta(ctx, tx, key, balanceModel.Delta{Reserved: split.ReserveQty}); err != nil {
			return model.Response{}, err
		}
		if err := e.recordChange(ctx, tx, res, model.EventReserved, split.ReserveQty, decimal.Zero, now); err != nil {
			return model.Response{}, err
		}
		if err := e.audit.Insert(ctx, tx, auditModel.Entry{
			TenantID:   tenantID,
			Action:     "reserve",
			EntityType: "reservation",
			EntityID:   res.ID,
			ActorID:    act.ID,
			Metadata: map[string]any{
				"quantity_reserved": split.ReserveQty.String(),
				"canonical_uom":     p.canonicalUom,
			},
		}); err != nil {
			return model.Response{}, err
		}

		view = res.ToResponse()
	} else {
		// Nothing reservable right now; the demand lives entirely in the
		// backorder row.
		view = model.Response{
			WarehouseID:       p.warehouseID,
			DemandType:        p.input.DemandType,
			DemandID:          p.input.DemandID,
			ItemID:            p.input.ItemID,
			LocationID:        p.input.LocationID,
			CanonicalUom:      p.canonicalUom,
			QuantityReserved:  decimal.Zero.String(),
			QuantityFulfilled: decimal.Zero.String(),
			ReservedAt:        now,
			UpdatedAt:         now,
		}
	}

	if quantity.IsPositive(split.BackorderQty) {
		if err := e.reservations.UpsertBackorder(ctx, tx, &model.Backorder{
			ID:                  uuid.New(),
			TenantID:            tenantID,
			DemandType:          p.input.DemandType,
			DemandID:            p.input.DemandID,
			ItemID:              p.input.ItemID,
			LocationID:          p.input.LocationID,
			Uom:                 p.canonicalUom,
			QuantityBackordered: split.BackorderQty,
			CreatedAt:           now,
			UpdatedAt:           now,
		}); err != nil {
			return model.Response{}, err
		}
		view.QuantityBackorder = split.BackorderQty.String()
	}

	return view, nil
}

// resolveConflict locates the reservation that made Insert a no-op: first
// by the per-line idempotency key, then by the demand tuple.
func (e *Engine) resolveConflict(ctx context.Context, db database.DBTX, tenantID uuid.UUID, p preparedLine, tuple model.DemandTuple) (*model.Reservation, error) {
	if p.lineKey != nil {
		existing, err := e.reservations.FindByIdempotencyKey(ctx, db, tenantID, *p.lineKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}

	existing, err := e.reservations.FindActiveByDemand(ctx, db, tenantID, tuple, false)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrConflict
		}
		return nil, err
	}

	return existing, nil
}

// recordChange appends the ledger event and enqueues the reservation-changed
// outbox event on the same transaction.
func (e *Engine) recordChange(ctx context.Context, db database.DBTX, res *model.Reservation, eventType model.EventType, deltaReserved, deltaAllocated decimal.Decimal, now time.Time) error {
	eventID := uuid.New()
	if err := e.reservations.InsertEvent(ctx, db, &model.Event{
		ID:             eventID,
		ReservationID:  res.ID,
		TenantID:       res.TenantID,
		EventType:      eventType,
		DeltaReserved:  deltaReserved,
		DeltaAllocated: deltaAllocated,
		OccurredAt:     now,
	}); err != nil {
		return err
	}

	payload := model.ChangedPayload{
		EventID:       eventID,
		ReservationID: res.ID,
		TenantID:      res.TenantID,
		WarehouseID:   res.WarehouseID,
		ItemID:        res.ItemID,
		LocationID:    res.LocationID,
		CanonicalUom:  res.CanonicalUom,
		DemandType:    res.DemandType,
		DemandID:      res.DemandID,
		State:         res.State,
	}
	_, err := e.outbox.Enqueue(ctx, db, res.TenantID, shared.AggregateReservation, eventID, shared.EventReservationChanged, payload)
	return err
}

// GetByID returns the reservation view.
func (e *Engine) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Response, error) {
	res, err := e.reservations.GetByID(ctx, e.pool, tenantID, id)
	if err != nil {
		return nil, err
	}
	view := res.ToResponse()
	return &view, nil
}

// ListBackorders returns the backorder rows accumulated for one demand.
func (e *Engine) ListBackorders(ctx context.Context, tenantID uuid.UUID, demandType model.DemandType, demandID uuid.UUID) ([]model.Backorder, error) {
	return e.reservations.ListBackordersByDemand(ctx, e.pool, tenantID, demandType, demandID)
}

// invalidateATPCache drops cached availability for every touched warehouse.
func (e *Engine) invalidateATPCache(ctx context.Context, tenantID uuid.UUID, warehouses []uuid.UUID) {
	if e.cache == nil {
		return
	}
	seen := make(map[uuid.UUID]struct{}, len(warehouses))
	for _, w := range warehouses {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		pattern := fmt.Sprintf("atp:%s:%s:*", tenantID, w)
		if err := e.cache.DeletePattern(ctx, pattern); err != nil {
			logger.Warn("failed to invalidate atp cache", map[string]interface{}{
				"tenant_id":    tenantID.String(),
				"warehouse_id": w.String(),
				"error":        err.Error(),
			})
		}
	}
}

// lineIdempotencyKey scopes a batch-level key down to one line, so a retried
// batch resolves each line independently.
func lineIdempotencyKey(base string, line model.CreateLineRequest, warehouseID uuid.UUID, canonicalUom string) string {
	return strings.Join([]string{
		base,
		line.DemandID.String(),
		line.ItemID.String(),
		line.LocationID.String(),
		warehouseID.String(),
		canonicalUom,
	}, ":")
}

// mapRetryError converts retry exhaustion into the retryable concurrency
// error; anything else passes through.
func mapRetryError(err error) error {
	var exhausted *database.ErrRetriesExhausted
	if errors.As(err, &exhausted) {
		return model.NewConcurrencyExhaustedError(exhausted.Attempts, exhausted.Err)
	}
	return err
}
