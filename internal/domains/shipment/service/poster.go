package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
	costingModel "fulfillment-backend/internal/domains/costing/model"
	costingService "fulfillment-backend/internal/domains/costing/service"
	idemModel "fulfillment-backend/internal/domains/idempotency/model"
	idemRepo "fulfillment-backend/internal/domains/idempotency/repository"
	masterdataRepo "fulfillment-backend/internal/domains/masterdata/repository"
	movementModel "fulfillment-backend/internal/domains/movement/model"
	movementRepo "fulfillment-backend/internal/domains/movement/repository"
	outboxRepo "fulfillment-backend/internal/domains/outbox/repository"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	reservationRepo "fulfillment-backend/internal/domains/reservation/repository"
	"fulfillment-backend/internal/domains/shipment/model"
	"fulfillment-backend/internal/domains/shipment/repository"
	stockModel "fulfillment-backend/internal/domains/stock/model"
	stockService "fulfillment-backend/internal/domains/stock/service"
	uomModel "fulfillment-backend/internal/domains/uom/model"
	uomService "fulfillment-backend/internal/domains/uom/service"
	shared "fulfillment-backend/internal/shared"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/utils"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/database"
	"fulfillment-backend/pkg/logger"
	"fulfillment-backend/pkg/quantity"
)

// ErrIdempotencyKeyRequired guards the Idempotency-Key header on posting.
var ErrIdempotencyKeyRequired = errors.New("idempotency key is required to post a shipment")

// Poster posts sales-order shipments: one SERIALIZABLE transaction that
// consumes stock, drives the matched reservations, writes the inventory
// movement with FIFO costs and emits the movement-posted event.
type Poster struct {
	pool          *pgxpool.Pool
	cfg           config.InventoryConfig
	cache         cache.Cache
	shipments     repository.RepositoryInterface
	reservations  reservationRepo.RepositoryInterface
	balances      balanceRepo.RepositoryInterface
	masterdata    masterdataRepo.RepositoryInterface
	movements     movementRepo.RepositoryInterface
	costing       *costingService.Service
	validator     *stockService.Validator
	idempotency   idemRepo.RepositoryInterface
	outbox        outboxRepo.RepositoryInterface
	audit         auditRepo.RepositoryInterface
	canonicalizer *uomService.Canonicalizer
}

func NewPoster(
	pool *pgxpool.Pool,
	cfg config.InventoryConfig,
	cacheClient cache.Cache,
	shipments repository.RepositoryInterface,
	reservations reservationRepo.RepositoryInterface,
	balances balanceRepo.RepositoryInterface,
	masterdata masterdataRepo.RepositoryInterface,
	movements movementRepo.RepositoryInterface,
	costing *costingService.Service,
	validator *stockService.Validator,
	idempotency idemRepo.RepositoryInterface,
	outbox outboxRepo.RepositoryInterface,
	audit auditRepo.RepositoryInterface,
	canonicalizer *uomService.Canonicalizer,
) *Poster {
	return &Poster{
		pool:          pool,
		cfg:           cfg,
		cache:         cacheClient,
		shipments:     shipments,
		reservations:  reservations,
		balances:      balances,
		masterdata:    masterdata,
		movements:     movements,
		costing:       costing,
		validator:     validator,
		idempotency:   idempotency,
		outbox:        outbox,
		audit:         audit,
		canonicalizer: canonicalizer,
	}
}

// postedLine is one shipment line after canonicalization and reservation
// matching, carrying everything the posting loop needs.
type postedLine struct {
	line           model.Line
	fields         uomModel.MovementFields
	reservationID  *uuid.UUID
	issueQty       decimal.Decimal
	reserveConsume decimal.Decimal
}

// Post posts one shipment. The idempotency key is required; a retry with the
// same key returns the already-posted view without touching stock.
func (p *Poster) Post(ctx context.Context, tenantID, shipmentID uuid.UUID, req model.PostRequest, idemKey string, act actor.Actor) (*model.Response, error) {
	if idemKey == "" {
		return nil, ErrIdempotencyKeyRequired
	}

	var warehouseID uuid.UUID
	view, err := database.WithSerializableRetryResult(ctx, p.pool, p.cfg.SerializableRetries,
		func(tx pgx.Tx) (*model.Response, error) {
			return p.postTx(ctx, tx, tenantID, shipmentID, req, idemKey, act, &warehouseID)
		})
	if err != nil {
		return nil, mapRetryError(err)
	}

	if warehouseID != uuid.Nil {
		p.invalidateATPCache(ctx, tenantID, warehouseID)
	}
	return view, nil
}

func (p *Poster) postTx(ctx context.Context, tx pgx.Tx, tenantID, shipmentID uuid.UUID, req model.PostRequest, idemKey string, act actor.Actor, warehouseOut *uuid.UUID) (*model.Response, error) {
	scopedKey := "shipment:post:" + idemKey
	hash, err := utils.HashBody(map[string]any{"shipment_id": shipmentID.String(), "body": req})
	if err != nil {
		return nil, err
	}
	begin, err := p.idempotency.Begin(ctx, tx, scopedKey, hash)
	if err != nil {
		if errors.Is(err, idemModel.ErrInProgress) {
			return nil, idemModel.NewOperationInProgressError("shipment_post")
		}
		return nil, err
	}
	if begin.Outcome == idemModel.OutcomeShortCircuit {
		return p.currentView(ctx, tx, tenantID, shipmentID)
	}

	s, err := p.shipments.LockByID(ctx, tx, tenantID, shipmentID)
	if err != nil {
		return nil, err
	}
	switch s.Status {
	case model.StatusCanceled:
		return nil, model.ErrShipmentCanceled
	case model.StatusPosted:
		// Posted by an earlier key (or no key at all): a no-op that
		// returns the current posted view.
		return p.finish(ctx, tx, tenantID, s, scopedKey)
	}

	lines, err := p.shipments.LockLines(ctx, tx, s.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, model.ErrShipmentNoLines
	}
	for _, l := range lines {
		if !quantity.IsPositive(l.QuantityShipped) {
			return nil, fmt.Errorf("%w: line %s", model.ErrInvalidLineQuantity, l.ID)
		}
	}

	location, err := p.masterdata.GetLocation(ctx, tx, tenantID, s.ShipFromLocationID)
	if err != nil {
		return nil, err
	}
	warehouseID := location.WarehouseID
	*warehouseOut = warehouseID

	prepared, err := p.prepareLines(ctx, tx, tenantID, warehouseID, s, lines)
	if err != nil {
		return nil, err
	}

	// Advisory locks per (tenant, warehouse, item), then reservation rows
	// by id ASC, then balance rows. The global lock order.
	keys := make([]database.AdvisoryKey, 0, len(prepared))
	resIDs := make([]uuid.UUID, 0, len(prepared))
	for _, pl := range prepared {
		keys = append(keys, database.ATPAdvisoryKey(
			tenantID.String(), warehouseID.String(), pl.line.ItemID.String()))
		if pl.reservationID != nil {
			resIDs = append(resIDs, *pl.reservationID)
		}
	}
	if err := database.AcquireAdvisoryLocks(ctx, tx, keys); err != nil {
		return nil, err
	}

	locked, err := p.reservations.LockByIDs(ctx, tx, tenantID, resIDs)
	if err != nil {
		return nil, err
	}
	lockedByID := make(map[uuid.UUID]*reservationModel.Reservation, len(locked))
	for i := range locked {
		lockedByID[locked[i].ID] = &locked[i]
	}

	// Compute the reservation consumption allowance per line and validate
	// the net new consumption against the negative-stock policy.
	stockLines := make([]stockModel.Line, 0, len(prepared))
	for i := range prepared {
		pl := &prepared[i]
		var remaining decimal.Decimal
		if pl.reservationID != nil {
			if res, ok := lockedByID[*pl.reservationID]; ok && !res.State.Terminal() {
				remaining = res.Remaining()
			} else {
				pl.reservationID = nil
			}
		}
		plan := model.PlanLineConsumption(pl.issueQty, remaining)
		pl.reserveConsume = plan.ReserveConsume

		stockLines = append(stockLines, stockModel.Line{
			ItemID:            pl.line.ItemID,
			LocationID:        s.ShipFromLocationID,
			Uom:               pl.fields.CanonicalUom,
			QuantityToConsume: plan.NetNew,
		})
	}

	overrideMeta, err := p.validator.ValidateConsumption(ctx, tx, tenantID, stockLines, act, stockModel.OverrideRequest{
		Requested: req.OverrideRequested,
		Reason:    req.OverrideReason,
		Reference: req.OverrideReference,
	})
	if err != nil {
		if errors.Is(err, stockModel.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: %s", model.ErrInsufficientAvailableWithAllowance, err.Error())
		}
		return nil, err
	}

	now := time.Now().UTC()
	metadata := map[string]any{}
	if overrideMeta != nil {
		metadata["override_reason"] = overrideMeta.Reason
		if overrideMeta.Reference != "" {
			metadata["override_reference"] = overrideMeta.Reference
		}
		metadata["override_actor"] = overrideMeta.ActorID
	}

	sourceType := "shipment_post"
	mv := &movementModel.Movement{
		ID:             uuid.New(),
		TenantID:       tenantID,
		MovementType:   movementModel.MovementIssue,
		Status:         movementModel.StatusPosted,
		ExternalRef:    "shipment:" + s.ID.String(),
		SourceType:     &sourceType,
		SourceID:       &s.ID,
		IdempotencyKey: &idemKey,
		OccurredAt:     now,
		PostedAt:       &now,
		Metadata:       metadata,
	}
	for _, pl := range prepared {
		mv.Lines = append(mv.Lines, movementModel.Line{
			ItemID:       pl.line.ItemID,
			LocationID:   s.ShipFromLocationID,
			CanonicalUom: pl.fields.CanonicalUom,
			UomEntered:   pl.fields.UomEntered,
		})
	}
	if err := mv.ValidateForPost(movementModel.Policy{
		RequireExternalRef:     p.cfg.EnforceMovementExternalRef,
		RequireCanonicalFields: p.cfg.EnforceCanonicalMovementFields,
		CanonicalRequiredAfter: p.cfg.CanonicalRequiredAfter,
	}); err != nil {
		return nil, err
	}

	existing, found, err := p.movements.CreateMovement(ctx, tx, mv)
	if err != nil {
		return nil, err
	}
	if found && len(existing.Lines) > 0 {
		// A previous execution already built this movement; just link it.
		s.MovementID = &existing.ID
		return p.markPostedAndFinish(ctx, tx, tenantID, s, idemKey, scopedKey, now)
	}

	for i := range prepared {
		if err := p.postLine(ctx, tx, tenantID, s, &prepared[i], mv.ID, overrideMeta, now); err != nil {
			return nil, err
		}
	}

	s.MovementID = &mv.ID
	view, err := p.markPostedAndFinish(ctx, tx, tenantID, s, idemKey, scopedKey, now)
	if err != nil {
		return nil, err
	}

	if _, err := p.outbox.Enqueue(ctx, tx, tenantID, shared.AggregateMovement, mv.ID, shared.EventMovementPosted, map[string]any{
		"movement_id": mv.ID.String(),
		"shipment_id": s.ID.String(),
		"tenant_id":   tenantID.String(),
	}); err != nil {
		return nil, err
	}

	if err := p.audit.Insert(ctx, tx, auditModel.Entry{
		TenantID:   tenantID,
		Action:     "post",
		EntityType: "shipment",
		EntityID:   s.ID,
		ActorID:    act.ID,
		Metadata:   map[string]any{"movement_id": mv.ID.String()},
	}); err != nil {
		return nil, err
	}
	if overrideMeta != nil {
		if err := p.audit.Insert(ctx, tx, auditModel.Entry{
			TenantID:   tenantID,
			Action:     "negative_override",
			EntityType: "inventory_movement",
			EntityID:   mv.ID,
			ActorID:    act.ID,
			Metadata: map[string]any{
				"override_reason":    overrideMeta.Reason,
				"override_reference": overrideMeta.Reference,
			},
		}); err != nil {
			return nil, err
		}
	}

	return view, nil
}

// prepareLines canonicalizes every shipment line, verifies the warehouse
// scope against the sales order and locates the matching reservations. The
// result is sorted by (itemId, canonicalUom, shipmentLineId) to fix the
// lock order.
func (p *Poster) prepareLines(ctx context.Context, tx pgx.Tx, tenantID, warehouseID uuid.UUID, s *model.Shipment, lines []model.Line) ([]postedLine, error) {
	prepared := make([]postedLine, 0, len(lines))
	for _, l := range lines {
		fields, err := p.canonicalizer.MovementFields(ctx, tx, tenantID, l.ItemID, l.QuantityShipped, l.Uom)
		if err != nil {
			return nil, err
		}

		soLine, err := p.masterdata.GetSalesOrderLine(ctx, tx, tenantID, l.SalesOrderLineID)
		if err != nil {
			return nil, err
		}
		if soLine.WarehouseID != uuid.Nil && soLine.WarehouseID != warehouseID {
			return nil, model.NewCrossWarehouseError(warehouseID, soLine.WarehouseID)
		}

		pl := postedLine{
			line:     l,
			fields:   fields,
			issueQty: fields.QuantityCanonical,
		}

		res, err := p.reservations.FindActiveByDemand(ctx, tx, tenantID, reservationModel.DemandTuple{
			WarehouseID:  warehouseID,
			DemandType:   reservationModel.DemandSalesOrderLine,
			DemandID:     l.SalesOrderLineID,
			ItemID:       l.ItemID,
			LocationID:   s.ShipFromLocationID,
			CanonicalUom: fields.CanonicalUom,
		}, false)
		if err != nil && !errors.Is(err, reservationModel.ErrNotFound) {
			return nil, err
		}
		if res != nil {
			id := res.ID
			pl.reservationID = &id
		}

		prepared = append(prepared, pl)
	}

	sortPostedLines(prepared)

	return prepared, nil
}

// sortPostedLines fixes the batch lock order: (itemId, canonicalUom,
// shipmentLineId).
func sortPostedLines(prepared []postedLine) {
	sort.Slice(prepared, func(i, j int) bool {
		a, b := prepared[i], prepared[j]
		if a.line.ItemID != b.line.ItemID {
			return a.line.ItemID.String() < b.line.ItemID.String()
		}
		if a.fields.CanonicalUom != b.fields.CanonicalUom {
			return a.fields.CanonicalUom < b.fields.CanonicalUom
		}
		return a.line.ID.String() < b.line.ID.String()
	})
}

// postLine consumes stock for one line: allowance check, FIFO costing,
// movement line, reservation advance and balance deltas.
func (p *Poster) postLine(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, s *model.Shipment, pl *postedLine, movementID uuid.UUID, overrideMeta *stockModel.OverrideMetadata, now time.Time) error {
	key := balanceModel.Key{
		TenantID:   tenantID,
		ItemID:     pl.line.ItemID,
		LocationID: s.ShipFromLocationID,
		Uom:        pl.fields.CanonicalUom,
	}
	if err := p.balances.EnsureRow(ctx, tx, key); err != nil {
		return err
	}
	bal, err := p.balances.LockAndRead(ctx, tx, key)
	if err != nil {
		return err
	}

	// Reservation consumption allowance: the same transaction releases
	// reserveConsume from reserved/allocated, so availability may borrow
	// exactly that much. No other path gets this allowance.
	if overrideMeta == nil && !model.AllowanceCovers(bal.Available(), pl.reserveConsume, pl.issueQty) {
		return model.NewInsufficientWithAllowanceError(pl.line.ItemID, bal.Available(), pl.reserveConsume, pl.issueQty)
	}

	unitCost := decimal.Zero
	extendedCost := decimal.Zero
	costResult, err := p.costing.Consume(ctx, tx, costingService.ConsumeParams{
		TenantID:        tenantID,
		ItemID:          pl.line.ItemID,
		LocationID:      s.ShipFromLocationID,
		Qty:             pl.issueQty,
		ConsumptionType: "shipment",
		DocumentID:      &s.ID,
		MovementID:      &movementID,
	})
	switch {
	case err == nil:
		unitCost = costResult.WeightedAverageUnitCost
		extendedCost = costResult.TotalCost.Neg()
	case overrideMeta != nil && (errors.Is(err, costingModel.ErrNoLayers) || errors.Is(err, costingModel.ErrInsufficientLayerQty)):
		// Override-driven negative consumption has no layers to cost
		// against; the movement posts at zero cost.
		logger.Warn("cost layers unavailable under negative-stock override", map[string]interface{}{
			"item_id":     pl.line.ItemID.String(),
			"location_id": s.ShipFromLocationID.String(),
		})
	default:
		return err
	}

	if err := p.movements.InsertLine(ctx, tx, &movementModel.Line{
		ID:                     uuid.New(),
		MovementID:             movementID,
		ItemID:                 pl.line.ItemID,
		LocationID:             s.ShipFromLocationID,
		QuantityDelta:          pl.fields.QuantityCanonical.Neg(),
		Uom:                    pl.fields.CanonicalUom,
		QuantityDeltaEntered:   pl.fields.QuantityEntered.Neg(),
		UomEntered:             pl.fields.UomEntered,
		QuantityDeltaCanonical: pl.fields.QuantityCanonical.Neg(),
		CanonicalUom:           pl.fields.CanonicalUom,
		UomDimension:           pl.fields.Dimension,
		UnitCost:               &unitCost,
		ExtendedCost:           &extendedCost,
	}); err != nil {
		return err
	}

	var res *reservationModel.Reservation
	if pl.reservationID != nil {
		res, err = p.reservations.GetByID(ctx, tx, tenantID, *pl.reservationID)
		if err != nil {
			return err
		}
	}

	// A still-RESERVED reservation allocates first so the fulfillment
	// below always draws from allocated. The full open remainder shifts,
	// not just this shipment's share: once the state is ALLOCATED every
	// later release (next shipment, fulfill, cancel) decrements allocated.
	if res != nil && res.State == reservationModel.StateReserved {
		open := res.Remaining()
		if _, err := p.balances.ApplyDelta(ctx, tx, key, balanceModel.Delta{
			Reserved:  open.Neg(),
			Allocated: open,
		}); err != nil {
			return err
		}
		res.State = reservationModel.StateAllocated
		res.AllocatedAt = &now
		res.UpdatedAt = now
		if err := p.reservations.Update(ctx, tx, res); err != nil {
			return err
		}
		if err := p.recordReservationChange(ctx, tx, res, reservationModel.EventAllocated, open.Neg(), open, now); err != nil {
			return err
		}
	}

	if _, err := p.balances.ApplyDelta(ctx, tx, key, balanceModel.Delta{
		OnHand:    pl.issueQty.Neg(),
		Allocated: pl.reserveConsume.Neg(),
	}); err != nil {
		return err
	}

	if res != nil && quantity.IsPositive(pl.reserveConsume) {
		res.QuantityFulfilled = quantity.Round(res.QuantityFulfilled.Add(pl.reserveConsume))
		eventType := reservationModel.EventAllocated
		if quantity.GTE(res.QuantityFulfilled, res.QuantityReserved) {
			res.State = reservationModel.StateFulfilled
			res.FulfilledAt = &now
			eventType = reservationModel.EventFulfilled
		}
		res.UpdatedAt = now
		if err := p.reservations.Update(ctx, tx, res); err != nil {
			return err
		}
		if err := p.recordReservationChange(ctx, tx, res, eventType, decimal.Zero, pl.reserveConsume.Neg(), now); err != nil {
			return err
		}
	}

	return nil
}

func (p *Poster) recordReservationChange(ctx context.Context, tx pgx.Tx, res *reservationModel.Reservation, eventType reservationModel.EventType, deltaReserved, deltaAllocated decimal.Decimal, now time.Time) error {
	eventID := uuid.New()
	if err := p.reservations.InsertEvent(ctx, tx, &reservationModel.Event{
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

	payload := reservationModel.ChangedPayload{
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
	_, err := p.outbox.Enqueue(ctx, tx, res.TenantID, shared.AggregateReservation, eventID, shared.EventReservationChanged, payload)
	return err
}

// markPostedAndFinish flips the shipment to posted, records the idempotency
// outcome and returns the posted view.
func (p *Poster) markPostedAndFinish(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, s *model.Shipment, idemKey, scopedKey string, now time.Time) (*model.Response, error) {
	s.Status = model.StatusPosted
	s.PostedAt = &now
	s.PostedIdempotencyKey = &idemKey
	s.UpdatedAt = now
	if err := p.shipments.MarkPosted(ctx, tx, s); err != nil {
		return nil, err
	}

	return p.finish(ctx, tx, tenantID, s, scopedKey)
}

// finish completes the idempotency record and builds the response view.
func (p *Poster) finish(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, s *model.Shipment, scopedKey string) (*model.Response, error) {
	ref := s.ID.String()
	if err := p.idempotency.Complete(ctx, tx, scopedKey, idemModel.StatusSucceeded, &ref); err != nil {
		return nil, err
	}

	lines, err := p.shipments.ListLines(ctx, tx, s.ID)
	if err != nil {
		return nil, err
	}
	view := s.ToResponse(lines)
	return &view, nil
}

// currentView loads the shipment as-is for an idempotent replay.
func (p *Poster) currentView(ctx context.Context, tx pgx.Tx, tenantID, shipmentID uuid.UUID) (*model.Response, error) {
	s, err := p.shipments.GetByID(ctx, tx, tenantID, shipmentID)
	if err != nil {
		return nil, err
	}
	lines, err := p.shipments.ListLines(ctx, tx, s.ID)
	if err != nil {
		return nil, err
	}
	view := s.ToResponse(lines)
	return &view, nil
}

func (p *Poster) invalidateATPCache(ctx context.Context, tenantID, warehouseID uuid.UUID) {
	if p.cache == nil {
		return
	}
	pattern := fmt.Sprintf("atp:%s:%s:*", tenantID, warehouseID)
	if err := p.cache.DeletePattern(ctx, pattern); err != nil {
		logger.Warn("failed to invalidate atp cache", map[string]interface{}{
			"tenant_id":    tenantID.String(),
			"warehouse_id": warehouseID.String(),
			"error":        err.Error(),
		})
	}
}

// mapRetryError converts retry exhaustion into the retryable concurrency
// error shared with the reservation engine.
func mapRetryError(err error) error {
	var exhausted *database.ErrRetriesExhausted
	if errors.As(err, &exhausted) {
		return reservationModel.NewConcurrencyExhaustedError(exhausted.Attempts, exhausted.Err)
	}
	return err
}
