package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	idemModel "fulfillment-backend/internal/domains/idempotency/model"
	masterdataModel "fulfillment-backend/internal/domains/masterdata/model"
	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/reservation/service"
	uomModel "fulfillment-backend/internal/domains/uom/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

// Handler exposes the reservation lifecycle over HTTP.
type Handler struct {
	engine *service.Engine
}

func NewHandler(engine *service.Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes mounts the reservation endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations", h.Create)
	rg.GET("/reservations/:id", h.Get)
	rg.POST("/reservations/:id/allocate", h.Allocate)
	rg.POST("/reservations/:id/cancel", h.Cancel)
	rg.POST("/reservations/:id/fulfill", h.Fulfill)
	rg.GET("/backorders", h.ListBackorders)
}

// ListBackorders handles GET /backorders?demand_type=&demand_id=.
func (h *Handler) ListBackorders(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.BadRequest(c, "tenant scope missing")
		return
	}

	demandType := model.DemandType(c.Query("demand_type"))
	switch demandType {
	case model.DemandSalesOrderLine, model.DemandWorkOrder, model.DemandTransferOrder:
	default:
		response.BadRequest(c, "demand_type must be one of sales_order_line, work_order, transfer_order")
		return
	}
	demandID, err := uuid.Parse(c.Query("demand_id"))
	if err != nil {
		response.BadRequest(c, "demand_id must be a UUID")
		return
	}

	backorders, err := h.engine.ListBackorders(c.Request.Context(), tenantID, demandType, demandID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]model.BackorderResponse, 0, len(backorders))
	for _, b := range backorders {
		views = append(views, b.ToResponse())
	}
	response.Success(c, http.StatusOK, views)
}

// Create handles POST /reservations.
func (h *Handler) Create(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.BadRequest(c, "tenant scope missing")
		return
	}

	var req model.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	act, _ := actor.FromContext(c.Request.Context())
	views, err := h.engine.Create(c.Request.Context(), tenantID, req, act)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, views)
}

// Get handles GET /reservations/:id.
func (h *Handler) Get(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.BadRequest(c, "tenant scope missing")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be a UUID")
		return
	}

	view, err := h.engine.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Allocate handles POST /reservations/:id/allocate.
func (h *Handler) Allocate(c *gin.Context) {
	tenantID, id, idemKey, act, ok := h.mutationScope(c)
	if !ok {
		return
	}

	view, err := h.engine.Allocate(c.Request.Context(), tenantID, id, idemKey, act)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Cancel handles POST /reservations/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	tenantID, id, idemKey, act, ok := h.mutationScope(c)
	if !ok {
		return
	}

	var req model.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	view, err := h.engine.Cancel(c.Request.Context(), tenantID, id, req, idemKey, act)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Fulfill handles POST /reservations/:id/fulfill.
func (h *Handler) Fulfill(c *gin.Context) {
	tenantID, id, idemKey, act, ok := h.mutationScope(c)
	if !ok {
		return
	}

	var req model.FulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	view, err := h.engine.Fulfill(c.Request.Context(), tenantID, id, req.ParsedQuantity(), idemKey, act)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

func (h *Handler) mutationScope(c *gin.Context) (uuid.UUID, uuid.UUID, *string, actor.Actor, bool) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.BadRequest(c, "tenant scope missing")
		return uuid.Nil, uuid.Nil, nil, actor.Actor{}, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be a UUID")
		return uuid.Nil, uuid.Nil, nil, actor.Actor{}, false
	}

	var idemKey *string
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		idemKey = &key
	}

	act, _ := actor.FromContext(c.Request.Context())
	return tenantID, id, idemKey, act, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", validationErrs)
		return
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		response.ErrorResponse(c, http.StatusNotFound, "RESERVATION_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrInvalidState):
		response.ErrorResponse(c, http.StatusConflict, "RESERVATION_INVALID_STATE", err.Error())
	case errors.Is(err, model.ErrInvalidQuantity):
		response.ErrorResponse(c, http.StatusBadRequest, "RESERVATION_INVALID_QUANTITY", err.Error())
	case errors.Is(err, model.ErrConflict):
		response.ErrorResponse(c, http.StatusConflict, "RESERVATION_CONFLICT", err.Error())
	case errors.Is(err, model.ErrLocationNotSellable):
		response.ErrorResponse(c, http.StatusConflict, "RESERVATION_LOCATION_NOT_SELLABLE", err.Error())
	case errors.Is(err, model.ErrInsufficientAvailable):
		response.ErrorResponse(c, http.StatusConflict, "ATP_INSUFFICIENT_AVAILABLE", err.Error())
	case errors.Is(err, model.ErrConcurrencyExhausted):
		response.ErrorResponse(c, http.StatusConflict, "ATP_CONCURRENCY_EXHAUSTED", err.Error())
	case errors.Is(err, model.ErrWarehouseScopeRequired):
		response.ErrorResponse(c, http.StatusBadRequest, "WAREHOUSE_SCOPE_REQUIRED", err.Error())
	case errors.Is(err, model.ErrWarehouseScopeMismatch):
		response.ErrorResponse(c, http.StatusConflict, "WAREHOUSE_SCOPE_MISMATCH", err.Error())
	case errors.Is(err, idemModel.ErrInProgress):
		response.ErrorResponse(c, http.StatusConflict, idemModel.InProgressCode(err), err.Error())
	case errors.Is(err, idemModel.ErrConflict):
		response.ErrorResponse(c, http.StatusConflict, "IDEMPOTENCY_CONFLICT", err.Error())
	case errors.Is(err, uomModel.ErrUnknownUom),
		errors.Is(err, uomModel.ErrDimensionMismatch),
		errors.Is(err, uomModel.ErrItemCanonicalUomMissing):
		response.ErrorResponse(c, http.StatusBadRequest, "UOM_INVALID", err.Error())
	case errors.Is(err, masterdataModel.ErrItemNotFound),
		errors.Is(err, masterdataModel.ErrLocationNotFound),
		errors.Is(err, masterdataModel.ErrSalesOrderLineNotFound):
		response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		response.InternalServerError(c, "internal error")
	}
}
