package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	idemModel "fulfillment-backend/internal/domains/idempotency/model"
	masterdataModel "fulfillment-backend/internal/domains/masterdata/model"
	movementModel "fulfillment-backend/internal/domains/movement/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/shipment/model"
	"fulfillment-backend/internal/domains/shipment/service"
	stockModel "fulfillment-backend/internal/domains/stock/model"
	uomModel "fulfillment-backend/internal/domains/uom/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

// Handler exposes shipment posting over HTTP.
type Handler struct {
	poster *service.Poster
}

func NewHandler(poster *service.Poster) *Handler {
	return &Handler{poster: poster}
}

// RegisterRoutes mounts the shipment endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sales-order-shipments/:id/post", h.Post)
}

// Post handles POST /sales-order-shipments/:id/post.
func (h *Handler) Post(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.BadRequest(c, "tenant scope missing")
		return
	}

	shipmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be a UUID")
		return
	}

	var req model.PostRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	idemKey := c.GetHeader("Idempotency-Key")
	act, _ := actor.FromContext(c.Request.Context())

	view, err := h.poster.Post(c.Request.Context(), tenantID, shipmentID, req, idemKey, act)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrIdempotencyKeyRequired):
		response.BadRequest(c, err.Error())
	case errors.Is(err, model.ErrShipmentNotFound):
		response.ErrorResponse(c, http.StatusNotFound, "SHIPMENT_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrShipmentCanceled),
		errors.Is(err, model.ErrShipmentNoLines):
		response.ErrorResponse(c, http.StatusConflict, "SHIPMENT_INVALID_STATE", err.Error())
	case errors.Is(err, model.ErrInvalidLineQuantity):
		response.ErrorResponse(c, http.StatusBadRequest, "SHIPMENT_INVALID_QUANTITY", err.Error())
	case errors.Is(err, movementModel.ErrExternalRefRequired),
		errors.Is(err, movementModel.ErrCanonicalFieldsRequired):
		response.ErrorResponse(c, http.StatusBadRequest, "MOVEMENT_POLICY_VIOLATION", err.Error())
	case errors.Is(err, model.ErrCrossWarehouse):
		response.ErrorResponse(c, http.StatusConflict, "CROSS_WAREHOUSE_LEAKAGE_BLOCKED", err.Error())
	case errors.Is(err, model.ErrInsufficientAvailableWithAllowance):
		response.ErrorResponse(c, http.StatusConflict, "INSUFFICIENT_AVAILABLE_WITH_ALLOWANCE", err.Error())
	case errors.Is(err, stockModel.ErrOverrideNotAllowed):
		response.ErrorResponse(c, http.StatusForbidden, "NEGATIVE_OVERRIDE_NOT_ALLOWED", err.Error())
	case errors.Is(err, stockModel.ErrOverrideRequiresReason):
		response.ErrorResponse(c, http.StatusConflict, "NEGATIVE_OVERRIDE_REQUIRES_REASON", err.Error())
	case errors.Is(err, reservationModel.ErrConcurrencyExhausted):
		response.ErrorResponse(c, http.StatusConflict, "ATP_CONCURRENCY_EXHAUSTED", err.Error())
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
