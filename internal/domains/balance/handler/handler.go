package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/balance/service"
	masterdataModel "fulfillment-backend/internal/domains/masterdata/model"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

// Handler exposes availability reads over HTTP.
type Handler struct {
	service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// RegisterRoutes mounts the balance endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/balances", h.List)
}

// List handles GET /balances?item_id=&location_id=.
func (h *Handler) List(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		response.BadRequest(c, "tenant scope missing")
		return
	}

	itemID, err := uuid.Parse(c.Query("item_id"))
	if err != nil {
		response.BadRequest(c, "item_id must be a UUID")
		return
	}
	locationID, err := uuid.Parse(c.Query("location_id"))
	if err != nil {
		response.BadRequest(c, "location_id must be a UUID")
		return
	}

	views, err := h.service.Availability(c.Request.Context(), tenantID, itemID, locationID)
	if err != nil {
		if errors.Is(err, masterdataModel.ErrLocationNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.InternalServerError(c, "internal error")
		return
	}

	response.Success(c, http.StatusOK, views)
}
