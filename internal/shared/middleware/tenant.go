package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fulfillment-backend/internal/shared/response"
)

const tenantContextKey = "tenant_id"

// Tenant requires the X-Tenant-Id header on every request and parks the
// parsed id on the gin context.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Tenant-Id")
		if raw == "" {
			response.BadRequest(c, "missing X-Tenant-Id header")
			c.Abort()
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "X-Tenant-Id must be a UUID")
			c.Abort()
			return
		}

		c.Set(tenantContextKey, tenantID)
		c.Next()
	}
}

// TenantID reads the tenant set by the Tenant middleware.
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(tenantContextKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
