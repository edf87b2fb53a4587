package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
	"fulfillment-backend/pkg/container"
)

// SetupRouter mounts middlewares and the versioned API surface.
func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
	)

	allowHeaderFallback := c.Config.App.Environment != "production"

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		scoped := v1.Group("")
		scoped.Use(
			middleware.Actor(c.Config.Auth.JWTSecret, allowHeaderFallback),
			middleware.Tenant(),
		)

		c.ReservationHandler.RegisterRoutes(scoped)
		c.ShipmentHandler.RegisterRoutes(scoped)
		c.BalanceHandler.RegisterRoutes(scoped)
	}

	return router
}

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}
		code := http.StatusOK

		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := c.Cache.Ping(ctx.Request.Context()); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}

		if code != http.StatusOK {
			response.ErrorWithDetails(ctx, code, "UNHEALTHY", "dependency check failed", status)
			return
		}
		response.Success(ctx, code, status)
	}
}
