package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/response"
)

type actorClaims struct {
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

// Actor resolves the calling principal. Production calls carry a bearer JWT
// whose claims name the actor and its capabilities. In development the
// X-Actor-Id / X-Actor-Capabilities headers are accepted as a fallback.
func Actor(jwtSecret string, allowHeaderFallback bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims := &actorClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				response.Unauthorized(c, "invalid bearer token")
				c.Abort()
				return
			}

			a := actor.Actor{ID: claims.Subject, Capabilities: claims.Capabilities}
			c.Request = c.Request.WithContext(actor.WithActor(c.Request.Context(), a))
			c.Next()
			return
		}

		if allowHeaderFallback {
			if id := c.GetHeader("X-Actor-Id"); id != "" {
				a := actor.Actor{ID: id}
				if caps := c.GetHeader("X-Actor-Capabilities"); caps != "" {
					a.Capabilities = strings.Split(caps, ",")
				}
				c.Request = c.Request.WithContext(actor.WithActor(c.Request.Context(), a))
				c.Next()
				return
			}
		}

		response.Unauthorized(c, "missing credentials")
		c.Abort()
	}
}
