// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServiceKeyHeader carries the admin service key.
const ServiceKeyHeader = "X-Service-Key"

// AuthMiddleware guards the admin surface with a shared service key.
type AuthMiddleware struct {
	serviceKey string
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(serviceKey string) *AuthMiddleware {
	return &AuthMiddleware{serviceKey: serviceKey}
}

// RequireServiceKey returns a gin middleware that validates the service key
// header. An empty configured key disables the admin surface entirely.
func (m *AuthMiddleware) RequireServiceKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.serviceKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "admin surface is disabled",
			})
			return
		}

		provided := c.GetHeader(ServiceKeyHeader)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "missing service key",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.serviceKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "invalid service key",
			})
			return
		}

		c.Next()
	}
}
