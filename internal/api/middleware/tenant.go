// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gin-gonic/gin"
)

// TenantMiddleware extracts tenant context from the request.
type TenantMiddleware struct{}

// NewTenantMiddleware creates a new TenantMiddleware.
func NewTenantMiddleware() *TenantMiddleware {
	return &TenantMiddleware{}
}

// ExtractTenant returns a gin middleware that extracts the tenant key from
// the path.
func (m *TenantMiddleware) ExtractTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantKey := c.Param("tenantKey")
		if tenantKey != "" {
			c.Set("tenant_key", tenantKey)
		}
		c.Next()
	}
}

// GetTenantKey retrieves the tenant key from the gin context.
func GetTenantKey(c *gin.Context) string {
	if tenantKey, exists := c.Get("tenant_key"); exists {
		return tenantKey.(string)
	}
	return c.Param("tenantKey")
}
