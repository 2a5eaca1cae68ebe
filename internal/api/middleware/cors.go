package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS returns a middleware for the admin surface so a browser-based ops
// console can call it. Only configured origins are allowed; with no origins
// configured the middleware emits no CORS headers, which keeps the admin
// API server-to-server only.
func CORS(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowOrigins))
	wildcard := false
	for _, o := range allowOrigins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	headers := strings.Join([]string{
		"Origin",
		"Content-Type",
		"Accept",
		ServiceKeyHeader,
	}, ", ")
	methods := strings.Join([]string{
		http.MethodGet,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (wildcard || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", headers)
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Max-Age", "86400")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
