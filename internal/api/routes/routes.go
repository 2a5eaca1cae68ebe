// Package routes defines the HTTP routes for the Teams Helpdesk Bridge.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/handlers"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler     *handlers.HealthHandler
	ActivitiesHandler *handlers.ActivitiesHandler
	WebhooksHandler   *handlers.WebhooksHandler
	TenantsHandler    *handlers.TenantsHandler
	AuthMiddleware    *middleware.AuthMiddleware
	TenantMiddleware  *middleware.TenantMiddleware

	// AdminCORSOrigins are browser origins allowed to call the admin
	// surface. Empty means server-to-server only.
	AdminCORSOrigins []string
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	// Health check routes (no auth required)
	r.GET("/health", cfg.HealthHandler.Health)
	r.GET("/ready", cfg.HealthHandler.Ready)
	r.GET("/live", cfg.HealthHandler.Live)

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Bot Framework messaging endpoint; authenticated per request by
		// validating the connector's JWT inside the handler.
		api.POST("/messages", cfg.ActivitiesHandler.Post)

		// Helpdesk webhook ingress; integrity is enforced per platform
		// inside the handler.
		webhook := api.Group("/webhook")
		webhook.Use(cfg.TenantMiddleware.ExtractTenant())
		{
			webhook.POST("/:platform/:tenantKey", cfg.WebhooksHandler.Post)
		}

		// Admin surface, guarded by the shared service key.
		admin := api.Group("/admin")
		if len(cfg.AdminCORSOrigins) > 0 {
			admin.Use(middleware.CORS(cfg.AdminCORSOrigins))
		}
		admin.Use(cfg.AuthMiddleware.RequireServiceKey())
		{
			tenants := admin.Group("/tenants/:tenantKey")
			tenants.Use(cfg.TenantMiddleware.ExtractTenant())
			{
				tenants.GET("", cfg.TenantsHandler.Get)
				tenants.PUT("", cfg.TenantsHandler.Upsert)
				tenants.DELETE("", cfg.TenantsHandler.Delete)
			}
		}
	}
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware) {
	// Apply global middleware
	r.Use(loggingMw.Logger())
	r.Use(loggingMw.RequestLogger())
	r.Use(errorMw.Recovery())
	r.Use(gin.Recovery())

	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())

	// Setup routes
	Setup(r, cfg)
}
