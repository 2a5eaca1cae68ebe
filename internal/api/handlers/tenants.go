package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/middleware"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/tenant"
)

const redactedValue = "***"

// TenantsHandler handles the admin tenant configuration endpoints.
type TenantsHandler struct {
	tenants tenant.Service
}

// NewTenantsHandler creates a new TenantsHandler.
func NewTenantsHandler(tenants tenant.Service) *TenantsHandler {
	return &TenantsHandler{tenants: tenants}
}

// TenantRequest is the admin upsert payload.
type TenantRequest struct {
	Platform       models.Platform            `json:"platform" binding:"required"`
	Credentials    models.PlatformCredentials `json:"credentials" binding:"required"`
	BotName        string                     `json:"botName"`
	WelcomeMessage string                     `json:"welcomeMessage"`
}

// TenantResponse is a tenant row with secret fields redacted.
type TenantResponse struct {
	ID             string                     `json:"id"`
	TenantKey      string                     `json:"tenantKey"`
	Platform       models.Platform            `json:"platform"`
	Credentials    models.PlatformCredentials `json:"credentials"`
	BotName        string                     `json:"botName,omitempty"`
	WelcomeMessage string                     `json:"welcomeMessage,omitempty"`
	CreatedAt      string                     `json:"createdAt"`
	UpdatedAt      string                     `json:"updatedAt"`
}

// Get returns a tenant's configuration.
// @Summary Get tenant configuration
// @Description Returns the tenant's configuration with secrets redacted
// @Tags Admin
// @Produce json
// @Param tenantKey path string true "Tenant key"
// @Success 200 {object} TenantResponse "Tenant configuration"
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid service key"
// @Failure 404 {object} middleware.ErrorResponse "Unknown tenant"
// @Security ServiceKeyAuth
// @Router /api/admin/tenants/{tenantKey} [get]
func (h *TenantsHandler) Get(c *gin.Context) {
	tenantKey := middleware.GetTenantKey(c)

	cfg, err := h.tenants.Get(c.Request.Context(), tenantKey)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTenantResponse(cfg))
}

// Upsert creates or replaces a tenant's configuration.
// @Summary Upsert tenant configuration
// @Description Creates or replaces the tenant's platform binding and credentials
// @Tags Admin
// @Accept json
// @Produce json
// @Param tenantKey path string true "Tenant key"
// @Param tenant body TenantRequest true "Tenant configuration"
// @Success 200 {object} TenantResponse "Stored tenant configuration"
// @Failure 400 {object} middleware.ErrorResponse "Invalid configuration"
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid service key"
// @Security ServiceKeyAuth
// @Router /api/admin/tenants/{tenantKey} [put]
func (h *TenantsHandler) Upsert(c *gin.Context) {
	tenantKey := middleware.GetTenantKey(c)

	var req TenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "BAD_REQUEST",
			"message": "malformed tenant payload",
			"details": err.Error(),
		})
		return
	}

	cfg := &models.TenantConfig{
		TenantKey:      tenantKey,
		Platform:       req.Platform,
		Credentials:    req.Credentials,
		BotName:        req.BotName,
		WelcomeMessage: req.WelcomeMessage,
	}

	stored, err := h.tenants.Upsert(c.Request.Context(), cfg)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	log.Info().
		Str("tenant_key", tenantKey).
		Str("platform", string(stored.Platform)).
		Msg("Tenant configuration upserted")

	c.JSON(http.StatusOK, toTenantResponse(stored))
}

// Delete removes a tenant's configuration.
// @Summary Delete tenant configuration
// @Description Removes the tenant's configuration and invalidates its caches
// @Tags Admin
// @Produce json
// @Param tenantKey path string true "Tenant key"
// @Success 204 "Tenant removed"
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid service key"
// @Failure 404 {object} middleware.ErrorResponse "Unknown tenant"
// @Security ServiceKeyAuth
// @Router /api/admin/tenants/{tenantKey} [delete]
func (h *TenantsHandler) Delete(c *gin.Context) {
	tenantKey := middleware.GetTenantKey(c)

	if err := h.tenants.Delete(c.Request.Context(), tenantKey); err != nil {
		middleware.HandleError(c, err)
		return
	}

	log.Info().Str("tenant_key", tenantKey).Msg("Tenant configuration deleted")
	c.Status(http.StatusNoContent)
}

// toTenantResponse converts a tenant row to its redacted wire form.
func toTenantResponse(cfg *models.TenantConfig) TenantResponse {
	creds := cfg.Credentials.Clone()
	redactCredentials(&creds)

	return TenantResponse{
		ID:             cfg.ID,
		TenantKey:      cfg.TenantKey,
		Platform:       cfg.Platform,
		Credentials:    creds,
		BotName:        cfg.BotName,
		WelcomeMessage: cfg.WelcomeMessage,
		CreatedAt:      cfg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      cfg.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// redactCredentials masks every secret field, leaving routing fields intact
// so an operator can confirm which account the tenant points at.
func redactCredentials(creds *models.PlatformCredentials) {
	if creds.Freshchat != nil {
		maskNonEmpty(&creds.Freshchat.APIKey, &creds.Freshchat.WebhookPublicKey)
	}
	if creds.Freshdesk != nil {
		maskNonEmpty(&creds.Freshdesk.APIKey)
	}
	if creds.Zendesk != nil {
		maskNonEmpty(&creds.Zendesk.APIToken, &creds.Zendesk.OAuthToken)
	}
}

func maskNonEmpty(fields ...*string) {
	for _, f := range fields {
		if f != nil && *f != "" {
			*f = redactedValue
		}
	}
}
