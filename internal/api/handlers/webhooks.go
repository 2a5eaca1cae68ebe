package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/middleware"
	domainerrors "github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/metrics"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/router"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/tenant"
)

// WebhooksHandler handles inbound helpdesk webhooks.
type WebhooksHandler struct {
	tenants                tenant.Service
	factory                *helpdesk.Factory
	router                 *router.Router
	rejectInvalidSignature bool
}

// WebhooksHandlerConfig holds the dependencies for a WebhooksHandler.
type WebhooksHandlerConfig struct {
	Tenants                tenant.Service
	Factory                *helpdesk.Factory
	Router                 *router.Router
	RejectInvalidSignature bool
}

// NewWebhooksHandler creates a new WebhooksHandler.
func NewWebhooksHandler(cfg *WebhooksHandlerConfig) *WebhooksHandler {
	return &WebhooksHandler{
		tenants:                cfg.Tenants,
		factory:                cfg.Factory,
		router:                 cfg.Router,
		rejectInvalidSignature: cfg.RejectInvalidSignature,
	}
}

// Post handles a webhook delivery from a helpdesk backend.
// @Summary Receive a helpdesk webhook
// @Description Verifies, deduplicates, and routes a webhook event from the tenant's helpdesk backend
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param platform path string true "Helpdesk platform" Enums(freshchat, freshdesk, zendesk)
// @Param tenantKey path string true "Tenant key"
// @Success 200 {object} map[string]string "Event processed or ignored"
// @Failure 400 {object} middleware.ErrorResponse "Unknown platform or platform mismatch"
// @Failure 401 {object} middleware.ErrorResponse "Invalid signature"
// @Failure 404 {object} middleware.ErrorResponse "Unknown tenant"
// @Router /api/webhook/{platform}/{tenantKey} [post]
func (h *WebhooksHandler) Post(c *gin.Context) {
	ctx := c.Request.Context()
	platform := models.Platform(c.Param("platform"))
	tenantKey := c.Param("tenantKey")

	if !platform.IsValid() {
		metrics.RecordWebhook(c.Param("platform"), "unknown_platform")
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "BAD_REQUEST",
			"message": "unknown platform",
		})
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		metrics.RecordWebhook(string(platform), "read_error")
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "BAD_REQUEST",
			"message": "unreadable request body",
		})
		return
	}

	cfg, err := h.tenants.Get(ctx, tenantKey)
	if err != nil {
		if domainerrors.IsNotFound(err) {
			metrics.RecordWebhook(string(platform), "unknown_tenant")
		} else {
			metrics.RecordWebhook(string(platform), "error")
		}
		middleware.HandleError(c, err)
		return
	}

	if cfg.Platform != platform {
		metrics.RecordWebhook(string(platform), "platform_mismatch")
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "BAD_REQUEST",
			"message": "tenant is not configured for this platform",
		})
		return
	}

	verifier, err := h.factory.GetVerifier(cfg)
	if err != nil {
		metrics.RecordWebhook(string(platform), "error")
		middleware.HandleError(c, err)
		return
	}

	if err := verifier.VerifySignature(raw, signatureHeader(c, platform)); err != nil {
		metrics.SignatureFailuresTotal.WithLabelValues(string(platform)).Inc()
		if h.rejectInvalidSignature {
			metrics.RecordWebhook(string(platform), "rejected")
			log.Warn().Err(err).
				Str("tenant_key", tenantKey).
				Str("platform", string(platform)).
				Msg("Rejected webhook with invalid signature")
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "INVALID_SIGNATURE",
				"message": "webhook signature verification failed",
			})
			return
		}
		log.Warn().Err(err).
			Str("tenant_key", tenantKey).
			Str("platform", string(platform)).
			Msg("Webhook signature verification failed; processing anyway")
	}

	event, err := verifier.Parse(raw)
	if err != nil {
		metrics.RecordWebhook(string(platform), "parse_error")
		log.Warn().Err(err).
			Str("tenant_key", tenantKey).
			Str("platform", string(platform)).
			Msg("Failed to parse webhook payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "BAD_REQUEST",
			"message": "unparseable webhook payload",
		})
		return
	}
	if event == nil {
		// Duplicates, echoes, and event types the bridge does not route.
		metrics.RecordWebhook(string(platform), "ignored")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.router.HandleWebhookEvent(ctx, cfg, event); err != nil {
		metrics.RecordWebhook(string(platform), "error")
		log.Error().Err(err).
			Str("tenant_key", tenantKey).
			Str("platform", string(platform)).
			Str("kind", string(event.Kind)).
			Msg("Failed to route webhook event")
		middleware.HandleError(c, err)
		return
	}

	metrics.RecordWebhook(string(platform), "processed")
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// signatureHeader returns the platform's signature header value, empty when
// the platform does not sign its webhooks.
func signatureHeader(c *gin.Context, platform models.Platform) string {
	switch platform {
	case models.PlatformFreshchat:
		return c.GetHeader("X-Freshchat-Signature")
	default:
		return ""
	}
}
