package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/middleware"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/router"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/teams"
)

const deliveryFailureNotice = "Sorry, your message could not be delivered. Please try again in a moment."

// ActivityValidator validates inbound Bot Framework authorization headers.
type ActivityValidator interface {
	Validate(ctx context.Context, authHeader string) error
}

// ErrorNotifier sends a best-effort notice back into a Teams conversation.
type ErrorNotifier interface {
	SendText(ctx context.Context, ref map[string]interface{}, text, senderName string) error
}

// ActivitiesHandler handles inbound Bot Framework activities.
type ActivitiesHandler struct {
	validator ActivityValidator
	router    *router.Router
	notifier  ErrorNotifier
}

// NewActivitiesHandler creates a new ActivitiesHandler.
func NewActivitiesHandler(validator ActivityValidator, r *router.Router, notifier ErrorNotifier) *ActivitiesHandler {
	return &ActivitiesHandler{
		validator: validator,
		router:    r,
		notifier:  notifier,
	}
}

// Post handles the Bot Framework messaging endpoint.
// @Summary Receive a Bot Framework activity
// @Description Accepts message and conversationUpdate activities from the Bot Framework connector
// @Tags Activities
// @Accept json
// @Produce json
// @Param activity body teams.Activity true "Bot Framework activity"
// @Success 200 {object} map[string]string "Activity accepted"
// @Failure 400 {object} middleware.ErrorResponse "Malformed activity"
// @Failure 401 {object} middleware.ErrorResponse "Invalid Bot Framework token"
// @Router /api/messages [post]
func (h *ActivitiesHandler) Post(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.validator.Validate(ctx, c.GetHeader("Authorization")); err != nil {
		log.Warn().Err(err).Msg("Rejected activity with invalid Bot Framework token")
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "UNAUTHORIZED",
			"message": "invalid bot framework token",
		})
		return
	}

	var activity teams.Activity
	if err := c.ShouldBindJSON(&activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "BAD_REQUEST",
			"message": "malformed activity payload",
		})
		return
	}

	switch activity.Type {
	case teams.ActivityMessage:
		h.handleMessage(c, &activity)
	case teams.ActivityConversationUpdate:
		// Membership changes carry no routable content; the greeting is
		// sent when the first conversation mapping is created.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		log.Debug().Str("type", activity.Type).Msg("Ignoring unsupported activity type")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func (h *ActivitiesHandler) handleMessage(c *gin.Context, activity *teams.Activity) {
	ctx := c.Request.Context()

	msg := teams.ParseMessage(activity)
	if msg == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	tenantKey := msg.User.TenantKey
	if tenantKey == "" {
		log.Warn().Str("conversation_id", msg.ConversationID).
			Msg("Message activity without tenant id")
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "BAD_REQUEST",
			"message": "activity carries no tenant id",
		})
		return
	}

	if err := h.router.HandleChatMessage(ctx, tenantKey, msg); err != nil {
		logger := middleware.GetRequestLogger(c)
		logger.Error().Err(err).
			Str("tenant_key", tenantKey).
			Str("conversation_id", msg.ConversationID).
			Msg("Failed to route Teams message")

		// The connector retries non-2xx responses; the user already sees
		// the failure notice, so acknowledge the delivery.
		h.notifyFailure(ctx, msg.ConversationReference)
		c.JSON(http.StatusOK, gin.H{"status": "failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (h *ActivitiesHandler) notifyFailure(ctx context.Context, ref map[string]interface{}) {
	if h.notifier == nil || ref == nil {
		return
	}
	if err := h.notifier.SendText(ctx, ref, deliveryFailureNotice, ""); err != nil {
		log.Warn().Err(err).Msg("Failed to send delivery failure notice")
	}
}
