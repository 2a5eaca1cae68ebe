// Package router moves messages between Teams conversations and helpdesk
// backends, owning the conversation mapping state machine.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/media"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/store"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/metrics"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/retry"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/teams"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/tenant"
)

const resolutionNotice = "The conversation has been closed by the support team. Send a new message to start another one."

// TeamsSender is the outbound Teams surface the router needs; satisfied by
// the Bot Connector client.
type TeamsSender interface {
	SendText(ctx context.Context, ref map[string]interface{}, text, senderName string) error
	SendCard(ctx context.Context, ref map[string]interface{}, card teams.Card, senderName string) error
	DownloadAttachment(ctx context.Context, contentURL, downloadURL string) ([]byte, string, error)
}

// Router implements the per-conversation state machine. A mapping moves
// NoMapping → Open → Resolved; a message after resolution supersedes the
// mapping with a fresh backend conversation. Mapping reads and writes are
// not mutually excluded; concurrent messages for one conversation may race
// and the last write wins.
type Router struct {
	tenants       tenant.Service
	factory       *helpdesk.Factory
	conversations store.ConversationStore
	mediaStore    media.Store
	sender        TeamsSender
	retryPolicy   *retry.Policy
}

// Config holds the router's dependencies. MediaStore may be nil, which
// disables archiving.
type Config struct {
	Tenants       tenant.Service
	Factory       *helpdesk.Factory
	Conversations store.ConversationStore
	MediaStore    media.Store
	Sender        TeamsSender
	RetryPolicy   *retry.Policy
}

// New creates a router.
func New(cfg *Config) (*Router, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Tenants == nil || cfg.Factory == nil || cfg.Conversations == nil || cfg.Sender == nil {
		return nil, fmt.Errorf("tenants, factory, conversations, and sender are required")
	}

	policy := cfg.RetryPolicy
	if policy == nil {
		policy = retry.DefaultPolicy()
	}

	return &Router{
		tenants:       cfg.Tenants,
		factory:       cfg.Factory,
		conversations: cfg.Conversations,
		mediaStore:    cfg.MediaStore,
		sender:        cfg.Sender,
		retryPolicy:   policy,
	}, nil
}

// HandleChatMessage routes an inbound Teams message to the tenant's
// backend, opening a new conversation when none is open.
func (r *Router) HandleChatMessage(ctx context.Context, tenantKey string, msg *models.ChatMessage) error {
	cfg, err := r.tenants.Get(ctx, tenantKey)
	if err != nil {
		return err
	}

	client, err := r.factory.GetClient(cfg)
	if err != nil {
		return err
	}

	mapping, err := r.conversations.GetByChatID(ctx, msg.ConversationID, cfg.Platform)
	if err != nil {
		return err
	}

	outbound := r.processAttachments(ctx, client, msg.Attachments)

	if mapping == nil || mapping.IsResolved {
		return r.openConversation(ctx, cfg, client, mapping, msg, outbound)
	}
	return r.appendMessage(ctx, cfg, client, mapping, msg, outbound)
}

// openConversation creates a backend conversation and persists an open
// mapping. Nothing is written when the backend rejects the create, so a
// retried Teams message starts from a clean slate.
func (r *Router) openConversation(ctx context.Context, cfg *models.TenantConfig, client helpdesk.Client, previous *models.ConversationMapping, msg *models.ChatMessage, outbound []helpdesk.OutboundAttachment) error {
	userID, err := client.GetOrCreateUser(ctx, &msg.User)
	if err != nil {
		return err
	}

	var handle *helpdesk.ConversationHandle
	err = r.retryPolicy.Do(ctx, "create_conversation", func(ctx context.Context) error {
		var opErr error
		handle, opErr = client.CreateConversation(ctx, userID, &msg.User, msg.Text, outbound)
		return opErr
	})
	if err != nil {
		return err
	}

	mapping := &models.ConversationMapping{
		TeamsConversationID:    msg.ConversationID,
		TeamsUserID:            msg.User.ID,
		Platform:               cfg.Platform,
		PlatformConversationID: handle.ID,
		PlatformNumericID:      handle.NumericID,
		PlatformUserID:         userID,
		ConversationReference:  msg.ConversationReference,
		IsResolved:             false,
		GreetingSent:           previous != nil && previous.GreetingSent,
		TenantID:               cfg.ID,
	}

	stored, err := r.conversations.Upsert(ctx, mapping)
	if err != nil {
		return fmt.Errorf("conversation created but mapping not persisted: %w", err)
	}

	metrics.ConversationsCreatedTotal.WithLabelValues(string(cfg.Platform)).Inc()
	metrics.MessagesRoutedTotal.WithLabelValues(string(cfg.Platform), "to_backend").Inc()

	log.Info().
		Str("teamsConversationId", msg.ConversationID).
		Str("platformConversationId", handle.ID).
		Str("platform", string(cfg.Platform)).
		Msg("Opened backend conversation")

	r.sendGreeting(ctx, cfg, stored, msg.ConversationReference)
	return nil
}

// appendMessage delivers to the open backend conversation through the
// retry policy. Exhausted retries leave the mapping open so the next
// message does not open a duplicate conversation.
func (r *Router) appendMessage(ctx context.Context, cfg *models.TenantConfig, client helpdesk.Client, mapping *models.ConversationMapping, msg *models.ChatMessage, outbound []helpdesk.OutboundAttachment) error {
	err := r.retryPolicy.Do(ctx, "send_message", func(ctx context.Context) error {
		return client.SendMessage(ctx, mapping.PlatformConversationID, mapping.PlatformUserID, msg.Text, outbound)
	})
	if err != nil {
		return err
	}

	metrics.MessagesRoutedTotal.WithLabelValues(string(cfg.Platform), "to_backend").Inc()

	if err := r.conversations.UpdateConversationReference(ctx, msg.ConversationID, cfg.Platform, msg.ConversationReference); err != nil {
		log.Warn().Err(err).Str("teamsConversationId", msg.ConversationID).
			Msg("Failed to refresh conversation reference")
	}
	return nil
}

// sendGreeting delivers the tenant welcome message at most once per
// mapping. Delivery failures are logged, not surfaced; the flag flips only
// after a successful send.
func (r *Router) sendGreeting(ctx context.Context, cfg *models.TenantConfig, mapping *models.ConversationMapping, ref map[string]interface{}) {
	if mapping.GreetingSent || cfg.WelcomeMessage == "" {
		return
	}

	if err := r.sender.SendText(ctx, ref, cfg.WelcomeMessage, cfg.BotName); err != nil {
		log.Warn().Err(err).Str("tenantKey", cfg.TenantKey).Msg("Failed to send greeting")
		return
	}

	mapping.GreetingSent = true
	if _, err := r.conversations.Upsert(ctx, mapping); err != nil {
		log.Warn().Err(err).Str("teamsConversationId", mapping.TeamsConversationID).
			Msg("Failed to persist greeting flag")
	}
}

// HandleWebhookEvent routes a verified, parsed backend event to Teams.
func (r *Router) HandleWebhookEvent(ctx context.Context, cfg *models.TenantConfig, event *models.WebhookEvent) error {
	switch event.Kind {
	case models.EventResolution:
		return r.handleResolution(ctx, cfg, event)
	case models.EventMessage:
		return r.handleBackendMessage(ctx, cfg, event)
	default:
		return errors.NewBadRequestError(fmt.Sprintf("unknown event kind: %s", event.Kind), "")
	}
}

func (r *Router) handleResolution(ctx context.Context, cfg *models.TenantConfig, event *models.WebhookEvent) error {
	mapping := r.findMapping(ctx, cfg, event)
	if mapping == nil {
		log.Debug().
			Str("conversationId", event.ConversationID).
			Str("platform", string(cfg.Platform)).
			Msg("Resolution for unmapped conversation ignored")
		return nil
	}

	if err := r.sender.SendText(ctx, mapping.ConversationReference, resolutionNotice, ""); err != nil {
		log.Warn().Err(err).Str("teamsConversationId", mapping.TeamsConversationID).
			Msg("Failed to notify Teams of resolution")
	}

	// A mapping without a backend conversation id cannot be addressed for
	// the update; the notification above still went out.
	if mapping.PlatformConversationID == "" && mapping.PlatformNumericID == "" {
		return nil
	}

	id := mapping.PlatformConversationID
	if id == "" {
		id = mapping.PlatformNumericID
	}
	if err := r.conversations.MarkResolved(ctx, id, cfg.Platform, true); err != nil {
		return err
	}

	log.Info().
		Str("teamsConversationId", mapping.TeamsConversationID).
		Str("platform", string(cfg.Platform)).
		Msg("Conversation resolved")
	return nil
}

func (r *Router) handleBackendMessage(ctx context.Context, cfg *models.TenantConfig, event *models.WebhookEvent) error {
	if event.Message == nil {
		return errors.NewBadRequestError("message event without message", "")
	}

	mapping := r.findMapping(ctx, cfg, event)
	if mapping == nil {
		log.Warn().
			Str("conversationId", event.ConversationID).
			Str("numericId", event.NumericID).
			Str("platform", string(cfg.Platform)).
			Msg("Backend message for unmapped conversation dropped")
		return nil
	}

	senderName := ""
	if event.Message.ActorKind == models.ActorAgent && event.Message.ActorID != "" {
		if client, err := r.factory.GetClient(cfg); err == nil {
			senderName = client.GetAgentName(ctx, event.Message.ActorID)
		}
	}

	text, images := composeOutbound(event.Message)

	if text != "" {
		if err := r.sender.SendText(ctx, mapping.ConversationReference, text, senderName); err != nil {
			return err
		}
		senderName = ""
	}
	for _, img := range images {
		if err := r.sender.SendCard(ctx, mapping.ConversationReference, img, senderName); err != nil {
			log.Warn().Err(err).Str("teamsConversationId", mapping.TeamsConversationID).
				Msg("Failed to deliver image card")
		}
		senderName = ""
	}

	metrics.MessagesRoutedTotal.WithLabelValues(string(cfg.Platform), "to_teams").Inc()
	return nil
}

// findMapping resolves the mapping by the primary conversation id first,
// the numeric id second.
func (r *Router) findMapping(ctx context.Context, cfg *models.TenantConfig, event *models.WebhookEvent) *models.ConversationMapping {
	for _, id := range []string{event.ConversationID, event.NumericID} {
		if id == "" {
			continue
		}
		mapping, err := r.conversations.GetByPlatformID(ctx, id, cfg.Platform)
		if err != nil {
			log.Warn().Err(err).Str("platformConversationId", id).Msg("Mapping lookup failed")
			continue
		}
		if mapping != nil {
			return mapping
		}
	}
	return nil
}

// composeOutbound flattens a backend message for Teams delivery: the text
// body, video links, and file links joined by blank lines, with images
// returned separately as inline cards.
func composeOutbound(msg *models.ParsedMessage) (string, []teams.Card) {
	var sections []string
	var images []teams.Card

	if msg.Text != "" {
		sections = append(sections, msg.Text)
	}

	for _, att := range msg.Attachments {
		kind := models.ClassifyAttachment(att.Kind, att.ContentType, att.Name)
		switch kind {
		case models.AttachmentImage:
			if att.URL != "" {
				images = append(images, teams.NewImageCard(att.URL, att.Name))
			}
		case models.AttachmentVideo:
			if att.URL != "" {
				name := att.Name
				if name == "" {
					name = "video"
				}
				sections = append(sections, fmt.Sprintf("🎬 [%s](%s)", name, att.URL))
			}
		default:
			if att.URL != "" {
				name := att.Name
				if name == "" {
					name = "file"
				}
				sections = append(sections, fmt.Sprintf("📎 [%s](%s)", name, att.URL))
			}
		}
	}

	return strings.Join(sections, "\n\n"), images
}
