package zendesk

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/metrics"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
)

// WebhookVerifier parses Zendesk trigger webhooks. The payload shape is
// operator-defined in the trigger's JSON body, so parsing is tolerant of
// the common field spellings.
type WebhookVerifier struct {
	deduper *helpdesk.Deduper
}

// NewWebhookVerifier creates a Zendesk webhook verifier.
func NewWebhookVerifier(deduper *helpdesk.Deduper) *WebhookVerifier {
	return &WebhookVerifier{deduper: deduper}
}

// VerifySignature always succeeds; trigger webhooks carry no signature in
// this integration.
func (v *WebhookVerifier) VerifySignature(raw []byte, signatureHeader string) error {
	return nil
}

type webhookPayload struct {
	Event     string      `json:"event"`
	TicketID  json.Number `json:"ticket_id"`
	TicketID2 json.Number `json:"ticketId"`
	ID        json.Number `json:"id"`
	Status    string      `json:"status"`

	Ticket *struct {
		ID     json.Number `json:"id"`
		Status string      `json:"status"`
	} `json:"ticket"`

	CommentID json.Number `json:"comment_id"`
	Comment   string      `json:"comment"`
	Body      string      `json:"body"`
	ActorType string      `json:"actor_type"`
	ActorID   json.Number `json:"actor_id"`
}

// Parse normalizes a Zendesk webhook payload. Resolution is recognized by a
// solved or closed ticket status.
func (v *WebhookVerifier) Parse(raw []byte) (*models.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NewBadRequestError("malformed webhook payload", err.Error())
	}

	ticketID := firstNonEmpty(payload.TicketID.String(), payload.TicketID2.String(), payload.ID.String())
	if ticketID == "" && payload.Ticket != nil {
		ticketID = payload.Ticket.ID.String()
	}
	if ticketID == "" {
		log.Warn().Msg("Zendesk webhook missing ticket id")
		return nil, nil
	}

	status := payload.Status
	if status == "" && payload.Ticket != nil {
		status = payload.Ticket.Status
	}
	if lower := strings.ToLower(status); lower == "solved" || lower == "closed" {
		return &models.WebhookEvent{
			Kind:           models.EventResolution,
			ConversationID: ticketID,
			Raw:            raw,
		}, nil
	}

	messageID := payload.CommentID.String()
	if messageID == "" {
		messageID = fmt.Sprintf("%s:%s", ticketID, firstNonEmpty(payload.Event, "event"))
	}
	if v.deduper.Seen(messageID) {
		metrics.DedupDropsTotal.WithLabelValues(string(models.PlatformZendesk)).Inc()
		log.Debug().Str("messageId", messageID).Msg("Duplicate webhook message ignored")
		return nil, nil
	}

	actor := models.ActorKind(firstNonEmpty(payload.ActorType, string(models.ActorAgent)))
	switch actor {
	case models.ActorUser, models.ActorAgent, models.ActorSystem:
	default:
		actor = models.ActorAgent
	}
	if actor == models.ActorUser {
		return nil, nil
	}

	return &models.WebhookEvent{
		Kind:           models.EventMessage,
		ConversationID: ticketID,
		Message: &models.ParsedMessage{
			ID:        messageID,
			Text:      firstNonEmpty(payload.Comment, payload.Body),
			ActorKind: actor,
			ActorID:   payload.ActorID.String(),
		},
		Raw: raw,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
