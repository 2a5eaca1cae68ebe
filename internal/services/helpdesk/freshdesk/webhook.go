package freshdesk

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

// WebhookVerifier parses Freshdesk automation webhooks. Freshdesk webhook
// rules carry no signature, so verification always passes; operators are
// expected to restrict the endpoint by network instead.
type WebhookVerifier struct {
	deduper *helpdesk.Deduper
}

// NewWebhookVerifier creates a Freshdesk webhook verifier.
func NewWebhookVerifier(deduper *helpdesk.Deduper) *WebhookVerifier {
	return &WebhookVerifier{deduper: deduper}
}

// VerifySignature always succeeds; Freshdesk has no signature scheme.
func (v *WebhookVerifier) VerifySignature(raw []byte, signatureHeader string) error {
	return nil
}

// webhookPayload tolerates the several shapes Freshdesk automation rules
// produce, depending on how the rule's webhook body was configured.
type webhookPayload struct {
	Event     string      `json:"event"`
	Action    string      `json:"action"`
	TicketID  json.Number `json:"ticket_id"`
	TicketID2 json.Number `json:"ticketId"`
	ID        json.Number `json:"id"`
	Status    interface{} `json:"status"`

	Ticket *struct {
		ID     json.Number `json:"id"`
		Status interface{} `json:"status"`
	} `json:"ticket"`
	Data *struct {
		TicketID json.Number `json:"ticket_id"`
	} `json:"data"`

	DescriptionText string `json:"description_text"`
	BodyText        string `json:"body_text"`
	Note            *struct {
		ID       json.Number `json:"id"`
		BodyText string      `json:"body_text"`
	} `json:"note"`

	ActorType  string      `json:"actor_type"`
	ActorType2 string      `json:"actorType"`
	ActorID    json.Number `json:"actor_id"`
	ActorID2   json.Number `json:"actorId"`
	MessageID  json.Number `json:"message_id"`
	NoteID     json.Number `json:"note_id"`
}

// Parse normalizes a Freshdesk webhook payload. Resolution is recognized by
// a resolved/closed status string or the numeric status codes 4 and 5.
func (v *WebhookVerifier) Parse(raw []byte) (*models.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NewBadRequestError("malformed webhook payload", err.Error())
	}

	ticketID := v.ticketID(&payload)
	if ticketID == "" {
		log.Warn().Msg("Freshdesk webhook missing ticket id")
		return nil, nil
	}

	if isResolutionStatus(v.status(&payload)) {
		return &models.WebhookEvent{
			Kind:           models.EventResolution,
			ConversationID: ticketID,
			Raw:            raw,
		}, nil
	}

	messageID := v.messageID(&payload, ticketID)
	if v.deduper.Seen(messageID) {
		metrics.DedupDropsTotal.WithLabelValues(string(models.PlatformFreshdesk)).Inc()
		log.Debug().Str("messageId", messageID).Msg("Duplicate webhook message ignored")
		return nil, nil
	}

	actorType := firstNonEmpty(payload.ActorType, payload.ActorType2, "agent")
	actor := models.ActorKind(actorType)
	switch actor {
	case models.ActorUser, models.ActorAgent, models.ActorSystem:
	default:
		actor = models.ActorAgent
	}
	if actor == models.ActorUser {
		return nil, nil
	}

	text := payload.DescriptionText
	if text == "" {
		text = payload.BodyText
	}
	if text == "" && payload.Note != nil {
		text = payload.Note.BodyText
	}

	return &models.WebhookEvent{
		Kind:           models.EventMessage,
		ConversationID: ticketID,
		Message: &models.ParsedMessage{
			ID:        messageID,
			Text:      text,
			ActorKind: actor,
			ActorID:   firstNonEmpty(payload.ActorID.String(), payload.ActorID2.String()),
		},
		Raw: raw,
	}, nil
}

func (v *WebhookVerifier) ticketID(p *webhookPayload) string {
	candidates := []string{p.TicketID.String(), p.TicketID2.String(), p.ID.String()}
	if p.Ticket != nil {
		candidates = append(candidates, p.Ticket.ID.String())
	}
	if p.Data != nil {
		candidates = append(candidates, p.Data.TicketID.String())
	}
	return firstNonEmpty(candidates...)
}

func (v *WebhookVerifier) status(p *webhookPayload) interface{} {
	if p.Status != nil {
		return p.Status
	}
	if p.Ticket != nil {
		return p.Ticket.Status
	}
	return nil
}

func (v *WebhookVerifier) messageID(p *webhookPayload, ticketID string) string {
	if id := p.MessageID.String(); id != "" {
		return id
	}
	if id := p.NoteID.String(); id != "" {
		return id
	}
	if p.Note != nil {
		if id := p.Note.ID.String(); id != "" {
			return id
		}
	}
	event := firstNonEmpty(p.Event, p.Action, "event")
	return fmt.Sprintf("%s:%s", ticketID, event)
}

func isResolutionStatus(status interface{}) bool {
	switch s := status.(type) {
	case string:
		lower := strings.ToLower(s)
		return lower == "resolved" || lower == "closed"
	case float64:
		return s == 4 || s == 5
	case json.Number:
		return s.String() == "4" || s.String() == "5"
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
