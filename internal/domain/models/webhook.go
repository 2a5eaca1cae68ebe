package models

import (
	"encoding/json"
)

// EventKind is the normalized kind of a backend webhook event.
type EventKind string

const (
	// EventMessage is a new backend message to deliver to Teams.
	EventMessage EventKind = "message"
	// EventResolution signals the backend closed the conversation.
	EventResolution EventKind = "resolution"
)

// ActorKind identifies who authored a backend message.
type ActorKind string

const (
	ActorUser   ActorKind = "user"
	ActorAgent  ActorKind = "agent"
	ActorSystem ActorKind = "system"
)

// ParsedAttachment is an attachment extracted from a backend webhook payload.
type ParsedAttachment struct {
	Kind        AttachmentKind `json:"kind"`
	URL         string         `json:"url,omitempty"`
	Name        string         `json:"name,omitempty"`
	ContentType string         `json:"contentType,omitempty"`
	FileHash    string         `json:"fileHash,omitempty"`
	FileID      string         `json:"fileId,omitempty"`
}

// ParsedMessage is a backend message normalized from a vendor payload.
// Text parts are concatenated in order with newline separators.
type ParsedMessage struct {
	ID          string             `json:"id"`
	Text        string             `json:"text,omitempty"`
	Attachments []ParsedAttachment `json:"attachments,omitempty"`
	ActorKind   ActorKind          `json:"actorKind"`
	ActorID     string             `json:"actorId,omitempty"`
	CreatedTime string             `json:"createdTime,omitempty"`
}

// WebhookEvent is the normalized event the integrity layer hands the router.
// A message event always carries a non-nil Message; a resolution event
// carries at least one conversation id.
type WebhookEvent struct {
	Kind           EventKind       `json:"kind"`
	ConversationID string          `json:"conversationId,omitempty"`
	NumericID      string          `json:"numericId,omitempty"`
	Message        *ParsedMessage  `json:"message,omitempty"`
	UserID         string          `json:"userId,omitempty"`
	Raw            json.RawMessage `json:"-"`
}
