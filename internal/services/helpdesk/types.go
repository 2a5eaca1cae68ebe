// Package helpdesk provides the platform client factory and the interfaces
// each helpdesk backend implements.
package helpdesk

import (
	"context"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
)

// ConversationHandle identifies a backend conversation. Some backends
// address the same conversation by two schemes: a primary string id and a
// secondary numeric id; NumericID is empty when the backend has only one.
type ConversationHandle struct {
	ID        string
	NumericID string
}

// UploadedFile describes a file accepted by a backend's upload endpoint.
type UploadedFile struct {
	FileHash    string
	FileID      string
	Name        string
	ContentType string
	URL         string
}

// OutboundAttachment is an attachment to include in a backend message,
// either by URL or by a previously uploaded file reference.
type OutboundAttachment struct {
	URL         string
	FileHash    string
	FileID      string
	Name        string
	ContentType string
}

// Client is the uniform surface the router uses against any helpdesk
// backend. Implementations translate these calls into vendor API requests
// and classify failures as transient or permanent.
type Client interface {
	// GetOrCreateUser resolves the backend user for a Teams user,
	// creating one when absent. Returns the backend user id.
	GetOrCreateUser(ctx context.Context, user *models.ChatUser) (string, error)

	// CreateConversation opens a new backend conversation seeded with the
	// given message.
	CreateConversation(ctx context.Context, userID string, user *models.ChatUser, text string, attachments []OutboundAttachment) (*ConversationHandle, error)

	// SendMessage appends a message to an existing conversation.
	SendMessage(ctx context.Context, conversationID, userID, text string, attachments []OutboundAttachment) error

	// UploadFile pushes raw bytes to the backend's file storage.
	UploadFile(ctx context.Context, filename, contentType string, data []byte) (*UploadedFile, error)

	// GetAgentName resolves an agent's display name. Implementations
	// cache lookups; failures fall back to a generic label.
	GetAgentName(ctx context.Context, agentID string) string
}

// Verifier guards and normalizes a backend's inbound webhooks.
// Verification order is signature, then dedup, then parse.
type Verifier interface {
	// VerifySignature checks the raw body against the signature header.
	// Backends without a signature scheme return nil.
	VerifySignature(raw []byte, signatureHeader string) error

	// Parse normalizes the raw payload into a WebhookEvent. A nil event
	// with a nil error means the payload is intentionally ignored
	// (unrecognized action, duplicate, or user echo).
	Parse(raw []byte) (*models.WebhookEvent, error)
}
