package models

import (
	"time"
)

// ConversationMapping links one Teams conversation to one backend
// conversation/ticket. Uniqueness key is (TeamsConversationID, Platform);
// at most one mapping with IsResolved == false exists per key. A resolved
// mapping is superseded by a fresh one, never flipped back to open.
type ConversationMapping struct {
	ID                  string   `json:"id,omitempty" bson:"_id,omitempty"`
	TeamsConversationID string   `json:"teamsConversationId" bson:"teamsConversationId"`
	TeamsUserID         string   `json:"teamsUserId" bson:"teamsUserId"`
	Platform            Platform `json:"platform" bson:"platform"`

	// PlatformConversationID is the backend's primary conversation id.
	// Some backends expose a second, numeric addressing scheme for the
	// same conversation; that lands in PlatformNumericID.
	PlatformConversationID string `json:"platformConversationId" bson:"platformConversationId"`
	PlatformNumericID      string `json:"platformNumericId,omitempty" bson:"platformNumericId,omitempty"`
	PlatformUserID         string `json:"platformUserId,omitempty" bson:"platformUserId,omitempty"`

	// ConversationReference carries enough Bot Framework state to push a
	// proactive message to Teams without a new inbound request. Refreshed
	// opportunistically on every inbound Teams message.
	ConversationReference map[string]interface{} `json:"conversationReference" bson:"conversationReference"`

	IsResolved   bool   `json:"isResolved" bson:"isResolved"`
	GreetingSent bool   `json:"greetingSent" bson:"greetingSent"`
	TenantID     string `json:"tenantId" bson:"tenantId"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
