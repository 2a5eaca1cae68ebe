// Package store defines the persistence interfaces behind tenant
// configuration and conversation mappings.
package store

import (
	"context"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
)

// TenantStore persists tenant configuration rows. Credential bundles cross
// this boundary encrypted; decryption happens in the tenant service only.
type TenantStore interface {
	// GetByTenantKey retrieves a tenant by its external key.
	// Returns nil if the tenant does not exist.
	GetByTenantKey(ctx context.Context, tenantKey string) (*models.TenantConfig, error)

	// Upsert creates or replaces a tenant row keyed by tenant key.
	Upsert(ctx context.Context, cfg *models.TenantConfig) (*models.TenantConfig, error)

	// Delete removes a tenant row. Returns true if a row was removed.
	Delete(ctx context.Context, tenantKey string) (bool, error)
}

// ConversationStore persists Teams ↔ backend conversation mappings.
// The store enforces uniqueness on (teamsConversationId, platform).
type ConversationStore interface {
	// GetByChatID retrieves a mapping by the Teams conversation id.
	// Returns nil if no mapping exists.
	GetByChatID(ctx context.Context, teamsConversationID string, platform models.Platform) (*models.ConversationMapping, error)

	// GetByPlatformID retrieves a mapping by either of the backend's id
	// schemes (primary conversation id or secondary numeric id).
	// Returns nil if no mapping exists.
	GetByPlatformID(ctx context.Context, platformConversationID string, platform models.Platform) (*models.ConversationMapping, error)

	// Upsert creates or replaces the mapping for its uniqueness key.
	Upsert(ctx context.Context, mapping *models.ConversationMapping) (*models.ConversationMapping, error)

	// MarkResolved updates the resolved flag for the mapping addressed by
	// the backend conversation id.
	MarkResolved(ctx context.Context, platformConversationID string, platform models.Platform, resolved bool) error

	// UpdateConversationReference refreshes the stored Bot Framework
	// conversation reference for a mapping.
	UpdateConversationReference(ctx context.Context, teamsConversationID string, platform models.Platform, ref map[string]interface{}) error
}

// Client bundles the stores behind one connection.
type Client interface {
	Tenants() TenantStore
	Conversations() ConversationStore

	// EnsureIndexes creates the indexes the stores rely on.
	EnsureIndexes(ctx context.Context) error

	// Ping checks if the store connection is alive.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close(ctx context.Context) error
}

// Type represents the type of backing store.
type Type string

const (
	// TypeMongoDB represents a MongoDB store.
	TypeMongoDB Type = "mongodb"
	// TypeCosmosDB represents an Azure CosmosDB store (MongoDB protocol).
	TypeCosmosDB Type = "cosmosdb"
)
