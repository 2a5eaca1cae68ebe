// Package mongodb provides the MongoDB store implementation.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/store"
)

// Client implements the store.Client interface for MongoDB.
type Client struct {
	client        *mongo.Client
	db            *mongo.Database
	tenants       *TenantsCollection
	conversations *ConversationsCollection
}

// ClientConfig holds MongoDB connection configuration.
type ClientConfig struct {
	URI          string
	DatabaseName string
}

// NewClient creates a new MongoDB store client.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if config.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	clientOpts := options.Client().ApplyURI(config.URI)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(config.DatabaseName)

	return &Client{
		client:        client,
		db:            db,
		tenants:       NewTenantsCollection(db),
		conversations: NewConversationsCollection(db),
	}, nil
}

// Tenants returns the tenants store.
func (c *Client) Tenants() store.TenantStore {
	return c.tenants
}

// Conversations returns the conversations store.
func (c *Client) Conversations() store.ConversationStore {
	return c.conversations
}

// EnsureIndexes creates all necessary indexes for all collections.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	if err := c.tenants.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure tenant indexes: %w", err)
	}
	if err := c.conversations.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure conversation indexes: %w", err)
	}
	return nil
}

// Ping verifies the connection to MongoDB.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// Database returns the underlying mongo database (for the media archive).
func (c *Client) Database() *mongo.Database {
	return c.db
}
