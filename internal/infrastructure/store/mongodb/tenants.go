package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
)

const tenantsCollectionName = "tenants"

// TenantsCollection wraps the tenants collection.
type TenantsCollection struct {
	collection *mongo.Collection
}

// NewTenantsCollection creates a new tenants collection wrapper.
func NewTenantsCollection(db *mongo.Database) *TenantsCollection {
	return &TenantsCollection{
		collection: db.Collection(tenantsCollectionName),
	}
}

// EnsureIndexes creates the indexes for the tenants collection.
func (c *TenantsCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenantKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := c.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create tenant indexes: %w", err)
	}
	return nil
}

// GetByTenantKey retrieves a tenant by its external key.
// Returns nil if the tenant does not exist.
func (c *TenantsCollection) GetByTenantKey(ctx context.Context, tenantKey string) (*models.TenantConfig, error) {
	var cfg models.TenantConfig
	err := c.collection.FindOne(ctx, bson.M{"tenantKey": tenantKey}).Decode(&cfg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant %s: %w", tenantKey, err)
	}
	return &cfg, nil
}

// Upsert creates or replaces a tenant row keyed by tenant key.
func (c *TenantsCollection) Upsert(ctx context.Context, cfg *models.TenantConfig) (*models.TenantConfig, error) {
	now := time.Now().UTC()
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	filter := bson.M{"tenantKey": cfg.TenantKey}
	update := bson.M{
		"$set": bson.M{
			"platform":       cfg.Platform,
			"credentials":    cfg.Credentials,
			"botName":        cfg.BotName,
			"welcomeMessage": cfg.WelcomeMessage,
			"updatedAt":      cfg.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       cfg.ID,
			"tenantKey": cfg.TenantKey,
			"createdAt": cfg.CreatedAt,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result models.TenantConfig
	if err := c.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to upsert tenant %s: %w", cfg.TenantKey, err)
	}
	return &result, nil
}

// Delete removes a tenant row. Returns true if a row was removed.
func (c *TenantsCollection) Delete(ctx context.Context, tenantKey string) (bool, error) {
	result, err := c.collection.DeleteOne(ctx, bson.M{"tenantKey": tenantKey})
	if err != nil {
		return false, fmt.Errorf("failed to delete tenant %s: %w", tenantKey, err)
	}
	return result.DeletedCount > 0, nil
}
