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

const conversationsCollectionName = "conversations"

// ConversationsCollection wraps the conversations collection.
type ConversationsCollection struct {
	collection *mongo.Collection
}

// NewConversationsCollection creates a new conversations collection wrapper.
func NewConversationsCollection(db *mongo.Database) *ConversationsCollection {
	return &ConversationsCollection{
		collection: db.Collection(conversationsCollectionName),
	}
}

// EnsureIndexes creates the indexes for the conversations collection.
func (c *ConversationsCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "teamsConversationId", Value: 1},
				{Key: "platform", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "platformConversationId", Value: 1},
				{Key: "platform", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "platformNumericId", Value: 1},
				{Key: "platform", Value: 1},
			},
		},
	}

	_, err := c.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}
	return nil
}

// GetByChatID retrieves a mapping by the Teams conversation id.
// Returns nil if no mapping exists.
func (c *ConversationsCollection) GetByChatID(ctx context.Context, teamsConversationID string, platform models.Platform) (*models.ConversationMapping, error) {
	filter := bson.M{
		"teamsConversationId": teamsConversationID,
		"platform":            platform,
	}

	var mapping models.ConversationMapping
	err := c.collection.FindOne(ctx, filter).Decode(&mapping)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation mapping: %w", err)
	}
	return &mapping, nil
}

// GetByPlatformID retrieves a mapping by either of the backend's id schemes.
// Backends address the same conversation by a primary string id in some
// webhooks and a numeric id in others, so both columns are consulted.
func (c *ConversationsCollection) GetByPlatformID(ctx context.Context, platformConversationID string, platform models.Platform) (*models.ConversationMapping, error) {
	filter := bson.M{
		"platform": platform,
		"$or": bson.A{
			bson.M{"platformConversationId": platformConversationID},
			bson.M{"platformNumericId": platformConversationID},
		},
	}

	var mapping models.ConversationMapping
	err := c.collection.FindOne(ctx, filter).Decode(&mapping)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation mapping by platform id: %w", err)
	}
	return &mapping, nil
}

// Upsert creates or replaces the mapping keyed by (teamsConversationId, platform).
func (c *ConversationsCollection) Upsert(ctx context.Context, mapping *models.ConversationMapping) (*models.ConversationMapping, error) {
	now := time.Now().UTC()
	if mapping.ID == "" {
		mapping.ID = uuid.New().String()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now

	filter := bson.M{
		"teamsConversationId": mapping.TeamsConversationID,
		"platform":            mapping.Platform,
	}
	update := bson.M{
		"$set": bson.M{
			"teamsUserId":            mapping.TeamsUserID,
			"platformConversationId": mapping.PlatformConversationID,
			"platformNumericId":      mapping.PlatformNumericID,
			"platformUserId":         mapping.PlatformUserID,
			"conversationReference":  mapping.ConversationReference,
			"isResolved":             mapping.IsResolved,
			"greetingSent":           mapping.GreetingSent,
			"tenantId":               mapping.TenantID,
			"updatedAt":              mapping.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":                 mapping.ID,
			"teamsConversationId": mapping.TeamsConversationID,
			"platform":            mapping.Platform,
			"createdAt":           mapping.CreatedAt,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result models.ConversationMapping
	if err := c.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to upsert conversation mapping: %w", err)
	}
	return &result, nil
}

// MarkResolved updates the resolved flag for the mapping addressed by the
// backend conversation id.
func (c *ConversationsCollection) MarkResolved(ctx context.Context, platformConversationID string, platform models.Platform, resolved bool) error {
	filter := bson.M{
		"platform": platform,
		"$or": bson.A{
			bson.M{"platformConversationId": platformConversationID},
			bson.M{"platformNumericId": platformConversationID},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"isResolved": resolved,
			"updatedAt":  time.Now().UTC(),
		},
	}

	if _, err := c.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark conversation resolved: %w", err)
	}
	return nil
}

// UpdateConversationReference refreshes the stored Bot Framework conversation
// reference for a mapping.
func (c *ConversationsCollection) UpdateConversationReference(ctx context.Context, teamsConversationID string, platform models.Platform, ref map[string]interface{}) error {
	filter := bson.M{
		"teamsConversationId": teamsConversationID,
		"platform":            platform,
	}
	update := bson.M{
		"$set": bson.M{
			"conversationReference": ref,
			"updatedAt":             time.Now().UTC(),
		},
	}

	if _, err := c.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to update conversation reference: %w", err)
	}
	return nil
}
