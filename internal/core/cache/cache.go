// Package cache defines the cache surface behind the tenant configuration
// cache. Values are opaque bytes; the tenant service stores sealed
// ciphertext, never plaintext credentials.
package cache

import (
	"context"
	"time"
)

// Client is the cache surface. Implementations exist for Redis (shared
// across instances) and a process-local map (single instance, tests).
type Client interface {
	// Get retrieves a value by key. Returns nil, nil on a miss so callers
	// can rebuild without distinguishing absent from expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero ttl uses the implementation's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Returns true if the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	// DeletePattern removes all keys matching the glob pattern and
	// returns how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	// Ping checks if the cache connection is alive.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}
