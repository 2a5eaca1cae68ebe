// Package cache provides the cache type constants.
package cache

// Type represents the type of cache.
type Type string

const (
	// TypeRedis represents a Redis cache (shared across instances).
	TypeRedis Type = "redis"
	// TypeMemory represents an in-process cache (single instance).
	TypeMemory Type = "memory"
)
