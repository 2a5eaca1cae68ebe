// Package memory provides an in-process cache implementation.
package memory

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/cache"
)

// entry is a cached value with its expiry deadline.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// Client implements cache.Client backed by a process-local map. Entries are
// checked for staleness on read; a stale or absent entry is simply a miss,
// leaving the caller to rebuild synchronously.
type Client struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// Config holds memory cache configuration.
type Config struct {
	DefaultTTL time.Duration
}

// NewClient creates a new in-process cache client.
func NewClient(cfg Config) *Client {
	ttl := cfg.DefaultTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		entries:    make(map[string]entry),
		defaultTTL: ttl,
		now:        time.Now,
	}
}

var _ cache.Client = (*Client)(nil)

// Get retrieves a value by key. Returns nil for a missing or expired entry.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return nil, nil
	}
	return e.value, nil
}

// Set stores a value with a TTL. A zero ttl uses the default.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes a key. Returns true if the key existed.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()
	return ok, nil
}

// DeletePattern removes all keys matching the glob pattern.
func (c *Client) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	c.mu.Lock()
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
			deleted++
		}
	}
	c.mu.Unlock()
	return deleted, nil
}

// Ping always succeeds for the in-process cache.
func (c *Client) Ping(ctx context.Context) error {
	return nil
}

// Close releases the cached entries.
func (c *Client) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}
