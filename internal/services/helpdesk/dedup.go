package helpdesk

import (
	"sync"
	"time"
)

const (
	// DefaultDedupTTL is how long a message id is remembered.
	DefaultDedupTTL = 10 * time.Minute

	// DefaultDedupMaxEntries is the soft cap above which expired entries
	// are swept.
	DefaultDedupMaxEntries = 2000
)

// Deduper tracks recently seen webhook message ids so redelivered events
// are dropped before reaching the router. Expired entries are swept lazily,
// and only when the map exceeds its soft cap; between sweeps the map may
// hold expired ids, which is acceptable because expired entries still
// identify genuine duplicates.
type Deduper struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewDeduper creates a deduper with the given TTL and soft cap. Zero values
// select the defaults.
func NewDeduper(ttl time.Duration, maxSize int) *Deduper {
	if ttl == 0 {
		ttl = DefaultDedupTTL
	}
	if maxSize == 0 {
		maxSize = DefaultDedupMaxEntries
	}
	return &Deduper{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Seen records the id and reports whether it was already present. An empty
// id is never a duplicate.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()

	if len(d.seen) > d.maxSize {
		for mid, ts := range d.seen {
			if now.Sub(ts) > d.ttl {
				delete(d.seen, mid)
			}
		}
	}

	if _, ok := d.seen[id]; ok {
		return true
	}

	d.seen[id] = now
	return false
}

// Len returns the number of tracked ids, expired included.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
