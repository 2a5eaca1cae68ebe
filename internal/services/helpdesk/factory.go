package helpdesk

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
)

// DefaultEntryTTL is how long a built client/verifier pair is reused.
const DefaultEntryTTL = 10 * time.Minute

// Builder constructs the client and verifier for one tenant's credentials.
// Both are built from the same credential snapshot so a caller can never
// observe a client from one snapshot paired with a verifier from another.
type Builder func(tenant *models.TenantConfig, deduper *Deduper) (Client, Verifier, error)

// cachedEntry holds a value together with the instant it was built.
type cachedEntry[T any] struct {
	value   T
	builtAt time.Time
}

func (e cachedEntry[T]) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.builtAt) > ttl
}

// Factory builds and caches per-tenant backend clients and webhook
// verifiers. Entries are keyed by tenant key and rebuilt synchronously when
// stale; concurrent rebuilds of the same tenant are allowed and harmless.
type Factory struct {
	mu       sync.RWMutex
	entries  map[string]cachedEntry[*builtPair]
	builders map[models.Platform]Builder
	deduper  *Deduper
	ttl      time.Duration
	now      func() time.Time
}

type builtPair struct {
	client   Client
	verifier Verifier
}

// FactoryConfig holds the configuration for the factory.
type FactoryConfig struct {
	Builders map[models.Platform]Builder
	Deduper  *Deduper
	TTL      time.Duration
}

// NewFactory creates a new platform client factory.
func NewFactory(cfg *FactoryConfig) (*Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(cfg.Builders) == 0 {
		return nil, fmt.Errorf("at least one platform builder is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultEntryTTL
	}
	deduper := cfg.Deduper
	if deduper == nil {
		deduper = NewDeduper(0, 0)
	}

	return &Factory{
		entries:  make(map[string]cachedEntry[*builtPair]),
		builders: cfg.Builders,
		deduper:  deduper,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// GetClient returns the backend client for the tenant.
func (f *Factory) GetClient(tenant *models.TenantConfig) (Client, error) {
	pair, err := f.getPair(tenant)
	if err != nil {
		return nil, err
	}
	return pair.client, nil
}

// GetVerifier returns the webhook verifier for the tenant.
func (f *Factory) GetVerifier(tenant *models.TenantConfig) (Verifier, error) {
	pair, err := f.getPair(tenant)
	if err != nil {
		return nil, err
	}
	return pair.verifier, nil
}

// Invalidate drops the cached entry for a tenant key.
func (f *Factory) Invalidate(tenantKey string) {
	f.mu.Lock()
	delete(f.entries, tenantKey)
	f.mu.Unlock()
}

// ClearAll drops every cached entry.
func (f *Factory) ClearAll() {
	f.mu.Lock()
	f.entries = make(map[string]cachedEntry[*builtPair])
	f.mu.Unlock()
}

func (f *Factory) getPair(tenant *models.TenantConfig) (*builtPair, error) {
	f.mu.RLock()
	entry, ok := f.entries[tenant.TenantKey]
	f.mu.RUnlock()

	if ok && !entry.expired(f.now(), f.ttl) {
		return entry.value, nil
	}

	builder, ok := f.builders[tenant.Platform]
	if !ok {
		return nil, errors.NewValidationError(
			fmt.Sprintf("unsupported platform: %s", tenant.Platform), "")
	}

	client, verifier, err := builder(tenant, f.deduper)
	if err != nil {
		return nil, err
	}

	pair := &builtPair{client: client, verifier: verifier}
	f.mu.Lock()
	f.entries[tenant.TenantKey] = cachedEntry[*builtPair]{value: pair, builtAt: f.now()}
	f.mu.Unlock()

	log.Debug().
		Str("tenantKey", tenant.TenantKey).
		Str("platform", string(tenant.Platform)).
		Msg("Built backend client and verifier")

	return pair, nil
}
