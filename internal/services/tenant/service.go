// Package tenant provides tenant configuration management with caching.
package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/cache"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/store"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/encryption"
)

const (
	// DefaultTenantTTL is the default TTL for the tenant cache (5 minutes).
	DefaultTenantTTL = 5 * time.Minute

	cacheKeyPrefix = "tenant:config:"
)

// Service provides tenant configuration lookup and administration.
type Service interface {
	// Get returns the tenant configuration with decrypted credentials.
	// Returns a tenant-not-found error for unknown keys and a
	// credential-corruption error when stored secrets cannot be decrypted.
	Get(ctx context.Context, tenantKey string) (*models.TenantConfig, error)

	// Upsert validates, encrypts, and stores a tenant configuration.
	// The cache entry for the tenant is always invalidated.
	Upsert(ctx context.Context, cfg *models.TenantConfig) (*models.TenantConfig, error)

	// Delete removes a tenant. Returns a tenant-not-found error when no
	// row existed.
	Delete(ctx context.Context, tenantKey string) error
}

// service implements the Service interface.
type service struct {
	tenants      store.TenantStore
	cacheClient  cache.Client
	encryptor    encryption.Encryptor
	ttl          time.Duration
	onInvalidate func(tenantKey string)
}

// Config holds the configuration for the tenant service.
type Config struct {
	Tenants     store.TenantStore
	CacheClient cache.Client
	Encryptor   encryption.Encryptor
	TTL         time.Duration

	// OnInvalidate is called after any mutation so dependent caches
	// (backend clients, webhook verifiers) can drop their entries too.
	OnInvalidate func(tenantKey string)
}

// NewService creates a new tenant service.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Tenants == nil {
		return nil, fmt.Errorf("tenant store is required")
	}
	if cfg.CacheClient == nil {
		return nil, fmt.Errorf("cache client is required")
	}
	if cfg.Encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTenantTTL
	}

	return &service{
		tenants:      cfg.Tenants,
		cacheClient:  cfg.CacheClient,
		encryptor:    cfg.Encryptor,
		ttl:          ttl,
		onInvalidate: cfg.OnInvalidate,
	}, nil
}

// Get returns the tenant configuration with decrypted credentials.
func (s *service) Get(ctx context.Context, tenantKey string) (*models.TenantConfig, error) {
	if cached := s.getCached(ctx, tenantKey); cached != nil {
		return s.withDecryptedSecrets(cached)
	}

	cfg, err := s.tenants.GetByTenantKey(ctx, tenantKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant %s: %w", tenantKey, err)
	}
	if cfg == nil {
		return nil, errors.NewTenantNotFoundError(tenantKey)
	}

	s.setCached(ctx, cfg)

	return s.withDecryptedSecrets(cfg)
}

// Upsert validates, encrypts, and stores a tenant configuration.
func (s *service) Upsert(ctx context.Context, cfg *models.TenantConfig) (*models.TenantConfig, error) {
	// The cache entry goes regardless of whether the write below succeeds,
	// so a partial failure can never leave stale credentials being served.
	defer s.invalidate(ctx, cfg.TenantKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Credentials.EncryptSecrets(s.encryptor); err != nil {
		return nil, fmt.Errorf("failed to encrypt tenant credentials: %w", err)
	}

	stored, err := s.tenants.Upsert(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to store tenant %s: %w", cfg.TenantKey, err)
	}

	log.Info().
		Str("tenantKey", stored.TenantKey).
		Str("platform", string(stored.Platform)).
		Msg("Tenant configuration stored")

	return stored, nil
}

// Delete removes a tenant.
func (s *service) Delete(ctx context.Context, tenantKey string) error {
	defer s.invalidate(ctx, tenantKey)

	removed, err := s.tenants.Delete(ctx, tenantKey)
	if err != nil {
		return fmt.Errorf("failed to delete tenant %s: %w", tenantKey, err)
	}
	if !removed {
		return errors.NewTenantNotFoundError(tenantKey)
	}

	log.Info().Str("tenantKey", tenantKey).Msg("Tenant configuration deleted")
	return nil
}

// withDecryptedSecrets returns a copy of cfg with credential secrets
// decrypted. The stored row keeps its ciphertext so re-caching stays safe.
func (s *service) withDecryptedSecrets(cfg *models.TenantConfig) (*models.TenantConfig, error) {
	decrypted := *cfg
	creds := cfg.Credentials.Clone()
	if err := creds.DecryptSecrets(s.encryptor); err != nil {
		log.Error().
			Err(err).
			Str("tenantKey", cfg.TenantKey).
			Msg("Tenant credentials cannot be decrypted; encryption key may have been rotated")
		return nil, errors.NewCredentialCorruptionError(cfg.TenantKey, err)
	}
	decrypted.Credentials = creds
	return &decrypted, nil
}

// getCached returns the cached row (with credentials still encrypted), or
// nil on a miss. A cache entry that cannot be decrypted or unmarshalled is
// dropped and treated as a miss.
func (s *service) getCached(ctx context.Context, tenantKey string) *models.TenantConfig {
	key := cacheKeyPrefix + tenantKey

	encrypted, err := s.cacheClient.Get(ctx, key)
	if err != nil || encrypted == nil {
		return nil
	}

	decrypted, err := s.encryptor.Decrypt(string(encrypted))
	if err != nil {
		_, _ = s.cacheClient.Delete(ctx, key)
		return nil
	}

	var cfg models.TenantConfig
	if err := json.Unmarshal(decrypted, &cfg); err != nil {
		_, _ = s.cacheClient.Delete(ctx, key)
		return nil
	}
	return &cfg
}

// setCached stores the row (credentials encrypted at rest) in the cache.
// Cache failures are logged and ignored; the store remains authoritative.
func (s *service) setCached(ctx context.Context, cfg *models.TenantConfig) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	sealed, err := s.encryptor.Encrypt(data)
	if err != nil {
		log.Warn().Err(err).Str("tenantKey", cfg.TenantKey).Msg("Failed to seal tenant cache entry")
		return
	}
	if err := s.cacheClient.Set(ctx, cacheKeyPrefix+cfg.TenantKey, []byte(sealed), s.ttl); err != nil {
		log.Warn().Err(err).Str("tenantKey", cfg.TenantKey).Msg("Failed to cache tenant configuration")
	}
}

func (s *service) invalidate(ctx context.Context, tenantKey string) {
	if _, err := s.cacheClient.Delete(ctx, cacheKeyPrefix+tenantKey); err != nil {
		log.Warn().Err(err).Str("tenantKey", tenantKey).Msg("Failed to invalidate tenant cache entry")
	}
	if s.onInvalidate != nil {
		s.onInvalidate(tenantKey)
	}
}
