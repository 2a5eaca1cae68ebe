package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/infrastructure/cache/memory"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/encryption"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/tenant"
)

// fakeTenantStore is an in-memory store.TenantStore recording call counts.
type fakeTenantStore struct {
	rows map[string]*models.TenantConfig
	gets int
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{rows: make(map[string]*models.TenantConfig)}
}

func (s *fakeTenantStore) GetByTenantKey(ctx context.Context, tenantKey string) (*models.TenantConfig, error) {
	s.gets++
	row, ok := s.rows[tenantKey]
	if !ok {
		return nil, nil
	}
	copied := *row
	copied.Credentials = row.Credentials.Clone()
	return &copied, nil
}

func (s *fakeTenantStore) Upsert(ctx context.Context, cfg *models.TenantConfig) (*models.TenantConfig, error) {
	copied := *cfg
	copied.Credentials = cfg.Credentials.Clone()
	if copied.ID == "" {
		copied.ID = "id-" + cfg.TenantKey
	}
	copied.UpdatedAt = time.Now()
	s.rows[cfg.TenantKey] = &copied
	return &copied, nil
}

func (s *fakeTenantStore) Delete(ctx context.Context, tenantKey string) (bool, error) {
	_, ok := s.rows[tenantKey]
	delete(s.rows, tenantKey)
	return ok, nil
}

func newService(t *testing.T, store *fakeTenantStore, enc encryption.Encryptor, onInvalidate func(string)) tenant.Service {
	t.Helper()
	svc, err := tenant.NewService(&tenant.Config{
		Tenants:      store,
		CacheClient:  memory.NewClient(memory.Config{DefaultTTL: time.Minute}),
		Encryptor:    enc,
		TTL:          time.Minute,
		OnInvalidate: onInvalidate,
	})
	require.NoError(t, err)
	return svc
}

func freshchatTenant(key string) *models.TenantConfig {
	return &models.TenantConfig{
		TenantKey: key,
		Platform:  models.PlatformFreshchat,
		Credentials: models.PlatformCredentials{
			Freshchat: &models.FreshchatCredentials{
				APIKey: "fc-secret",
				APIURL: "https://api.freshchat.com/v2",
			},
		},
		BotName:        "Support Bot",
		WelcomeMessage: "Hello!",
	}
}

func TestService_UpsertThenGet_RoundTripsSecrets(t *testing.T) {
	// Arrange
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	store := newFakeTenantStore()
	svc := newService(t, store, enc, nil)
	ctx := context.Background()

	// Act
	_, err = svc.Upsert(ctx, freshchatTenant("acme"))
	require.NoError(t, err)
	got, err := svc.Get(ctx, "acme")

	// Assert: the caller sees plaintext, the store holds ciphertext
	require.NoError(t, err)
	assert.Equal(t, "fc-secret", got.Credentials.Freshchat.APIKey)
	assert.NotEqual(t, "fc-secret", store.rows["acme"].Credentials.Freshchat.APIKey)
}

func TestService_GetUsesCacheOnSecondRead(t *testing.T) {
	// Arrange
	store := newFakeTenantStore()
	svc := newService(t, store, encryption.NewNoOpEncryptor(), nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, freshchatTenant("acme"))
	require.NoError(t, err)

	// Act
	_, err = svc.Get(ctx, "acme")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "acme")
	require.NoError(t, err)

	// Assert: only the first read hit the store
	assert.Equal(t, 1, store.gets)
}

func TestService_GetUnknownTenant(t *testing.T) {
	// Arrange
	svc := newService(t, newFakeTenantStore(), encryption.NewNoOpEncryptor(), nil)

	// Act
	got, err := svc.Get(context.Background(), "missing")

	// Assert
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestService_GetDoesNotMutateStoredCiphertext(t *testing.T) {
	// Arrange
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	store := newFakeTenantStore()
	svc := newService(t, store, enc, nil)
	ctx := context.Background()

	_, err = svc.Upsert(ctx, freshchatTenant("acme"))
	require.NoError(t, err)
	before := store.rows["acme"].Credentials.Freshchat.APIKey

	// Act: repeated reads, cached and uncached
	_, err = svc.Get(ctx, "acme")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "acme")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, before, store.rows["acme"].Credentials.Freshchat.APIKey)
}

func TestService_RotatedKeyYieldsCorruptionError(t *testing.T) {
	// Arrange: store a row under one key, read it back under another
	keyA, err := encryption.GenerateKey()
	require.NoError(t, err)
	encA, err := encryption.NewAESEncryptor(keyA)
	require.NoError(t, err)

	store := newFakeTenantStore()
	svcA := newService(t, store, encA, nil)
	_, err = svcA.Upsert(context.Background(), freshchatTenant("acme"))
	require.NoError(t, err)

	keyB, err := encryption.GenerateKey()
	require.NoError(t, err)
	encB, err := encryption.NewAESEncryptor(keyB)
	require.NoError(t, err)
	svcB := newService(t, store, encB, nil)

	// Act
	got, err := svcB.Get(context.Background(), "acme")

	// Assert
	assert.Nil(t, got)
	require.Error(t, err)
	domainErr, ok := domainerrors.GetDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "CREDENTIAL_CORRUPTION", domainErr.Code)
}

func TestService_UpsertRejectsInvalidConfig(t *testing.T) {
	// Arrange
	svc := newService(t, newFakeTenantStore(), encryption.NewNoOpEncryptor(), nil)
	cfg := freshchatTenant("acme")
	cfg.Platform = models.PlatformZendesk // bundle does not match

	// Act
	stored, err := svc.Upsert(context.Background(), cfg)

	// Assert
	assert.Nil(t, stored)
	assert.Error(t, err)
}

func TestService_UpsertInvalidatesDependentCaches(t *testing.T) {
	// Arrange
	var invalidated []string
	svc := newService(t, newFakeTenantStore(), encryption.NewNoOpEncryptor(), func(key string) {
		invalidated = append(invalidated, key)
	})
	ctx := context.Background()

	// Act
	_, err := svc.Upsert(ctx, freshchatTenant("acme"))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, []string{"acme"}, invalidated)
}

func TestService_UpsertInvalidatesEvenOnFailure(t *testing.T) {
	// Arrange
	var invalidated []string
	svc := newService(t, newFakeTenantStore(), encryption.NewNoOpEncryptor(), func(key string) {
		invalidated = append(invalidated, key)
	})
	cfg := freshchatTenant("acme")
	cfg.Credentials = models.PlatformCredentials{} // fails validation

	// Act
	_, err := svc.Upsert(context.Background(), cfg)

	// Assert
	assert.Error(t, err)
	assert.Equal(t, []string{"acme"}, invalidated)
}

func TestService_DeleteUnknownTenant(t *testing.T) {
	// Arrange
	svc := newService(t, newFakeTenantStore(), encryption.NewNoOpEncryptor(), nil)

	// Act
	err := svc.Delete(context.Background(), "missing")

	// Assert
	require.Error(t, err)
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestService_DeleteDropsCachedEntry(t *testing.T) {
	// Arrange
	store := newFakeTenantStore()
	svc := newService(t, store, encryption.NewNoOpEncryptor(), nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, freshchatTenant("acme"))
	require.NoError(t, err)
	_, err = svc.Get(ctx, "acme")
	require.NoError(t, err)

	// Act
	require.NoError(t, svc.Delete(ctx, "acme"))
	_, err = svc.Get(ctx, "acme")

	// Assert: the cached row is gone along with the stored one
	require.Error(t, err)
	assert.True(t, domainerrors.IsNotFound(err))
}
