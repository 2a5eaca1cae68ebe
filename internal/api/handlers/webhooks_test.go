package handlers_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/handlers"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/router"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/teams"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/tenant"
)

// singleTenantService serves one tenant configuration.
type singleTenantService struct {
	cfg *models.TenantConfig
}

func (s *singleTenantService) Get(_ context.Context, tenantKey string) (*models.TenantConfig, error) {
	if s.cfg == nil || s.cfg.TenantKey != tenantKey {
		return nil, errors.NewTenantNotFoundError(tenantKey)
	}
	return s.cfg, nil
}

func (s *singleTenantService) Upsert(_ context.Context, cfg *models.TenantConfig) (*models.TenantConfig, error) {
	return cfg, nil
}

func (s *singleTenantService) Delete(context.Context, string) error { return nil }

var _ tenant.Service = (*singleTenantService)(nil)

// scriptedVerifier returns canned results from the integrity layer.
type scriptedVerifier struct {
	signatureErr error
	event        *models.WebhookEvent
	parseErr     error
}

func (v *scriptedVerifier) VerifySignature([]byte, string) error { return v.signatureErr }

func (v *scriptedVerifier) Parse([]byte) (*models.WebhookEvent, error) {
	return v.event, v.parseErr
}

// noopClient satisfies the backend client surface; webhook routing never
// creates conversations, so only GetAgentName can be reached.
type noopClient struct{}

func (noopClient) GetOrCreateUser(context.Context, *models.ChatUser) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (noopClient) CreateConversation(context.Context, string, *models.ChatUser, string, []helpdesk.OutboundAttachment) (*helpdesk.ConversationHandle, error) {
	return nil, fmt.Errorf("not implemented")
}

func (noopClient) SendMessage(context.Context, string, string, string, []helpdesk.OutboundAttachment) error {
	return fmt.Errorf("not implemented")
}

func (noopClient) UploadFile(context.Context, string, string, []byte) (*helpdesk.UploadedFile, error) {
	return nil, fmt.Errorf("not implemented")
}

func (noopClient) GetAgentName(context.Context, string) string { return "Agent" }

// emptyConversationStore never has a mapping.
type emptyConversationStore struct{}

func (emptyConversationStore) GetByChatID(context.Context, string, models.Platform) (*models.ConversationMapping, error) {
	return nil, nil
}

func (emptyConversationStore) GetByPlatformID(context.Context, string, models.Platform) (*models.ConversationMapping, error) {
	return nil, nil
}

func (emptyConversationStore) Upsert(_ context.Context, m *models.ConversationMapping) (*models.ConversationMapping, error) {
	return m, nil
}

func (emptyConversationStore) MarkResolved(context.Context, string, models.Platform, bool) error {
	return nil
}

func (emptyConversationStore) UpdateConversationReference(context.Context, string, models.Platform, map[string]interface{}) error {
	return nil
}

type noopSender struct{}

func (noopSender) SendText(context.Context, map[string]interface{}, string, string) error {
	return nil
}

func (noopSender) SendCard(context.Context, map[string]interface{}, teams.Card, string) error {
	return nil
}

func (noopSender) DownloadAttachment(context.Context, string, string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("not implemented")
}

func newWebhookTestServer(t *testing.T, verifier *scriptedVerifier, reject bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &models.TenantConfig{
		ID:        "tenant-row-1",
		TenantKey: "acme",
		Platform:  models.PlatformFreshchat,
		Credentials: models.PlatformCredentials{
			Freshchat: &models.FreshchatCredentials{APIKey: "key"},
		},
	}
	tenants := &singleTenantService{cfg: cfg}

	factory, err := helpdesk.NewFactory(&helpdesk.FactoryConfig{
		Builders: map[models.Platform]helpdesk.Builder{
			models.PlatformFreshchat: func(*models.TenantConfig, *helpdesk.Deduper) (helpdesk.Client, helpdesk.Verifier, error) {
				return noopClient{}, verifier, nil
			},
		},
	})
	require.NoError(t, err)

	r, err := router.New(&router.Config{
		Tenants:       tenants,
		Factory:       factory,
		Conversations: emptyConversationStore{},
		Sender:        noopSender{},
	})
	require.NoError(t, err)

	handler := handlers.NewWebhooksHandler(&handlers.WebhooksHandlerConfig{
		Tenants:                tenants,
		Factory:                factory,
		Router:                 r,
		RejectInvalidSignature: reject,
	})

	engine := gin.New()
	engine.POST("/api/webhook/:platform/:tenantKey", handler.Post)
	return engine
}

func postWebhook(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhooks_UnknownPlatform(t *testing.T) {
	// Arrange
	engine := newWebhookTestServer(t, &scriptedVerifier{}, true)

	// Act
	rec := postWebhook(engine, "/api/webhook/intercom/acme", `{}`)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown platform")
}

func TestWebhooks_UnknownTenant(t *testing.T) {
	// Arrange
	engine := newWebhookTestServer(t, &scriptedVerifier{}, true)

	// Act
	rec := postWebhook(engine, "/api/webhook/freshchat/nobody", `{}`)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "TENANT_NOT_FOUND")
}

func TestWebhooks_PlatformMismatch(t *testing.T) {
	// Arrange: the tenant is configured for freshchat
	engine := newWebhookTestServer(t, &scriptedVerifier{}, true)

	// Act
	rec := postWebhook(engine, "/api/webhook/zendesk/acme", `{}`)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured for this platform")
}

func TestWebhooks_InvalidSignatureRejected(t *testing.T) {
	// Arrange
	verifier := &scriptedVerifier{signatureErr: errors.NewInvalidSignatureError("mismatch")}
	engine := newWebhookTestServer(t, verifier, true)

	// Act
	rec := postWebhook(engine, "/api/webhook/freshchat/acme", `{}`)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_SIGNATURE")
}

func TestWebhooks_InvalidSignatureProcessedWhenRejectionDisabled(t *testing.T) {
	// Arrange
	verifier := &scriptedVerifier{
		signatureErr: errors.NewInvalidSignatureError("mismatch"),
		event: &models.WebhookEvent{
			Kind:           models.EventResolution,
			ConversationID: "conv-1",
		},
	}
	engine := newWebhookTestServer(t, verifier, false)

	// Act
	rec := postWebhook(engine, "/api/webhook/freshchat/acme", `{}`)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processed")
}

func TestWebhooks_IgnoredEvent(t *testing.T) {
	// Arrange: a nil event from the verifier means duplicate or echo
	engine := newWebhookTestServer(t, &scriptedVerifier{}, true)

	// Act
	rec := postWebhook(engine, "/api/webhook/freshchat/acme", `{}`)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}

func TestWebhooks_UnparseablePayload(t *testing.T) {
	// Arrange
	verifier := &scriptedVerifier{parseErr: fmt.Errorf("bad json")}
	engine := newWebhookTestServer(t, verifier, true)

	// Act
	rec := postWebhook(engine, "/api/webhook/freshchat/acme", `not json`)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unparseable")
}

func TestWebhooks_EventProcessed(t *testing.T) {
	// Arrange
	verifier := &scriptedVerifier{
		event: &models.WebhookEvent{
			Kind:           models.EventResolution,
			ConversationID: "conv-1",
		},
	}
	engine := newWebhookTestServer(t, verifier, true)

	// Act
	rec := postWebhook(engine, "/api/webhook/freshchat/acme", `{"action":"conversation_resolution"}`)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processed")
}
