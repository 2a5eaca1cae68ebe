package freshchat

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/metrics"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
)

func generateKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	pemText := string(pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}))
	return priv, pemText
}

func sign(t *testing.T, priv *rsa.PrivateKey, body []byte) string {
	t.Helper()

	digest := sha256.Sum256(body)
	signature, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(signature)
}

func bareBase64Body(t *testing.T, pemText string) string {
	t.Helper()

	block, _ := pem.Decode([]byte(pemText))
	require.NotNil(t, block)
	return base64.StdEncoding.EncodeToString(block.Bytes)
}

func newVerifier(publicKey string) *WebhookVerifier {
	return NewWebhookVerifier(publicKey, helpdesk.NewDeduper(0, 0))
}

func TestVerifySignature_ValidSignature(t *testing.T) {
	// Arrange
	priv, pemText := generateKeyPair(t)
	verifier := newVerifier(pemText)
	body := []byte(`{"action":"message_create"}`)

	// Act
	err := verifier.VerifySignature(body, sign(t, priv, body))

	// Assert
	require.NoError(t, err)
}

func TestVerifySignature_URLSafeBase64(t *testing.T) {
	// Arrange
	priv, pemText := generateKeyPair(t)
	verifier := newVerifier(pemText)
	body := []byte(`{"action":"message_create"}`)

	digest := sha256.Sum256(body)
	signature, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)

	// Act
	err = verifier.VerifySignature(body, base64.RawURLEncoding.EncodeToString(signature))

	// Assert
	require.NoError(t, err)
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	// Arrange
	priv, pemText := generateKeyPair(t)
	verifier := newVerifier(pemText)
	signature := sign(t, priv, []byte(`{"action":"message_create"}`))

	// Act
	err := verifier.VerifySignature([]byte(`{"action":"tampered"}`), signature)

	// Assert
	assert.Error(t, err)
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	// Arrange
	_, pemText := generateKeyPair(t)
	verifier := newVerifier(pemText)

	// Act
	err := verifier.VerifySignature([]byte("{}"), "")

	// Assert
	assert.Error(t, err)
}

func TestVerifySignature_NoKeyConfigured(t *testing.T) {
	// Arrange
	priv, _ := generateKeyPair(t)
	verifier := newVerifier("")
	body := []byte("{}")

	// Act
	err := verifier.VerifySignature(body, sign(t, priv, body))

	// Assert
	assert.Error(t, err)
}

func TestVerifySignature_EscapedNewlineKey(t *testing.T) {
	// Arrange: the PEM as it looks after a trip through an env var
	priv, pemText := generateKeyPair(t)
	escaped := strings.ReplaceAll(pemText, "\n", `\n`)
	verifier := newVerifier(escaped)
	body := []byte(`{"action":"message_create"}`)

	// Act
	err := verifier.VerifySignature(body, sign(t, priv, body))

	// Assert
	require.NoError(t, err)
}

func TestVerifySignature_BareBase64Key(t *testing.T) {
	// Arrange: key body with the PEM framing stripped entirely
	priv, pemText := generateKeyPair(t)
	verifier := newVerifier(bareBase64Body(t, pemText))
	body := []byte(`{"action":"message_create"}`)

	// Act
	err := verifier.VerifySignature(body, sign(t, priv, body))

	// Assert
	require.NoError(t, err)
}

func TestNormalizePublicKey_WrapsBareKeyAt64Columns(t *testing.T) {
	// Arrange
	_, pemText := generateKeyPair(t)
	bare := bareBase64Body(t, pemText)

	// Act
	normalized := NormalizePublicKey(bare)

	// Assert
	assert.Equal(t, NormalizePublicKey(pemText), normalized)
}

func TestParse_MessageCreate(t *testing.T) {
	// Arrange
	verifier := newVerifier("")
	raw := []byte(`{
		"action": "message_create",
		"data": {
			"conversation": {"conversation_id": "conv-1", "id": 42},
			"message": {
				"id": "msg-1",
				"actor_type": "agent",
				"actor_id": "agent-9",
				"message_parts": [
					{"text": {"content": "Hello"}},
					{"text": {"content": "World"}},
					{"image": {"url": "https://cdn.example.com/pic.png", "name": "pic.png"}}
				]
			}
		}
	}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.EventMessage, event.Kind)
	assert.Equal(t, "conv-1", event.ConversationID)
	assert.Equal(t, "42", event.NumericID)
	require.NotNil(t, event.Message)
	assert.Equal(t, "Hello\nWorld", event.Message.Text)
	assert.Equal(t, models.ActorAgent, event.Message.ActorKind)
	assert.Equal(t, "agent-9", event.Message.ActorID)
	require.Len(t, event.Message.Attachments, 1)
	assert.Equal(t, models.AttachmentImage, event.Message.Attachments[0].Kind)
	assert.Equal(t, "https://cdn.example.com/pic.png", event.Message.Attachments[0].URL)
}

func TestParse_DuplicateMessageIgnored(t *testing.T) {
	// Arrange
	verifier := newVerifier("")
	raw := []byte(`{
		"action": "message_create",
		"data": {
			"conversation": {"conversation_id": "conv-1"},
			"message": {"id": "msg-dup", "actor_type": "agent", "message_parts": [{"text": {"content": "hi"}}]}
		}
	}`)

	drops := testutil.ToFloat64(metrics.DedupDropsTotal.WithLabelValues(string(models.PlatformFreshchat)))

	// Act
	first, err := verifier.Parse(raw)
	require.NoError(t, err)
	second, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, first)
	assert.Nil(t, second)
	assert.Equal(t, drops+1, testutil.ToFloat64(metrics.DedupDropsTotal.WithLabelValues(string(models.PlatformFreshchat))))
}

func TestParse_UserEchoIgnored(t *testing.T) {
	// Arrange
	verifier := newVerifier("")
	raw := []byte(`{
		"action": "message_create",
		"data": {
			"conversation": {"conversation_id": "conv-1"},
			"message": {"id": "msg-2", "actor_type": "user", "message_parts": [{"text": {"content": "hi"}}]}
		}
	}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParse_ConversationIDFallsBackToMessage(t *testing.T) {
	// Arrange
	verifier := newVerifier("")
	raw := []byte(`{
		"action": "message_create",
		"data": {
			"message": {"id": "msg-3", "conversation_id": "conv-from-msg", "actor_type": "agent", "message_parts": [{"text": {"content": "hi"}}]}
		}
	}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "conv-from-msg", event.ConversationID)
}

func TestParse_Resolution(t *testing.T) {
	// Arrange
	verifier := newVerifier("")
	raw := []byte(`{
		"action": "conversation_resolution",
		"data": {"conversation": {"conversation_id": "conv-1", "id": 42}}
	}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.EventResolution, event.Kind)
	assert.Equal(t, "conv-1", event.ConversationID)
	assert.Equal(t, "42", event.NumericID)
}

func TestParse_ResolutionWithoutIDsIgnored(t *testing.T) {
	// Arrange
	verifier := newVerifier("")
	raw := []byte(`{"action": "conversation_resolution", "data": {}}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParse_UnknownActionIgnored(t *testing.T) {
	// Arrange
	verifier := newVerifier("")

	// Act
	event, err := verifier.Parse([]byte(`{"action": "conversation_assignment", "data": {}}`))

	// Assert
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParse_MalformedJSON(t *testing.T) {
	// Arrange
	verifier := newVerifier("")

	// Act
	event, err := verifier.Parse([]byte("not json"))

	// Assert
	assert.Error(t, err)
	assert.Nil(t, event)
}
