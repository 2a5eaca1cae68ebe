package freshchat

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/metrics"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
)

// WebhookVerifier verifies and parses Freshchat webhooks. Signatures are
// RSA-SHA256 with PKCS#1 v1.5 padding over the raw request body.
type WebhookVerifier struct {
	publicKeyPEM string
	deduper      *helpdesk.Deduper

	keyOnce sync.Once
	key     *rsa.PublicKey
	keyErr  error
}

// NewWebhookVerifier creates a verifier for one tenant's configured public
// key. The key material is normalized up front and parsed lazily.
func NewWebhookVerifier(publicKey string, deduper *helpdesk.Deduper) *WebhookVerifier {
	return &WebhookVerifier{
		publicKeyPEM: NormalizePublicKey(publicKey),
		deduper:      deduper,
	}
}

// NormalizePublicKey repairs the PEM damage key material picks up in
// transit through env vars and dashboards: escaped newlines, stripped
// framing, and bodies collapsed onto one line.
func NormalizePublicKey(key string) string {
	if key == "" {
		return ""
	}

	key = strings.ReplaceAll(key, `\n`, "\n")
	key = strings.ReplaceAll(key, `\r`, "")
	key = strings.ReplaceAll(key, "\r", "")

	if !strings.Contains(key, "-----BEGIN") {
		compact := strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(key)
		key = "-----BEGIN PUBLIC KEY-----\n" + compact + "\n-----END PUBLIC KEY-----"
	}

	var cleaned []string
	for _, line := range strings.Split(strings.TrimSpace(key), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}

	// Rewrap body lines at 64 columns so the PEM decoder accepts keys that
	// arrived as one long base64 line.
	var result []string
	inBody := false
	for _, line := range cleaned {
		switch {
		case strings.HasPrefix(line, "-----BEGIN"):
			result = append(result, line)
			inBody = true
		case strings.HasPrefix(line, "-----END"):
			inBody = false
			result = append(result, line)
		case inBody:
			for len(line) > 64 {
				result = append(result, line[:64])
				line = line[64:]
			}
			if line != "" {
				result = append(result, line)
			}
		}
	}
	return strings.Join(result, "\n")
}

// loadKey parses the normalized PEM, accepting SPKI framing, legacy PKCS#1
// framing, and bare DER in turn.
func (v *WebhookVerifier) loadKey() (*rsa.PublicKey, error) {
	v.keyOnce.Do(func() {
		v.key, v.keyErr = parsePublicKey(v.publicKeyPEM)
	})
	return v.key, v.keyErr
}

func parsePublicKey(pemText string) (*rsa.PublicKey, error) {
	if pemText == "" {
		return nil, fmt.Errorf("public key not configured")
	}

	if block, _ := pem.Decode([]byte(pemText)); block != nil {
		if key, err := parseDER(block.Bytes); err == nil {
			return key, nil
		}
	}

	// PKCS#1 framing with an SPKI body (or vice versa) decodes to the same
	// DER bytes, so retry with swapped headers.
	swapped := strings.ReplaceAll(pemText, "BEGIN PUBLIC KEY", "BEGIN RSA PUBLIC KEY")
	swapped = strings.ReplaceAll(swapped, "END PUBLIC KEY", "END RSA PUBLIC KEY")
	if block, _ := pem.Decode([]byte(swapped)); block != nil {
		if key, err := parseDER(block.Bytes); err == nil {
			return key, nil
		}
	}

	// Last resort: treat the body as raw base64 DER.
	var body []string
	for _, line := range strings.Split(pemText, "\n") {
		if !strings.HasPrefix(line, "-----") {
			body = append(body, line)
		}
	}
	der, err := base64.StdEncoding.DecodeString(strings.Join(body, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid public key format: %w", err)
	}
	key, err := parseDER(der)
	if err != nil {
		return nil, fmt.Errorf("invalid public key format: %w", err)
	}
	return key, nil
}

func parseDER(der []byte) (*rsa.PublicKey, error) {
	if parsed, err := x509.ParsePKIXPublicKey(der); err == nil {
		if key, ok := parsed.(*rsa.PublicKey); ok {
			return key, nil
		}
		return nil, fmt.Errorf("public key is not RSA")
	}
	return x509.ParsePKCS1PublicKey(der)
}

// VerifySignature checks the raw body against the x-freshchat-signature
// header value.
func (v *WebhookVerifier) VerifySignature(raw []byte, signatureHeader string) error {
	if signatureHeader == "" {
		return errors.NewInvalidSignatureError("missing signature header")
	}

	key, err := v.loadKey()
	if err != nil {
		return errors.NewInvalidSignatureError(err.Error())
	}

	signature, err := decodeSignature(signatureHeader)
	if err != nil {
		return errors.NewInvalidSignatureError("signature is not valid base64")
	}

	digest := sha256.Sum256(raw)
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], signature); err != nil {
		return errors.NewInvalidSignatureError("signature mismatch")
	}
	return nil
}

// decodeSignature accepts standard and URL-safe base64.
func decodeSignature(signature string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(signature); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(signature, "="))
}

type webhookPayload struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type webhookData struct {
	Conversation struct {
		ConversationID string      `json:"conversation_id"`
		ID             json.Number `json:"id"`
	} `json:"conversation"`
	Message webhookMessage `json:"message"`
	User    struct {
		ID string `json:"id"`
	} `json:"user"`
}

type webhookMessage struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	ActorType      string            `json:"actor_type"`
	ActorID        string            `json:"actor_id"`
	CreatedTime    string            `json:"created_time"`
	MessageParts   []json.RawMessage `json:"message_parts"`
}

// Parse normalizes a Freshchat webhook payload. A nil event means the
// payload is intentionally ignored: unrecognized actions, duplicate message
// ids, and echoes of messages our own user authored.
func (v *WebhookVerifier) Parse(raw []byte) (*models.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NewBadRequestError("malformed webhook payload", err.Error())
	}

	var data webhookData
	if len(payload.Data) > 0 {
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			return nil, errors.NewBadRequestError("malformed webhook data", err.Error())
		}
	}

	switch payload.Action {
	case "conversation_resolution", "conversation:resolve":
		return v.parseResolution(&data, payload.Data)
	case "message_create":
		return v.parseMessage(&data, payload.Data)
	default:
		log.Debug().Str("action", payload.Action).Msg("Ignoring webhook action")
		return nil, nil
	}
}

func (v *WebhookVerifier) parseResolution(data *webhookData, raw json.RawMessage) (*models.WebhookEvent, error) {
	conversationID := data.Conversation.ConversationID
	numericID := data.Conversation.ID.String()
	if conversationID == "" && numericID == "" {
		return nil, nil
	}

	return &models.WebhookEvent{
		Kind:           models.EventResolution,
		ConversationID: conversationID,
		NumericID:      numericID,
		Raw:            raw,
	}, nil
}

func (v *WebhookVerifier) parseMessage(data *webhookData, raw json.RawMessage) (*models.WebhookEvent, error) {
	if data.Message.ID == "" {
		log.Warn().Msg("Webhook message missing id")
		return nil, nil
	}
	if v.deduper.Seen(data.Message.ID) {
		metrics.DedupDropsTotal.WithLabelValues(string(models.PlatformFreshchat)).Inc()
		log.Debug().Str("messageId", data.Message.ID).Msg("Duplicate webhook message ignored")
		return nil, nil
	}

	// A user actor is our own outbound message coming back around.
	if data.Message.ActorType == "user" || data.Message.ActorType == "" {
		return nil, nil
	}

	conversationID := data.Conversation.ConversationID
	numericID := data.Conversation.ID.String()
	if conversationID == "" && numericID == "" {
		conversationID = data.Message.ConversationID
	}
	if conversationID == "" && numericID == "" {
		log.Warn().Str("messageId", data.Message.ID).Msg("Webhook message missing conversation id")
		return nil, nil
	}

	message := parseMessageParts(&data.Message)

	return &models.WebhookEvent{
		Kind:           models.EventMessage,
		ConversationID: conversationID,
		NumericID:      numericID,
		Message:        message,
		UserID:         data.User.ID,
		Raw:            raw,
	}, nil
}

type messagePart struct {
	Text *struct {
		Content string `json:"content"`
	} `json:"text"`
	Image *partFile `json:"image"`
	File  *partFile `json:"file"`
	Video *partFile `json:"video"`
}

type partFile struct {
	URL          string `json:"url"`
	DownloadURL  string `json:"download_url"`
	DownloadURL2 string `json:"downloadUrl"`
	Name         string `json:"name"`
	ContentType  string `json:"content_type"`
	ContentType2 string `json:"contentType"`
	FileHash     string `json:"file_hash"`
	FileHash2    string `json:"fileHash"`
	FileID       string `json:"file_id"`
	FileID2      string `json:"fileId"`
}

func (f *partFile) url() string {
	return firstNonEmpty(f.URL, f.DownloadURL, f.DownloadURL2)
}

func (f *partFile) contentType(fallback string) string {
	return firstNonEmpty(f.ContentType, f.ContentType2, fallback)
}

func parseMessageParts(msg *webhookMessage) *models.ParsedMessage {
	var textParts []string
	var attachments []models.ParsedAttachment

	for _, rawPart := range msg.MessageParts {
		var part messagePart
		if err := json.Unmarshal(rawPart, &part); err != nil {
			continue
		}

		switch {
		case part.Text != nil:
			if part.Text.Content != "" {
				textParts = append(textParts, part.Text.Content)
			}
		case part.Image != nil:
			attachments = append(attachments, models.ParsedAttachment{
				Kind:        models.AttachmentImage,
				URL:         part.Image.url(),
				Name:        part.Image.Name,
				ContentType: part.Image.contentType("image/png"),
				FileHash:    firstNonEmpty(part.Image.FileHash, part.Image.FileHash2),
				FileID:      firstNonEmpty(part.Image.FileID, part.Image.FileID2),
			})
		case part.File != nil:
			attachments = append(attachments, models.ParsedAttachment{
				Kind:        models.AttachmentFile,
				URL:         part.File.url(),
				Name:        part.File.Name,
				ContentType: part.File.contentType("application/octet-stream"),
				FileHash:    firstNonEmpty(part.File.FileHash, part.File.FileHash2),
				FileID:      firstNonEmpty(part.File.FileID, part.File.FileID2),
			})
		case part.Video != nil:
			attachments = append(attachments, models.ParsedAttachment{
				Kind:        models.AttachmentVideo,
				URL:         part.Video.url(),
				Name:        part.Video.Name,
				ContentType: part.Video.contentType("video/mp4"),
			})
		}
	}

	actor := models.ActorKind(msg.ActorType)
	switch actor {
	case models.ActorUser, models.ActorAgent, models.ActorSystem:
	default:
		actor = models.ActorUser
	}

	return &models.ParsedMessage{
		ID:          msg.ID,
		Text:        strings.Join(textParts, "\n"),
		Attachments: attachments,
		ActorKind:   actor,
		ActorID:     msg.ActorID,
		CreatedTime: msg.CreatedTime,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
