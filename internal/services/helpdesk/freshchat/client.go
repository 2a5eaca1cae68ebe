// Package freshchat implements the helpdesk client and webhook verifier
// for the Freshchat conversation API.
package freshchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/metrics"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
)

const (
	// agentCacheTTL is how long an agent display name is reused.
	agentCacheTTL = 30 * time.Minute

	defaultAgentName = "Agent"
)

// Client talks to the Freshchat API on behalf of one tenant.
type Client struct {
	apiKey  string
	apiURL  string
	inboxID string

	httpClient  *http.Client
	mediaClient *http.Client

	agentMu    sync.RWMutex
	agentCache map[string]agentEntry
	now        func() time.Time
}

type agentEntry struct {
	name     string
	cachedAt time.Time
}

// NewClient creates a Freshchat client from a decrypted credential bundle.
func NewClient(creds *models.FreshchatCredentials) *Client {
	return &Client{
		apiKey:      creds.APIKey,
		apiURL:      strings.TrimRight(creds.APIURL, "/"),
		inboxID:     creds.InboxID,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		mediaClient: &http.Client{Timeout: 120 * time.Second},
		agentCache:  make(map[string]agentEntry),
		now:         time.Now,
	}
}

// GetOrCreateUser resolves the Freshchat user for a Teams user, searching by
// reference id, then email, then creating one. A create conflict means the
// user appeared concurrently, so the search is retried once.
func (c *Client) GetOrCreateUser(ctx context.Context, user *models.ChatUser) (string, error) {
	if id, err := c.findUser(ctx, "reference_id", user.ID); err == nil && id != "" {
		return id, nil
	}
	if user.Email != "" {
		if id, err := c.findUser(ctx, "email", user.Email); err == nil && id != "" {
			return id, nil
		}
	}

	id, status, err := c.createUser(ctx, user)
	if err != nil {
		return "", err
	}
	if status == http.StatusConflict {
		if id, err := c.findUser(ctx, "reference_id", user.ID); err == nil && id != "" {
			return id, nil
		}
		return "", errors.NewPermanentBackendError("freshchat.create_user", status, "user exists but is not searchable")
	}
	return id, nil
}

func (c *Client) findUser(ctx context.Context, param, value string) (string, error) {
	endpoint := fmt.Sprintf("%s/users?%s=%s", c.apiURL, param, url.QueryEscape(value))

	var result struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &result, "find_user"); err != nil {
		return "", err
	}
	if len(result.Users) == 0 {
		return "", nil
	}
	return result.Users[0].ID, nil
}

func (c *Client) createUser(ctx context.Context, user *models.ChatUser) (string, int, error) {
	payload := map[string]interface{}{
		"reference_id": user.ID,
	}
	if user.Name != "" {
		parts := strings.SplitN(user.Name, " ", 2)
		payload["first_name"] = parts[0]
		if len(parts) > 1 {
			payload["last_name"] = parts[1]
		}
	}
	if user.Email != "" {
		payload["email"] = user.Email
	}

	var result struct {
		ID string `json:"id"`
	}
	status, err := c.doJSON(ctx, http.MethodPost, c.apiURL+"/users", payload, &result, "create_user")
	if err != nil {
		if status == http.StatusConflict {
			return "", status, nil
		}
		return "", status, err
	}
	return result.ID, status, nil
}

// CreateConversation opens a new Freshchat conversation seeded with the
// given message.
func (c *Client) CreateConversation(ctx context.Context, userID string, user *models.ChatUser, text string, attachments []helpdesk.OutboundAttachment) (*helpdesk.ConversationHandle, error) {
	parts := buildMessageParts(text, attachments)
	if len(parts) == 0 {
		parts = append(parts, map[string]interface{}{
			"text": map[string]interface{}{"content": "(conversation started)"},
		})
	}

	payload := map[string]interface{}{
		"channel_id": c.inboxID,
		"users":      []map[string]interface{}{{"id": userID}},
		"messages": []map[string]interface{}{{
			"message_parts": parts,
			"actor_type":    "user",
			"actor_id":      userID,
		}},
	}

	var result struct {
		ConversationID string      `json:"conversation_id"`
		ID             json.Number `json:"id"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, c.apiURL+"/conversations", payload, &result, "create_conversation"); err != nil {
		return nil, err
	}

	log.Info().
		Str("conversationId", result.ConversationID).
		Str("numericId", result.ID.String()).
		Msg("Created Freshchat conversation")

	return &helpdesk.ConversationHandle{
		ID:        result.ConversationID,
		NumericID: result.ID.String(),
	}, nil
}

// SendMessage appends a user message to an existing conversation. A 400
// telling us the conversation is no longer the latest means it was resolved
// on the Freshchat side; that is a permanent failure here, recovery is the
// router's decision.
func (c *Client) SendMessage(ctx context.Context, conversationID, userID, text string, attachments []helpdesk.OutboundAttachment) error {
	parts := buildMessageParts(text, attachments)
	if len(parts) == 0 {
		return errors.NewValidationError("message has no content", "")
	}

	payload := map[string]interface{}{
		"message_parts": parts,
		"actor_type":    "user",
		"actor_id":      userID,
	}

	endpoint := fmt.Sprintf("%s/conversations/%s/messages", c.apiURL, url.PathEscape(conversationID))
	_, err := c.doJSON(ctx, http.MethodPost, endpoint, payload, nil, "send_message")
	return err
}

// UploadFile pushes raw bytes to Freshchat file storage.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, data []byte) (*helpdesk.UploadedFile, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", ensureExtension(filename, contentType))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/files/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		return nil, errors.NewTransientBackendError("freshchat.upload_file", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.FromBackendStatus("freshchat.upload_file", resp.StatusCode, string(respBody))
	}

	return normalizeUploadResponse(respBody, filename, contentType), nil
}

// GetAgentName resolves an agent display name, caching hits for 30 minutes.
// Lookup failures fall back to a generic label.
func (c *Client) GetAgentName(ctx context.Context, agentID string) string {
	c.agentMu.RLock()
	entry, ok := c.agentCache[agentID]
	c.agentMu.RUnlock()
	if ok && c.now().Sub(entry.cachedAt) < agentCacheTTL {
		return entry.name
	}

	var result struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	endpoint := fmt.Sprintf("%s/agents/%s", c.apiURL, url.PathEscape(agentID))
	if _, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &result, "get_agent"); err != nil {
		log.Warn().Err(err).Str("agentId", agentID).Msg("Failed to resolve agent name")
		return defaultAgentName
	}

	name := strings.TrimSpace(result.FirstName + " " + result.LastName)
	if name == "" {
		name = result.Email
	}
	if name == "" {
		name = defaultAgentName
	}

	c.agentMu.Lock()
	c.agentCache[agentID] = agentEntry{name: name, cachedAt: c.now()}
	c.agentMu.Unlock()

	return name
}

// doJSON performs a JSON request and decodes the response into out when
// non-nil. The HTTP status is returned alongside any classified error.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, out interface{}, operation string) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal %s payload: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendRequest("freshchat", operation, "transport_error", time.Since(start).Seconds())
		return 0, errors.NewTransientBackendError("freshchat."+operation, err)
	}
	defer resp.Body.Close()
	metrics.RecordBackendRequest("freshchat", operation, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errors.NewTransientBackendError("freshchat."+operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, errors.FromBackendStatus("freshchat."+operation, resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", operation, err)
		}
	}
	return resp.StatusCode, nil
}

// buildMessageParts assembles Freshchat message parts from text and
// attachments. Images become image parts; everything else becomes a file
// part, referenced by URL or by uploaded file hash.
func buildMessageParts(text string, attachments []helpdesk.OutboundAttachment) []map[string]interface{} {
	var parts []map[string]interface{}

	if text != "" {
		parts = append(parts, map[string]interface{}{
			"text": map[string]interface{}{"content": text},
		})
	}

	for _, att := range attachments {
		isImage := strings.HasPrefix(att.ContentType, "image/")

		switch {
		case att.URL != "":
			if isImage {
				parts = append(parts, map[string]interface{}{
					"image": map[string]interface{}{"url": att.URL},
				})
			} else {
				parts = append(parts, map[string]interface{}{
					"file": map[string]interface{}{
						"url":          att.URL,
						"name":         attachmentName(att),
						"content_type": att.ContentType,
					},
				})
			}
		case att.FileHash != "" || att.FileID != "":
			if isImage {
				parts = append(parts, map[string]interface{}{
					"image": map[string]interface{}{
						"file_hash": att.FileHash,
						"file_id":   att.FileID,
					},
				})
			} else {
				parts = append(parts, map[string]interface{}{
					"file": map[string]interface{}{
						"file_hash":    att.FileHash,
						"file_id":      att.FileID,
						"name":         attachmentName(att),
						"content_type": att.ContentType,
					},
				})
			}
		}
	}

	return parts
}

func attachmentName(att helpdesk.OutboundAttachment) string {
	if att.Name != "" {
		return att.Name
	}
	return "file"
}

var contentTypeExtensions = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"application/zip": ".zip",
	"text/plain":      ".txt",
	"text/csv":        ".csv",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"audio/mpeg":      ".mp3",
}

// ensureExtension appends an extension derived from the content type when
// the filename has none; Freshchat rejects extensionless uploads for some
// types.
func ensureExtension(filename, contentType string) string {
	if filename == "" {
		filename = "attachment"
	}
	base := filename[strings.LastIndex(filename, "/")+1:]
	if strings.Contains(base, ".") {
		return filename
	}

	if ext, ok := contentTypeExtensions[contentType]; ok {
		return filename + ext
	}
	if slash := strings.Index(contentType, "/"); slash > 0 {
		subtype := strings.TrimSpace(strings.SplitN(contentType[slash+1:], ";", 2)[0])
		if subtype != "" && len(subtype) <= 5 {
			return filename + "." + subtype
		}
	}
	return filename
}

func normalizeUploadResponse(body []byte, filename, contentType string) *helpdesk.UploadedFile {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return &helpdesk.UploadedFile{Name: filename, ContentType: contentType}
	}

	fileData := raw
	if nested, ok := raw["file"].(map[string]interface{}); ok {
		fileData = nested
	} else if nested, ok := raw["data"].(map[string]interface{}); ok {
		fileData = nested
	}

	pick := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := fileData[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}

	uploaded := &helpdesk.UploadedFile{
		FileHash:    pick("file_hash", "fileHash"),
		FileID:      pick("file_id", "fileId", "id"),
		Name:        pick("name"),
		ContentType: pick("content_type", "contentType"),
		URL:         pick("url", "download_url"),
	}
	if uploaded.Name == "" {
		uploaded.Name = filename
	}
	if uploaded.ContentType == "" {
		uploaded.ContentType = contentType
	}
	return uploaded
}
