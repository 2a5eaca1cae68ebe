// Package zendesk implements the helpdesk client and webhook verifier for
// Zendesk Support.
package zendesk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
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
	agentCacheTTL = 30 * time.Minute

	defaultAgentName = "Agent"

	maxSubjectLength = 80
)

// Client talks to the Zendesk Support API on behalf of one tenant. OAuth
// bearer auth is preferred when a token is configured; otherwise Basic auth
// with email/token credentials.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	oauthToken string

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

// NewClient creates a Zendesk client from a decrypted credential bundle.
func NewClient(creds *models.ZendeskCredentials) *Client {
	return &Client{
		baseURL:     fmt.Sprintf("https://%s.zendesk.com/api/v2", creds.Subdomain),
		email:       creds.Email,
		apiToken:    creds.APIToken,
		oauthToken:  creds.OAuthToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		mediaClient: &http.Client{Timeout: 120 * time.Second},
		agentCache:  make(map[string]agentEntry),
		now:         time.Now,
	}
}

func (c *Client) authHeader() string {
	if c.oauthToken != "" {
		return "Bearer " + c.oauthToken
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.email + "/token:" + c.apiToken))
	return "Basic " + credentials
}

// GetOrCreateUser resolves the Zendesk user for a Teams user by external
// id, creating one when absent.
func (c *Client) GetOrCreateUser(ctx context.Context, user *models.ChatUser) (string, error) {
	searchURL := fmt.Sprintf("%s/users/search.json?query=%s",
		c.baseURL, url.QueryEscape("external_id:"+user.ID))

	var searchResult struct {
		Users []struct {
			ID json.Number `json:"id"`
		} `json:"users"`
	}
	if err := c.doJSON(ctx, http.MethodGet, searchURL, nil, &searchResult, "search_user"); err == nil && len(searchResult.Users) > 0 {
		return searchResult.Users[0].ID.String(), nil
	}

	name := user.Name
	if name == "" {
		ref := user.ID
		if len(ref) > 8 {
			ref = ref[:8]
		}
		name = "User_" + ref
	}
	userData := map[string]interface{}{
		"name":        name,
		"external_id": user.ID,
		"verified":    true,
	}
	if user.Email != "" {
		userData["email"] = user.Email
	}

	var createResult struct {
		User struct {
			ID json.Number `json:"id"`
		} `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/users.json",
		map[string]interface{}{"user": userData}, &createResult, "create_user"); err != nil {
		return "", err
	}

	id := createResult.User.ID.String()
	log.Info().Str("userId", id).Msg("Created Zendesk user")
	return id, nil
}

// CreateConversation creates a ticket with the message as the first comment.
// Uploaded attachments ride along as upload tokens.
func (c *Client) CreateConversation(ctx context.Context, userID string, user *models.ChatUser, text string, attachments []helpdesk.OutboundAttachment) (*helpdesk.ConversationHandle, error) {
	requesterID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, errors.NewValidationError("zendesk user id must be numeric", userID)
	}

	comment := map[string]interface{}{
		"body": commentBody(text),
	}
	if tokens := uploadTokens(attachments); len(tokens) > 0 {
		comment["uploads"] = tokens
	}

	payload := map[string]interface{}{
		"ticket": map[string]interface{}{
			"requester_id": requesterID,
			"subject":      extractSubject(text),
			"comment":      comment,
			"priority":     "normal",
		},
	}

	var result struct {
		Ticket struct {
			ID json.Number `json:"id"`
		} `json:"ticket"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/tickets.json", payload, &result, "create_ticket"); err != nil {
		return nil, err
	}

	ticketID := result.Ticket.ID.String()
	log.Info().Str("ticketId", ticketID).Msg("Created Zendesk ticket")

	return &helpdesk.ConversationHandle{
		ID:        ticketID,
		NumericID: ticketID,
	}, nil
}

// SendMessage appends the message as a public comment on the ticket.
func (c *Client) SendMessage(ctx context.Context, conversationID, userID, text string, attachments []helpdesk.OutboundAttachment) error {
	authorID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return errors.NewValidationError("zendesk user id must be numeric", userID)
	}

	comment := map[string]interface{}{
		"body":      commentBody(text),
		"author_id": authorID,
	}
	if tokens := uploadTokens(attachments); len(tokens) > 0 {
		comment["uploads"] = tokens
	}

	payload := map[string]interface{}{
		"ticket": map[string]interface{}{"comment": comment},
	}

	endpoint := fmt.Sprintf("%s/tickets/%s.json", c.baseURL, url.PathEscape(conversationID))
	return c.doJSON(ctx, http.MethodPut, endpoint, payload, nil, "add_comment")
}

// UploadFile pushes raw bytes to Zendesk uploads; the returned token
// attaches the file to a subsequent comment.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, data []byte) (*helpdesk.UploadedFile, error) {
	endpoint := fmt.Sprintf("%s/uploads.json?filename=%s", c.baseURL, url.QueryEscape(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Content-Type", "application/binary")

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		return nil, errors.NewTransientBackendError("zendesk.upload_file", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.FromBackendStatus("zendesk.upload_file", resp.StatusCode, string(respBody))
	}

	var result struct {
		Upload struct {
			Token       string `json:"token"`
			Attachments []struct {
				ContentURL string `json:"content_url"`
			} `json:"attachments"`
		} `json:"upload"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	uploaded := &helpdesk.UploadedFile{
		// Zendesk upload tokens travel in the file id slot.
		FileID:      result.Upload.Token,
		Name:        filename,
		ContentType: contentType,
	}
	if len(result.Upload.Attachments) > 0 {
		uploaded.URL = result.Upload.Attachments[0].ContentURL
	}
	return uploaded, nil
}

// GetAgentName resolves an agent display name, caching hits for 30 minutes.
func (c *Client) GetAgentName(ctx context.Context, agentID string) string {
	c.agentMu.RLock()
	entry, ok := c.agentCache[agentID]
	c.agentMu.RUnlock()
	if ok && c.now().Sub(entry.cachedAt) < agentCacheTTL {
		return entry.name
	}

	var result struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	endpoint := fmt.Sprintf("%s/users/%s.json", c.baseURL, url.PathEscape(agentID))
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &result, "get_agent"); err != nil {
		log.Warn().Err(err).Str("agentId", agentID).Msg("Failed to resolve agent name")
		return defaultAgentName
	}
	if result.User.Name == "" {
		return defaultAgentName
	}

	c.agentMu.Lock()
	c.agentCache[agentID] = agentEntry{name: result.User.Name, cachedAt: c.now()}
	c.agentMu.Unlock()

	return result.User.Name
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, out interface{}, operation string) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendRequest("zendesk", operation, "transport_error", time.Since(start).Seconds())
		return errors.NewTransientBackendError("zendesk."+operation, err)
	}
	defer resp.Body.Close()
	metrics.RecordBackendRequest("zendesk", operation, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewTransientBackendError("zendesk."+operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.FromBackendStatus("zendesk."+operation, resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", operation, err)
		}
	}
	return nil
}

func commentBody(text string) string {
	if text == "" {
		return "(see attachments)"
	}
	return text
}

func uploadTokens(attachments []helpdesk.OutboundAttachment) []string {
	var tokens []string
	for _, att := range attachments {
		if att.FileID != "" {
			tokens = append(tokens, att.FileID)
		}
	}
	return tokens
}

func extractSubject(text string) string {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > maxSubjectLength {
			return line[:maxSubjectLength]
		}
		return line
	}
	return "Teams request"
}
