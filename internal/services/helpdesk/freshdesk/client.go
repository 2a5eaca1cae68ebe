// Package freshdesk implements the helpdesk client and webhook verifier
// for Freshdesk ticketing (including Omni).
package freshdesk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
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
	agentCacheTTL = 30 * time.Minute

	defaultAgentName = "Agent"

	maxSubjectLength = 120
)

// Client talks to the Freshdesk API v2 on behalf of one tenant.
// Authentication is Basic with the API key as username and "X" as password.
type Client struct {
	apiURL string
	apiKey string

	httpClient *http.Client

	agentMu    sync.RWMutex
	agentCache map[string]agentEntry
	now        func() time.Time
}

type agentEntry struct {
	name     string
	cachedAt time.Time
}

// NewClient creates a Freshdesk client from a decrypted credential bundle.
func NewClient(creds *models.FreshdeskCredentials) *Client {
	return &Client{
		apiURL:     strings.TrimRight(creds.BaseURL, "/") + "/api/v2",
		apiKey:     creds.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		agentCache: make(map[string]agentEntry),
		now:        time.Now,
	}
}

// GetOrCreateUser returns the requester identity. Freshdesk addresses
// requesters by email on ticket creation, so no user object is created.
func (c *Client) GetOrCreateUser(ctx context.Context, user *models.ChatUser) (string, error) {
	if user.Email == "" {
		return "", errors.NewValidationError("freshdesk requires a requester email", "")
	}
	return user.Email, nil
}

// CreateConversation creates a ticket. The subject is the first line of the
// message, truncated; attachments arrive as links appended to the body.
func (c *Client) CreateConversation(ctx context.Context, userID string, user *models.ChatUser, text string, attachments []helpdesk.OutboundAttachment) (*helpdesk.ConversationHandle, error) {
	body := appendAttachmentLinks(text, attachments)
	if body == "" {
		body = "(conversation started)"
	}

	payload := map[string]interface{}{
		"subject":     extractSubject(text),
		"description": body,
		"email":       userID,
	}

	var result struct {
		ID json.Number `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.apiURL+"/tickets", payload, &result, "create_ticket"); err != nil {
		return nil, err
	}

	ticketID := result.ID.String()
	log.Info().Str("ticketId", ticketID).Msg("Created Freshdesk ticket")

	return &helpdesk.ConversationHandle{
		ID:        ticketID,
		NumericID: ticketID,
	}, nil
}

// SendMessage appends the message as a note on the ticket.
func (c *Client) SendMessage(ctx context.Context, conversationID, userID, text string, attachments []helpdesk.OutboundAttachment) error {
	body := appendAttachmentLinks(text, attachments)
	if strings.TrimSpace(body) == "" {
		return nil
	}

	payload := map[string]interface{}{
		"body":    body,
		"private": false,
	}

	endpoint := fmt.Sprintf("%s/tickets/%s/notes", c.apiURL, url.PathEscape(conversationID))
	return c.doJSON(ctx, http.MethodPost, endpoint, payload, nil, "add_note")
}

// UploadFile is not supported by this integration path; attachments are
// relayed as links instead. The descriptor is returned so the caller can
// still reference the file by name.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, data []byte) (*helpdesk.UploadedFile, error) {
	log.Info().
		Str("filename", filename).
		Str("contentType", contentType).
		Int("size", len(data)).
		Msg("Freshdesk binary upload skipped; attachment relayed as link")
	return &helpdesk.UploadedFile{Name: filename, ContentType: contentType}, nil
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
		Name    string `json:"name"`
		Contact struct {
			Name string `json:"name"`
		} `json:"contact"`
	}
	endpoint := fmt.Sprintf("%s/agents/%s", c.apiURL, url.PathEscape(agentID))
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &result, "get_agent"); err != nil {
		log.Warn().Err(err).Str("agentId", agentID).Msg("Failed to resolve agent name")
		return defaultAgentName
	}

	name := result.Contact.Name
	if name == "" {
		name = result.Name
	}
	if name == "" {
		return defaultAgentName
	}

	c.agentMu.Lock()
	c.agentCache[agentID] = agentEntry{name: name, cachedAt: c.now()}
	c.agentMu.Unlock()

	return name
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
	credentials := base64.StdEncoding.EncodeToString([]byte(c.apiKey + ":X"))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendRequest("freshdesk", operation, "transport_error", time.Since(start).Seconds())
		return errors.NewTransientBackendError("freshdesk."+operation, err)
	}
	defer resp.Body.Close()
	metrics.RecordBackendRequest("freshdesk", operation, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewTransientBackendError("freshdesk."+operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.FromBackendStatus("freshdesk."+operation, resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", operation, err)
		}
	}
	return nil
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

func appendAttachmentLinks(text string, attachments []helpdesk.OutboundAttachment) string {
	var links []string
	for _, att := range attachments {
		if att.URL == "" {
			continue
		}
		name := att.Name
		if name == "" {
			name = "attachment"
		}
		links = append(links, fmt.Sprintf("%s: %s", name, att.URL))
	}
	if len(links) == 0 {
		return text
	}
	if text == "" {
		return strings.Join(links, "\n")
	}
	return text + "\n\n" + strings.Join(links, "\n")
}
