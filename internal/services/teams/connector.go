package teams

import (
	"bytes"
	"context"
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
)

const (
	tokenEndpoint = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"
	tokenScope    = "https://api.botframework.com/.default"

	// tokenExpirySlack renews the token this long before it expires.
	tokenExpirySlack = 5 * time.Minute

	userAgent = "Microsoft-BotFramework/3.0 (teams-helpdesk-bridge)"
)

// Connector delivers proactive activities through the Bot Connector REST
// API and downloads Teams attachments. One instance serves all tenants; the
// bot identity is process-wide.
type Connector struct {
	appID       string
	appPassword string

	httpClient  *http.Client
	mediaClient *http.Client

	tokenMu    sync.Mutex
	token      string
	tokenUntil time.Time
	now        func() time.Time
}

// ConnectorConfig holds the Bot Framework app credentials.
type ConnectorConfig struct {
	AppID       string
	AppPassword string
	Timeout     time.Duration
}

// NewConnector creates a Bot Connector client.
func NewConnector(cfg ConnectorConfig) *Connector {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Connector{
		appID:       cfg.AppID,
		appPassword: cfg.AppPassword,
		httpClient:  &http.Client{Timeout: timeout},
		mediaClient: &http.Client{Timeout: 120 * time.Second},
		now:         time.Now,
	}
}

// Configured reports whether bot credentials are present. Without them the
// connector can still download unauthenticated attachment URLs, but cannot
// send.
func (c *Connector) Configured() bool {
	return c.appID != "" && c.appPassword != ""
}

// SendText delivers a text message through the stored conversation
// reference. A sender name is prefixed in bold when present.
func (c *Connector) SendText(ctx context.Context, ref map[string]interface{}, text, senderName string) error {
	activity := map[string]interface{}{
		"type": ActivityMessage,
		"text": FormatAgentMessage(senderName, text),
	}
	return c.sendActivity(ctx, ref, activity)
}

// SendCard delivers a single card attachment through the stored
// conversation reference.
func (c *Connector) SendCard(ctx context.Context, ref map[string]interface{}, card Card, senderName string) error {
	activity := map[string]interface{}{
		"type": ActivityMessage,
		"attachments": []map[string]interface{}{{
			"contentType": card.ContentType,
			"content":     card.Content,
		}},
	}
	if senderName != "" {
		activity["text"] = FormatAgentMessage(senderName, "")
	}
	return c.sendActivity(ctx, ref, activity)
}

func (c *Connector) sendActivity(ctx context.Context, ref map[string]interface{}, activity map[string]interface{}) error {
	serviceURL, conversationID, err := referenceTarget(ref)
	if err != nil {
		return err
	}

	if bot, ok := ref["bot"].(map[string]interface{}); ok {
		activity["from"] = bot
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities",
		strings.TrimRight(serviceURL, "/"), url.PathEscape(conversationID))

	data, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create activity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransientBackendError("teams.send_activity", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return errors.FromBackendStatus("teams.send_activity", resp.StatusCode, string(body))
	}

	log.Debug().Str("conversationId", conversationID).Msg("Proactive activity sent")
	return nil
}

// DownloadAttachment fetches attachment bytes, trying the unauthenticated
// download URL first and the authenticated content URL second.
func (c *Connector) DownloadAttachment(ctx context.Context, contentURL, downloadURL string) ([]byte, string, error) {
	type candidate struct {
		url  string
		auth bool
	}
	var candidates []candidate
	if downloadURL != "" {
		candidates = append(candidates, candidate{url: downloadURL})
	}
	if contentURL != "" {
		candidates = append(candidates, candidate{url: contentURL, auth: true})
	}
	if len(candidates) == 0 {
		return nil, "", errors.NewValidationError("attachment has no downloadable URL", "")
	}

	var lastErr error
	for _, cand := range candidates {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cand.url, nil)
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "*/*")

		if cand.auth {
			token, err := c.accessToken(ctx)
			if err == nil && token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err := c.mediaClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("download returned status %d", resp.StatusCode)
			continue
		}

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return body, contentType, nil
	}

	return nil, "", errors.NewTransientBackendError("teams.download_attachment", lastErr)
}

// accessToken returns a cached Bot Framework token, renewing it via the
// client-credentials grant when close to expiry. Empty credentials yield an
// empty token, which the local Bot Framework emulator accepts.
func (c *Connector) accessToken(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", nil
	}

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && c.now().Before(c.tokenUntil) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.appID},
		"client_secret": {c.appPassword},
		"scope":         {tokenScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewTransientBackendError("teams.token", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewTransientBackendError("teams.token", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.FromBackendStatus("teams.token", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.token = result.AccessToken
	c.tokenUntil = c.now().Add(time.Duration(result.ExpiresIn)*time.Second - tokenExpirySlack)

	return c.token, nil
}

func referenceTarget(ref map[string]interface{}) (string, string, error) {
	serviceURL, _ := ref["serviceUrl"].(string)
	if serviceURL == "" {
		return "", "", errors.NewValidationError("conversation reference missing serviceUrl", "")
	}

	conversation, _ := ref["conversation"].(map[string]interface{})
	conversationID, _ := conversation["id"].(string)
	if conversationID == "" {
		return "", "", errors.NewValidationError("conversation reference missing conversation id", "")
	}
	return serviceURL, conversationID, nil
}
