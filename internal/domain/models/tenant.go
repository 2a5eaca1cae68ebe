// Package models contains domain models for the Teams Helpdesk Bridge.
package models

import (
	"fmt"
	"time"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/encryption"
)

// Platform represents a supported helpdesk backend.
type Platform string

const (
	// PlatformFreshchat is the Freshworks chat product.
	PlatformFreshchat Platform = "freshchat"
	// PlatformFreshdesk is the Freshworks ticketing product (including Omni).
	PlatformFreshdesk Platform = "freshdesk"
	// PlatformZendesk is Zendesk Support/Messaging.
	PlatformZendesk Platform = "zendesk"
)

// IsValid reports whether p is a known platform.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformFreshchat, PlatformFreshdesk, PlatformZendesk:
		return true
	}
	return false
}

// FreshchatCredentials holds the Freshchat API credential bundle.
// APIKey and WebhookPublicKey are stored encrypted.
type FreshchatCredentials struct {
	APIKey           string `json:"apiKey" bson:"apiKey"`
	APIURL           string `json:"apiUrl" bson:"apiUrl"`
	InboxID          string `json:"inboxId,omitempty" bson:"inboxId,omitempty"`
	WebhookPublicKey string `json:"webhookPublicKey,omitempty" bson:"webhookPublicKey,omitempty"`
}

// EncryptSecrets encrypts the declared secret fields in place.
func (c *FreshchatCredentials) EncryptSecrets(enc encryption.Encryptor) error {
	return encryptFields(enc, &c.APIKey, &c.WebhookPublicKey)
}

// DecryptSecrets decrypts the declared secret fields in place.
func (c *FreshchatCredentials) DecryptSecrets(enc encryption.Encryptor) error {
	return decryptFields(enc, &c.APIKey, &c.WebhookPublicKey)
}

// Complete reports whether the bundle carries enough material to build a client.
func (c *FreshchatCredentials) Complete() bool {
	return c != nil && c.APIKey != ""
}

// FreshdeskCredentials holds the Freshdesk API credential bundle.
// APIKey is stored encrypted.
type FreshdeskCredentials struct {
	BaseURL string `json:"baseUrl" bson:"baseUrl"`
	APIKey  string `json:"apiKey" bson:"apiKey"`
}

// EncryptSecrets encrypts the declared secret fields in place.
func (c *FreshdeskCredentials) EncryptSecrets(enc encryption.Encryptor) error {
	return encryptFields(enc, &c.APIKey)
}

// DecryptSecrets decrypts the declared secret fields in place.
func (c *FreshdeskCredentials) DecryptSecrets(enc encryption.Encryptor) error {
	return decryptFields(enc, &c.APIKey)
}

// Complete reports whether the bundle carries enough material to build a client.
func (c *FreshdeskCredentials) Complete() bool {
	return c != nil && c.BaseURL != "" && c.APIKey != ""
}

// ZendeskCredentials holds the Zendesk API credential bundle.
// APIToken and OAuthToken are stored encrypted.
type ZendeskCredentials struct {
	Subdomain  string `json:"subdomain" bson:"subdomain"`
	Email      string `json:"email" bson:"email"`
	APIToken   string `json:"apiToken" bson:"apiToken"`
	OAuthToken string `json:"oauthToken,omitempty" bson:"oauthToken,omitempty"`
}

// EncryptSecrets encrypts the declared secret fields in place.
func (c *ZendeskCredentials) EncryptSecrets(enc encryption.Encryptor) error {
	return encryptFields(enc, &c.APIToken, &c.OAuthToken)
}

// DecryptSecrets decrypts the declared secret fields in place.
func (c *ZendeskCredentials) DecryptSecrets(enc encryption.Encryptor) error {
	return decryptFields(enc, &c.APIToken, &c.OAuthToken)
}

// Complete reports whether the bundle carries enough material to build a client.
func (c *ZendeskCredentials) Complete() bool {
	return c != nil && c.Subdomain != "" && (c.OAuthToken != "" || (c.Email != "" && c.APIToken != ""))
}

// PlatformCredentials is the tagged union of per-platform credential bundles.
// Exactly one variant is populated, matching the tenant's selected platform.
type PlatformCredentials struct {
	Freshchat *FreshchatCredentials `json:"freshchat,omitempty" bson:"freshchat,omitempty"`
	Freshdesk *FreshdeskCredentials `json:"freshdesk,omitempty" bson:"freshdesk,omitempty"`
	Zendesk   *ZendeskCredentials   `json:"zendesk,omitempty" bson:"zendesk,omitempty"`
}

// Validate checks the exactly-one-bundle invariant against the selected platform.
func (c *PlatformCredentials) Validate(platform Platform) error {
	count := 0
	if c.Freshchat != nil {
		count++
	}
	if c.Freshdesk != nil {
		count++
	}
	if c.Zendesk != nil {
		count++
	}
	if count != 1 {
		return fmt.Errorf("exactly one credential bundle must be set, got %d", count)
	}

	switch platform {
	case PlatformFreshchat:
		if c.Freshchat == nil {
			return fmt.Errorf("platform is %s but freshchat credentials are missing", platform)
		}
	case PlatformFreshdesk:
		if c.Freshdesk == nil {
			return fmt.Errorf("platform is %s but freshdesk credentials are missing", platform)
		}
	case PlatformZendesk:
		if c.Zendesk == nil {
			return fmt.Errorf("platform is %s but zendesk credentials are missing", platform)
		}
	default:
		return fmt.Errorf("unknown platform: %s", platform)
	}
	return nil
}

// EncryptSecrets encrypts the secret fields of the populated bundle.
func (c *PlatformCredentials) EncryptSecrets(enc encryption.Encryptor) error {
	for _, b := range c.bundles() {
		if err := b.EncryptSecrets(enc); err != nil {
			return err
		}
	}
	return nil
}

// DecryptSecrets decrypts the secret fields of the populated bundle.
func (c *PlatformCredentials) DecryptSecrets(enc encryption.Encryptor) error {
	for _, b := range c.bundles() {
		if err := b.DecryptSecrets(enc); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy so decryption never mutates a shared row.
func (c *PlatformCredentials) Clone() PlatformCredentials {
	var out PlatformCredentials
	if c.Freshchat != nil {
		v := *c.Freshchat
		out.Freshchat = &v
	}
	if c.Freshdesk != nil {
		v := *c.Freshdesk
		out.Freshdesk = &v
	}
	if c.Zendesk != nil {
		v := *c.Zendesk
		out.Zendesk = &v
	}
	return out
}

type secretBundle interface {
	EncryptSecrets(encryption.Encryptor) error
	DecryptSecrets(encryption.Encryptor) error
}

func (c *PlatformCredentials) bundles() []secretBundle {
	var out []secretBundle
	if c.Freshchat != nil {
		out = append(out, c.Freshchat)
	}
	if c.Freshdesk != nil {
		out = append(out, c.Freshdesk)
	}
	if c.Zendesk != nil {
		out = append(out, c.Zendesk)
	}
	return out
}

// TenantConfig is a tenant's resolved configuration. Credential bundles are
// decrypted in memory only; the persisted form always carries ciphertext.
type TenantConfig struct {
	ID             string              `json:"id" bson:"_id"`
	TenantKey      string              `json:"tenantKey" bson:"tenantKey"`
	Platform       Platform            `json:"platform" bson:"platform"`
	Credentials    PlatformCredentials `json:"credentials" bson:"credentials"`
	BotName        string              `json:"botName" bson:"botName"`
	WelcomeMessage string              `json:"welcomeMessage" bson:"welcomeMessage"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks the tenant row invariants.
func (t *TenantConfig) Validate() error {
	if t.TenantKey == "" {
		return fmt.Errorf("tenantKey is required")
	}
	if !t.Platform.IsValid() {
		return fmt.Errorf("unknown platform: %s", t.Platform)
	}
	return t.Credentials.Validate(t.Platform)
}

func encryptFields(enc encryption.Encryptor, fields ...*string) error {
	for _, f := range fields {
		if f == nil || *f == "" {
			continue
		}
		v, err := enc.EncryptString(*f)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

func decryptFields(enc encryption.Encryptor, fields ...*string) error {
	for _, f := range fields {
		if f == nil || *f == "" {
			continue
		}
		v, err := enc.DecryptString(*f)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}
