// Package platforms registers the per-backend builders the client factory
// dispatches on.
package platforms

import (
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk/freshchat"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk/freshdesk"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk/zendesk"
)

// Builders returns the builder for every supported platform. Each builder
// constructs the client and verifier from one tenant credential snapshot;
// an incomplete bundle is a configuration error, never retried.
func Builders() map[models.Platform]helpdesk.Builder {
	return map[models.Platform]helpdesk.Builder{
		models.PlatformFreshchat: buildFreshchat,
		models.PlatformFreshdesk: buildFreshdesk,
		models.PlatformZendesk:   buildZendesk,
	}
}

func buildFreshchat(tenant *models.TenantConfig, deduper *helpdesk.Deduper) (helpdesk.Client, helpdesk.Verifier, error) {
	creds := tenant.Credentials.Freshchat
	if !creds.Complete() {
		return nil, nil, errors.NewCredentialsMissingError(string(models.PlatformFreshchat))
	}
	return freshchat.NewClient(creds), freshchat.NewWebhookVerifier(creds.WebhookPublicKey, deduper), nil
}

func buildFreshdesk(tenant *models.TenantConfig, deduper *helpdesk.Deduper) (helpdesk.Client, helpdesk.Verifier, error) {
	creds := tenant.Credentials.Freshdesk
	if !creds.Complete() {
		return nil, nil, errors.NewCredentialsMissingError(string(models.PlatformFreshdesk))
	}
	return freshdesk.NewClient(creds), freshdesk.NewWebhookVerifier(deduper), nil
}

func buildZendesk(tenant *models.TenantConfig, deduper *helpdesk.Deduper) (helpdesk.Client, helpdesk.Verifier, error) {
	creds := tenant.Credentials.Zendesk
	if !creds.Complete() {
		return nil, nil, errors.NewCredentialsMissingError(string(models.PlatformZendesk))
	}
	return zendesk.NewClient(creds), zendesk.NewWebhookVerifier(deduper), nil
}
