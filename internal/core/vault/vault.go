// Package vault defines the secret source behind the credential
// encryption key. The bridge only ever reads secrets at startup; rotation
// happens out of band in the vault itself.
package vault

import (
	"context"
)

// Client reads secrets from a vault backend.
type Client interface {
	// GetSecret retrieves a secret by reference. The reference format is
	// backend-specific, e.g. "dotenv://SECRETS_ENCRYPTION_KEY".
	GetSecret(ctx context.Context, ref string) (string, error)

	// Close closes the vault connection.
	Close() error
}
