// Package dotenv reads secrets from the process environment, for local
// development and single-node deployments where no real vault exists.
package dotenv

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/vault"
)

const refPrefix = "dotenv://"

// Client implements vault.Client over environment variables. godotenv has
// already folded any .env file into the environment by the time this runs.
type Client struct{}

var _ vault.Client = (*Client)(nil)

// NewClient creates a new dotenv vault client.
func NewClient() (*Client, error) {
	return &Client{}, nil
}

// GetSecret resolves a "dotenv://NAME" reference against the environment.
func (c *Client) GetSecret(_ context.Context, ref string) (string, error) {
	name := strings.TrimPrefix(ref, refPrefix)
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret not found: %s", name)
}

// Close is a no-op for the environment-backed vault.
func (c *Client) Close() error {
	return nil
}
