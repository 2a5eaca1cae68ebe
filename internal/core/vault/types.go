// Package vault provides the vault type constants.
package vault

// Type represents the type of vault backend.
type Type string

const (
	// TypeDotEnv reads secrets from the process environment (development).
	TypeDotEnv Type = "dotenv"
	// TypeAzure represents an Azure Key Vault.
	TypeAzure Type = "azure"
)
