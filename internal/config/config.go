// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	Cache   CacheConfig
	Store   StoreConfig
	Vault   VaultConfig
	Teams   TeamsConfig
	Webhook WebhookConfig
	Admin   AdminConfig
	Log     LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host    string
	Port    int
	GinMode string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type      string
	Host      string
	Port      string
	Password  string
	DB        int
	TenantTTL time.Duration
	ClientTTL time.Duration
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Type     string
	URI      string
	Database string
}

// VaultConfig holds vault configuration.
type VaultConfig struct {
	Type          string
	EncryptionKey string
}

// TeamsConfig holds Bot Framework configuration.
type TeamsConfig struct {
	AppID       string
	AppPassword string
	Timeout     time.Duration
}

// WebhookConfig controls inbound webhook verification and deduplication.
type WebhookConfig struct {
	RejectInvalidSignature bool
	DedupTTL               time.Duration
	DedupMaxEntries        int
}

// AdminConfig holds the admin surface configuration.
type AdminConfig struct {
	ServiceKey  string
	CORSOrigins []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Cache: CacheConfig{
			Type:      getEnv("CACHE_TYPE", "redis"),
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			TenantTTL: time.Duration(getEnvAsInt("TENANT_CACHE_TTL_SECONDS", 300)) * time.Second,
			ClientTTL: time.Duration(getEnvAsInt("CLIENT_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		Store: StoreConfig{
			Type:     getEnv("STORE_TYPE", "mongodb"),
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "teams_bridge"),
		},
		Vault: VaultConfig{
			Type:          getEnv("VAULT_TYPE", "dotenv"),
			EncryptionKey: getEnv("SECRETS_ENCRYPTION_KEY", ""),
		},
		Teams: TeamsConfig{
			AppID:       getEnv("TEAMS_APP_ID", ""),
			AppPassword: getEnv("TEAMS_APP_PASSWORD", ""),
			Timeout:     time.Duration(getEnvAsInt("TEAMS_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Webhook: WebhookConfig{
			RejectInvalidSignature: getEnvAsBool("WEBHOOK_REJECT_INVALID_SIGNATURE", true),
			DedupTTL:               time.Duration(getEnvAsInt("WEBHOOK_DEDUP_TTL_SECONDS", 600)) * time.Second,
			DedupMaxEntries:        getEnvAsInt("WEBHOOK_DEDUP_MAX_ENTRIES", 2000),
		},
		Admin: AdminConfig{
			ServiceKey:  getEnv("ADMIN_SERVICE_KEY", ""),
			CORSOrigins: getEnvAsSlice("ADMIN_CORS_ORIGINS"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsSlice gets a comma-separated environment variable as a slice.
func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsBool gets an environment variable as a boolean with a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
