// Package main is the entry point for the Teams Helpdesk Bridge.
// @title Teams Helpdesk Bridge API
// @version 1.0
// @description Bridges Microsoft Teams conversations to helpdesk backends (Freshchat, Freshdesk, Zendesk)
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/wedosoft/teams-helpdesk-bridge
// @contact.email support@wedosoft.net

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey ServiceKeyAuth
// @in header
// @name X-Service-Key
// @description Shared service key guarding the admin surface
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/wedosoft/teams-helpdesk-bridge/docs"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/handlers"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/middleware"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/api/routes"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/config"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/cache"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/media"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/store"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/core/vault"
	memorycache "github.com/wedosoft/teams-helpdesk-bridge/internal/infrastructure/cache/memory"
	rediscache "github.com/wedosoft/teams-helpdesk-bridge/internal/infrastructure/cache/redis"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/infrastructure/store/mongodb"
	dotenvvault "github.com/wedosoft/teams-helpdesk-bridge/internal/infrastructure/vault/dotenv"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/encryption"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/retry"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk/platforms"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/router"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/teams"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/tenant"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Log)

	ctx := context.Background()

	// Initialize vault client using factory pattern
	vaultClient, err := createVaultClient(cfg.Vault)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vault client")
	}
	defer vaultClient.Close()

	// Initialize cache client using factory pattern
	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache client")
	}
	defer cacheClient.Close()

	// Initialize store client using factory pattern
	storeClient, err := createStoreClient(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store client")
	}
	defer storeClient.Close(ctx)

	// Ensure database indexes
	if err := storeClient.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// Initialize media archive
	var mediaStore media.Store
	if ms, err := mongodb.NewMediaStore(storeClient.Database()); err != nil {
		log.Warn().Err(err).Msg("media archive unavailable; attachments will not be archived")
	} else {
		mediaStore = ms
	}

	// Initialize encryptor
	encryptor, err := createEncryptor(cfg.Vault, vaultClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryptor")
	}

	// Webhook dedup state is shared by every tenant's verifier.
	deduper := helpdesk.NewDeduper(cfg.Webhook.DedupTTL, cfg.Webhook.DedupMaxEntries)

	factory, err := helpdesk.NewFactory(&helpdesk.FactoryConfig{
		Builders: platforms.Builders(),
		Deduper:  deduper,
		TTL:      cfg.Cache.ClientTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend factory")
	}

	tenantService, err := tenant.NewService(&tenant.Config{
		Tenants:      storeClient.Tenants(),
		CacheClient:  cacheClient,
		Encryptor:    encryptor,
		TTL:          cfg.Cache.TenantTTL,
		OnInvalidate: factory.Invalidate,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tenant service")
	}

	connector := teams.NewConnector(teams.ConnectorConfig{
		AppID:       cfg.Teams.AppID,
		AppPassword: cfg.Teams.AppPassword,
		Timeout:     cfg.Teams.Timeout,
	})
	if !connector.Configured() {
		log.Warn().Msg("bot credentials not set; outbound Teams delivery is disabled")
	}
	validator := teams.NewActivityValidator(cfg.Teams.AppID)

	messageRouter, err := router.New(&router.Config{
		Tenants:       tenantService,
		Factory:       factory,
		Conversations: storeClient.Conversations(),
		MediaStore:    mediaStore,
		Sender:        connector,
		RetryPolicy:   retry.DefaultPolicy(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize message router")
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Setup router
	engine := setupRouter(cfg, cacheClient, storeClient, tenantService, factory, messageRouter, validator, connector)

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("address", cfg.Server.Address()).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// createVaultClient creates a vault client based on the configuration.
func createVaultClient(cfg config.VaultConfig) (vault.Client, error) {
	vaultType := vault.Type(cfg.Type)

	switch vaultType {
	case vault.TypeDotEnv:
		return dotenvvault.NewClient()
	default:
		log.Fatal().Str("type", cfg.Type).Msg("unsupported vault type")
		return nil, nil
	}
}

// createCacheClient creates a cache client based on the configuration.
func createCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	cacheType := cache.Type(cfg.Type)

	switch cacheType {
	case cache.TypeRedis:
		return rediscache.NewClient(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TenantTTL,
		})
	case cache.TypeMemory:
		return memorycache.NewClient(memorycache.Config{
			DefaultTTL: cfg.TenantTTL,
		}), nil
	default:
		log.Fatal().Str("type", cfg.Type).Msg("unsupported cache type")
		return nil, nil
	}
}

// createStoreClient creates a document store client based on the configuration.
func createStoreClient(ctx context.Context, cfg config.StoreConfig) (*mongodb.Client, error) {
	storeType := store.Type(cfg.Type)

	switch storeType {
	case store.TypeMongoDB, store.TypeCosmosDB:
		// CosmosDB speaks the MongoDB protocol, so the same client serves both.
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
		})
	default:
		log.Fatal().Str("type", cfg.Type).Msg("unsupported store type")
		return nil, nil
	}
}

// createEncryptor creates an encryptor based on the configuration.
func createEncryptor(cfg config.VaultConfig, vaultClient vault.Client) (encryption.Encryptor, error) {
	encryptionKey := cfg.EncryptionKey
	if encryptionKey == "" {
		key, err := vaultClient.GetSecret(context.Background(), "dotenv://SECRETS_ENCRYPTION_KEY")
		if err == nil && key != "" {
			encryptionKey = key
		}
	}

	if encryptionKey == "" {
		// Credentials would be stored in the clear; acceptable in
		// development only.
		log.Warn().Msg("SECRETS_ENCRYPTION_KEY not set, using NoOp encryptor")
		return encryption.NewNoOpEncryptor(), nil
	}

	return encryption.NewAESEncryptor(encryptionKey)
}

// setupRouter creates and configures the Gin engine.
func setupRouter(
	cfg *config.Config,
	cacheClient cache.Client,
	storeClient *mongodb.Client,
	tenantService tenant.Service,
	factory *helpdesk.Factory,
	messageRouter *router.Router,
	validator *teams.ActivityValidator,
	connector *teams.Connector,
) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	// Create middleware
	loggingMw := middleware.NewLoggingMiddleware()
	errorMw := middleware.NewErrorMiddleware()
	authMw := middleware.NewAuthMiddleware(cfg.Admin.ServiceKey)
	tenantMw := middleware.NewTenantMiddleware()

	// Create handlers
	healthHandler := handlers.NewHealthHandler(cacheClient, storeClient)
	activitiesHandler := handlers.NewActivitiesHandler(validator, messageRouter, connector)
	webhooksHandler := handlers.NewWebhooksHandler(&handlers.WebhooksHandlerConfig{
		Tenants:                tenantService,
		Factory:                factory,
		Router:                 messageRouter,
		RejectInvalidSignature: cfg.Webhook.RejectInvalidSignature,
	})
	tenantsHandler := handlers.NewTenantsHandler(tenantService)

	// Setup routes
	routesCfg := &routes.Config{
		HealthHandler:     healthHandler,
		ActivitiesHandler: activitiesHandler,
		WebhooksHandler:   webhooksHandler,
		TenantsHandler:    tenantsHandler,
		AuthMiddleware:    authMw,
		TenantMiddleware:  tenantMw,
		AdminCORSOrigins:  cfg.Admin.CORSOrigins,
	}

	routes.SetupWithMiddleware(engine, routesCfg, loggingMw, errorMw)

	// Swagger documentation endpoint
	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return engine
}
