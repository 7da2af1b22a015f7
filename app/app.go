package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/mailsmithapp/mailsmith/internal/auth"
	"github.com/mailsmithapp/mailsmith/internal/cache"
	"github.com/mailsmithapp/mailsmith/internal/clients"
	"github.com/mailsmithapp/mailsmith/internal/completion"
	"github.com/mailsmithapp/mailsmith/internal/config"
	"github.com/mailsmithapp/mailsmith/internal/crypto"
	"github.com/mailsmithapp/mailsmith/internal/db"
	"github.com/mailsmithapp/mailsmith/internal/email"
	"github.com/mailsmithapp/mailsmith/internal/generation"
	"github.com/mailsmithapp/mailsmith/internal/handlers"
	"github.com/mailsmithapp/mailsmith/internal/logging"
	"github.com/mailsmithapp/mailsmith/internal/migrate"
	"github.com/mailsmithapp/mailsmith/internal/observability"
	"github.com/mailsmithapp/mailsmith/internal/services"
	"github.com/mailsmithapp/mailsmith/internal/shopify"
)

const shopifyHTTPTimeout = 30 * time.Second

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Clients       *clients.Registry
	Handlers      *handlers.Handlers

	logFile io.Closer
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.AppEnv,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			logger.Warn("failed to initialize sentry", "error", err)
		}
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	if cfg.RunMigrations {
		if err := migrate.Up(startupCtx, cfg.DatabaseURL); err != nil {
			closeLogFile(logFile)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		closeLogFile(logFile)
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		closeLogFile(logFile)
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		closeLogFile(logFile)
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	credentialStore, err := db.NewStoreCredentialStore(database, encryptor)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		closeLogFile(logFile)
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	if cfg.EncryptLegacyTokens {
		updated, err := credentialStore.EncryptLegacyTokens(startupCtx, logger.With("component", "token_backfill"))
		if err != nil {
			closeCacheProvider(logger, cacheProvider)
			database.Close()
			closeLogFile(logFile)
			return nil, fmt.Errorf("failed to encrypt legacy tokens: %w", err)
		}
		logger.Info("legacy token encryption finished", "updated", updated)
	}

	states, err := shopify.NewStateSigner(cfg.StateSecret())
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		closeLogFile(logFile)
		return nil, err
	}
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		closeLogFile(logFile)
		return nil, err
	}

	shopifyConfig := shopify.OAuthConfig{
		ClientID:     cfg.ShopifyAPIKey,
		ClientSecret: cfg.ShopifyAPISecret,
		RedirectURI:  cfg.ShopifyRedirectURI,
		Scopes:       cfg.ShopifyScopes,
	}
	if !cfg.ShopifyEnabled() {
		logger.Warn("shopify app credentials not configured; install flow disabled")
	}
	shopifyHTTP := observability.NewHTTPClient(shopifyHTTPTimeout)
	shopifyService := services.NewShopifyAuthService(
		services.ShopifyAuthConfig{
			APISecret:        cfg.ShopifyAPISecret,
			CustomerCacheTTL: cfg.CustomerCacheTTL,
		},
		shopify.NewOAuthClient(shopifyConfig, shopifyHTTP),
		states,
		credentialStore,
		shopify.NewAdminClient(shopifyConfig, cfg.ShopifyAPIVersion, shopifyHTTP),
		cacheProvider,
		logger,
	)

	registry := clients.NewRegistry(clients.Config{
		Completion: completion.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
		},
		Mail: email.Config{
			Provider: cfg.MailProvider,
			From:     cfg.MailFrom,
			APIKey:   cfg.ResendAPIKey,
			SMTPHost: cfg.SMTPHost,
			SMTPPort: cfg.SMTPPort,
			SMTPUser: cfg.SMTPUser,
			SMTPPass: cfg.SMTPPass,
		},
		HTTPClient: observability.NewHTTPClient(cfg.OpenAITimeout),
	})
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; email generation disabled")
	}

	generator := generation.NewGenerator(completionSource(registry), cfg.OpenAIModel, logger.With("component", "generator"))
	emailService := services.NewEmailService(services.EmailServiceDeps{
		BrandVoices: db.NewBrandVoiceStore(database),
		Campaigns:   db.NewCampaignStore(database),
		Blueprints:  db.NewBlueprintStore(database),
		Emails:      db.NewEmailStore(database),
		Generator:   generator,
		Mailer:      registry.Mailer,
	}, logger)

	h, err := handlers.New(handlers.Dependencies{
		Config:   cfg,
		DB:       database,
		Shopify:  shopifyService,
		Emails:   emailService,
		Verifier: verifier,
		Logger:   logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		closeLogFile(logFile)
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Clients:       registry,
		Handlers:      h,
		logFile:       logFile,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	sentry.Flush(2 * time.Second)
	closeLogFile(a.logFile)
}

// completionSource adapts the registry to the generator. The nil check keeps
// a nil *completion.Client out of the interface.
func completionSource(registry *clients.Registry) generation.ClientSource {
	return func() (generation.ChatClient, error) {
		client, err := registry.Completion()
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// newLogger builds the console logger and, with LOG_FILE set, a JSON file
// sink alongside it. Error values keep their wrapped causes only in
// development.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	replace := logging.ErrorDetail(cfg.IsDevelopment())

	var console slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:       cfg.LogLevel,
			ReplaceAttr: replace,
		})
	default:
		console = tint.NewHandler(os.Stdout, &tint.Options{
			Level:       cfg.LogLevel,
			ReplaceAttr: replace,
		})
	}

	if cfg.LogFile == "" {
		return slog.New(console), nil, nil
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: replace,
	})
	return slog.New(logging.MultiHandler(console, fileHandler)), file, nil
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}

func closeLogFile(file io.Closer) {
	if file == nil {
		return
	}
	_ = file.Close()
}
