package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"production" validate:"omitempty,oneof=development production test"`
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	EncryptionKey      string `env:"ENCRYPTION_KEY,required" validate:"required,min=32"`
	JWTSecret          string `env:"JWT_SECRET,required" validate:"required"`
	ShopifyStateSecret string `env:"SHOPIFY_STATE_SECRET"`

	ShopifyAPIKey      string   `env:"SHOPIFY_API_KEY"`
	ShopifyAPISecret   string   `env:"SHOPIFY_API_SECRET"`
	ShopifyRedirectURI string   `env:"SHOPIFY_REDIRECT_URI" validate:"omitempty,url"`
	ShopifyScopes      []string `env:"SHOPIFY_SCOPES" envSeparator:"," envDefault:"read_customers,read_orders"`
	ShopifyAPIVersion  string   `env:"SHOPIFY_API_VERSION" envDefault:"2024-10"`
	FrontendURL        string   `env:"FRONTEND_URL" validate:"omitempty,url"`

	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1" validate:"omitempty,url"`
	OpenAITimeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"60s"`

	MailProvider string `env:"MAIL_PROVIDER" validate:"omitempty,oneof=smtp resend"`
	MailFrom     string `env:"MAIL_FROM" validate:"omitempty,email"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587" validate:"omitempty,min=1,max=65535"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	ResendAPIKey string `env:"RESEND_API_KEY"`

	CacheProvider         string        `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string        `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`
	CustomerCacheTTL      time.Duration `env:"CUSTOMER_CACHE_TTL" envDefault:"5m"`

	RunMigrations       bool `env:"RUN_MIGRATIONS" envDefault:"true"`
	EncryptLegacyTokens bool `env:"ENCRYPT_LEGACY_TOKENS" envDefault:"false"`

	SentryDSN string     `env:"SENTRY_DSN"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	LogFile   string     `env:"LOG_FILE"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", errs.ErrConfiguration, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}

	return &cfg, nil
}

// IsDevelopment reports whether verbose error detail may be logged.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// StateSecret is the key for signing OAuth state, falling back to JWT_SECRET.
func (c *Config) StateSecret() string {
	if s := strings.TrimSpace(c.ShopifyStateSecret); s != "" {
		return s
	}
	return c.JWTSecret
}

// ShopifyEnabled reports whether the install flow can run.
func (c *Config) ShopifyEnabled() bool {
	return strings.TrimSpace(c.ShopifyAPIKey) != "" &&
		strings.TrimSpace(c.ShopifyAPISecret) != "" &&
		strings.TrimSpace(c.ShopifyRedirectURI) != ""
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	hasKey := strings.TrimSpace(c.ShopifyAPIKey) != ""
	hasSecret := strings.TrimSpace(c.ShopifyAPISecret) != ""
	if hasKey != hasSecret {
		return fmt.Errorf("SHOPIFY_API_KEY and SHOPIFY_API_SECRET must be set together")
	}
	if hasKey && strings.TrimSpace(c.ShopifyRedirectURI) == "" {
		return fmt.Errorf("SHOPIFY_REDIRECT_URI is required when Shopify credentials are set")
	}

	for _, check := range []struct {
		name  string
		value string
	}{
		{"SHOPIFY_REDIRECT_URI", c.ShopifyRedirectURI},
		{"FRONTEND_URL", c.FrontendURL},
	} {
		if err := requireHTTPSOutsideLocalhost(check.name, check.value); err != nil {
			return err
		}
	}

	return nil
}

func requireHTTPSOutsideLocalhost(name, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("%s must be a valid absolute URL", name)
	}
	if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("%s must use https outside local development", name)
	}
	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
