package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/mailsmithapp/mailsmith/internal/auth"
	"github.com/mailsmithapp/mailsmith/internal/config"
	"github.com/mailsmithapp/mailsmith/internal/logging"
	"github.com/mailsmithapp/mailsmith/internal/models"
	"github.com/mailsmithapp/mailsmith/internal/services"
	"github.com/mailsmithapp/mailsmith/internal/shopify"
)

const maxJSONBodyBytes = 1 << 20 // 1 MB

type ShopifyService interface {
	StartInstall(ctx context.Context, userID, rawShop string) (string, error)
	CompleteCallback(ctx context.Context, query url.Values) (services.CallbackResult, error)
	ListStores(ctx context.Context, userID string) ([]*models.StoreCredential, error)
	Disconnect(ctx context.Context, userID, shop string) error
	Reconnect(ctx context.Context, userID, shop string) error
	FetchCustomers(ctx context.Context, userID, shop string, limit int) ([]shopify.Customer, error)
}

type EmailService interface {
	GenerateForCampaign(ctx context.Context, userID string, in services.GenerateInput) (*models.Email, error)
	Send(ctx context.Context, userID string, emailID uuid.UUID, to string) (*models.Email, error)
	List(ctx context.Context, userID string, limit int) ([]*models.Email, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers provides the HTTP API.
type Handlers struct {
	config   *config.Config
	db       Pinger
	shopify  ShopifyService
	emails   EmailService
	verifier *auth.Verifier
	logger   *slog.Logger
}

type Dependencies struct {
	Config   *config.Config
	DB       Pinger
	Shopify  ShopifyService
	Emails   EmailService
	Verifier *auth.Verifier
	Logger   *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.Shopify == nil {
		return nil, fmt.Errorf("handlers dependencies: shopify service is required")
	}
	if deps.Emails == nil {
		return nil, fmt.Errorf("handlers dependencies: email service is required")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("handlers dependencies: verifier is required")
	}

	return &Handlers{
		config:   deps.Config,
		db:       deps.DB,
		shopify:  deps.Shopify,
		emails:   deps.Emails,
		verifier: deps.Verifier,
		logger:   logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"message": "Database unhealthy",
		})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"success": true,
		"status":  "healthy",
	})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	return decoder.Decode(dst)
}
