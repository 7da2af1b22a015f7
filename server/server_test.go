package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mailsmithapp/mailsmith/internal/auth"
	"github.com/mailsmithapp/mailsmith/internal/config"
	"github.com/mailsmithapp/mailsmith/internal/handlers"
	"github.com/mailsmithapp/mailsmith/internal/models"
	"github.com/mailsmithapp/mailsmith/internal/services"
	"github.com/mailsmithapp/mailsmith/internal/shopify"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type stubShopify struct{}

func (stubShopify) StartInstall(context.Context, string, string) (string, error) {
	return "https://acme.myshopify.com/admin/oauth/authorize", nil
}

func (stubShopify) CompleteCallback(context.Context, url.Values) (services.CallbackResult, error) {
	return services.CallbackResult{}, services.ErrMissingParams
}

func (stubShopify) ListStores(context.Context, string) ([]*models.StoreCredential, error) {
	return []*models.StoreCredential{}, nil
}

func (stubShopify) Disconnect(context.Context, string, string) error { return nil }

func (stubShopify) Reconnect(context.Context, string, string) error { return nil }

func (stubShopify) FetchCustomers(context.Context, string, string, int) ([]shopify.Customer, error) {
	return nil, nil
}

type stubEmails struct{}

func (stubEmails) GenerateForCampaign(context.Context, string, services.GenerateInput) (*models.Email, error) {
	return &models.Email{}, nil
}

func (stubEmails) Send(context.Context, string, uuid.UUID, string) (*models.Email, error) {
	return &models.Email{}, nil
}

func (stubEmails) List(context.Context, string, int) ([]*models.Email, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *auth.Verifier) {
	t.Helper()

	cfg := &config.Config{Port: "0", FrontendURL: "https://app.example.com"}
	verifier, err := auth.NewVerifier("server-test-secret")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	h, err := handlers.New(handlers.Dependencies{
		Config:   cfg,
		DB:       okPinger{},
		Shopify:  stubShopify{},
		Emails:   stubEmails{},
		Verifier: verifier,
	})
	if err != nil {
		t.Fatalf("handlers.New: %v", err)
	}
	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), h)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, verifier
}

func TestRouter(t *testing.T) {
	t.Parallel()

	srv, verifier := newTestServer(t)
	token, err := verifier.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	router := srv.buildRouter()

	tests := []struct {
		name   string
		method string
		path   string
		bearer bool
		origin string
		want   int
	}{
		{name: "health", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "stores without token", method: http.MethodGet, path: "/api/shopify/stores", want: http.StatusUnauthorized},
		{name: "stores with token", method: http.MethodGet, path: "/api/shopify/stores", bearer: true, want: http.StatusOK},
		{name: "callback is public", method: http.MethodGet, path: "/api/shopify/callback", want: http.StatusBadRequest},
		{name: "preflight", method: http.MethodOptions, path: "/api/emails/generate", origin: "https://app.example.com", want: http.StatusNoContent},
		{name: "cross origin post", method: http.MethodPost, path: "/api/shopify/stores/acme/disconnect", bearer: true, origin: "https://evil.example", want: http.StatusForbidden},
		{name: "unknown route", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "https://api.example.com"+tt.path, nil)
			if tt.bearer {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
