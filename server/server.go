package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"

	"github.com/mailsmithapp/mailsmith/internal/config"
	"github.com/mailsmithapp/mailsmith/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           sentryHandler.Handle(router),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.CORS)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Not found"}`))
	})

	// Shopify redirects the merchant here; HMAC and state authenticate it.
	r.HandleFunc("/api/shopify/callback", h.ShopifyCallback).Methods("GET").Name("shopify.callback")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.RequireUser)
	api.Use(h.MetricsContext)
	api.Use(h.RequireKnownOrigin)
	api.HandleFunc("/shopify/install", h.ShopifyInstall).Methods("POST", "OPTIONS").Name("shopify.install")
	api.HandleFunc("/shopify/stores", h.ShopifyStores).Methods("GET", "OPTIONS").Name("shopify.stores")
	api.HandleFunc("/shopify/stores/{shop}/disconnect", h.ShopifyDisconnect).Methods("POST", "OPTIONS").Name("shopify.stores.disconnect")
	api.HandleFunc("/shopify/stores/{shop}/reconnect", h.ShopifyReconnect).Methods("POST", "OPTIONS").Name("shopify.stores.reconnect")
	api.HandleFunc("/shopify/stores/{shop}/customers", h.ShopifyCustomers).Methods("GET", "OPTIONS").Name("shopify.stores.customers")
	api.HandleFunc("/emails", h.ListEmails).Methods("GET", "OPTIONS").Name("emails.list")
	api.HandleFunc("/emails/generate", h.GenerateEmail).Methods("POST", "OPTIONS").Name("emails.generate")
	api.HandleFunc("/emails/{id}/send", h.SendEmail).Methods("POST", "OPTIONS").Name("emails.send")

	return r
}
