package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/getsentry/sentry-go/attribute"

	"github.com/mailsmithapp/mailsmith/internal/cache"
	"github.com/mailsmithapp/mailsmith/internal/db"
	"github.com/mailsmithapp/mailsmith/internal/errs"
	"github.com/mailsmithapp/mailsmith/internal/logging"
	"github.com/mailsmithapp/mailsmith/internal/models"
	"github.com/mailsmithapp/mailsmith/internal/observability"
	"github.com/mailsmithapp/mailsmith/internal/shopify"
)

const defaultCustomerCacheTTL = 5 * time.Minute

var (
	ErrMissingParams   = fmt.Errorf("%w: missing required parameters", errs.ErrInvalidInput)
	ErrInvalidCallback = fmt.Errorf("%w: invalid or expired authorization", errs.ErrAuthentication)
	ErrStoreNotOwned   = fmt.Errorf("%w: store", errs.ErrNotFound)
)

// CredentialStore is the persistence the install flow needs.
type CredentialStore interface {
	Upsert(ctx context.Context, in db.UpsertInput) (*models.StoreCredential, error)
	GetByShop(ctx context.Context, shop string) (*models.StoreCredential, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.StoreCredential, error)
	SetActive(ctx context.Context, userID, shop string, active bool) error
	AccessToken(cred *models.StoreCredential) (string, error)
}

type CustomerLister interface {
	ListCustomers(ctx context.Context, shop, accessToken string, limit int) ([]shopify.Customer, error)
}

type ShopifyAuthConfig struct {
	APISecret        string
	CustomerCacheTTL time.Duration
}

type ShopifyAuthService struct {
	config      ShopifyAuthConfig
	oauth       *shopify.OAuthClient
	states      *shopify.StateSigner
	credentials CredentialStore
	customers   CustomerLister
	cache       cache.Provider
	logger      *slog.Logger
}

func NewShopifyAuthService(
	config ShopifyAuthConfig,
	oauth *shopify.OAuthClient,
	states *shopify.StateSigner,
	credentials CredentialStore,
	customers CustomerLister,
	cacheProvider cache.Provider,
	logger *slog.Logger,
) *ShopifyAuthService {
	if config.CustomerCacheTTL <= 0 {
		config.CustomerCacheTTL = defaultCustomerCacheTTL
	}
	return &ShopifyAuthService{
		config:      config,
		oauth:       oauth,
		states:      states,
		credentials: credentials,
		customers:   customers,
		cache:       cacheProvider,
		logger:      logging.FromContext(context.Background(), logger).With("component", "shopify_auth"),
	}
}

func (s *ShopifyAuthService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *ShopifyAuthService) ready() error {
	if s == nil || s.oauth == nil || !s.oauth.Enabled() || s.config.APISecret == "" {
		return fmt.Errorf("%w: shopify app credentials are not configured", errs.ErrConfiguration)
	}
	if s.states == nil || s.credentials == nil {
		return fmt.Errorf("%w: shopify auth dependencies are not configured", errs.ErrConfiguration)
	}
	return nil
}

// StartInstall validates the shop and returns the Shopify authorize URL
// carrying a freshly signed state. No network call is made.
func (s *ShopifyAuthService) StartInstall(ctx context.Context, userID, rawShop string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: user id is required", errs.ErrAuthentication)
	}
	shop, err := shopify.NormalizeShopDomain(rawShop)
	if err != nil {
		return "", err
	}
	if err := s.ready(); err != nil {
		return "", err
	}

	state, err := s.states.Create(userID, shop)
	if err != nil {
		return "", err
	}
	installURL, err := s.oauth.AuthorizeURL(shop, state)
	if err != nil {
		return "", err
	}

	s.loggerFromContext(ctx).Info("shopify install requested",
		"phase", shopify.PhaseAwaitingCallback,
		"shop", shop,
	)
	observability.CountOutcome(ctx, "shopify.install", string(shopify.PhaseInstallRequested), attribute.String("shop", shop))
	return installURL, nil
}

// CallbackResult describes a store connected by CompleteCallback.
type CallbackResult struct {
	Shop  string
	Scope string
}

// CompleteCallback runs the callback gates in order: required parameters,
// HMAC, state, shop match, code exchange. Only then is the credential
// stored. Authentication failures all surface as ErrInvalidCallback.
func (s *ShopifyAuthService) CompleteCallback(ctx context.Context, query url.Values) (CallbackResult, error) {
	result := CallbackResult{}
	logger := s.loggerFromContext(ctx)

	code := strings.TrimSpace(query.Get("code"))
	rawShop := strings.TrimSpace(query.Get("shop"))
	rawState := strings.TrimSpace(query.Get("state"))
	if code == "" || rawShop == "" || rawState == "" {
		return result, ErrMissingParams
	}
	if err := s.ready(); err != nil {
		return result, err
	}

	reject := func(phase shopify.InstallPhase, reason string) (CallbackResult, error) {
		logger.Warn("shopify callback rejected", "phase", phase, "reason", reason, "shop", rawShop)
		observability.CountOutcome(ctx, "shopify.callback", string(phase))
		return result, ErrInvalidCallback
	}

	if !shopify.VerifyCallbackSignature(query, s.config.APISecret) {
		return reject(shopify.PhaseRejected, "hmac mismatch")
	}

	state, ok := s.states.Decode(rawState)
	if !ok {
		return reject(shopify.PhaseExpired, "state invalid or expired")
	}

	shop, err := shopify.NormalizeShopDomain(rawShop)
	if err != nil || shop != state.Shop {
		return reject(shopify.PhaseMismatchedShop, "shop does not match state")
	}

	token, err := s.oauth.Exchange(ctx, shop, code)
	if err != nil {
		attrs := []any{"phase", shopify.PhaseExchangeFailed, "shop", shop, "error", err}
		var exchangeErr *shopify.ExchangeError
		if errors.As(err, &exchangeErr) {
			attrs = append(attrs, "status", exchangeErr.Status, "response_body", exchangeErr.Body)
		}
		logger.Error("shopify token exchange failed", attrs...)
		observability.CountOutcome(ctx, "shopify.callback", string(shopify.PhaseExchangeFailed))
		return result, err
	}
	logger.Debug("shopify token exchanged", "phase", shopify.PhaseTokenExchanged, "shop", shop, "scope", token.Scope)

	cred, err := s.credentials.Upsert(ctx, db.UpsertInput{
		ShopDomain:  shop,
		OwnerUserID: state.UserID,
		AccessToken: token.Token,
		Scope:       token.Scope,
	})
	if err != nil {
		return result, fmt.Errorf("failed to store credential: %w", err)
	}

	if s.cache != nil {
		if err := cache.Invalidate(ctx, s.cache, cache.CustomersPrefix(shop)); err != nil {
			logger.Warn("failed to invalidate customer cache", "shop", shop, "error", err)
		}
	}

	logger.Info("shopify store connected", "phase", shopify.PhaseConnected, "shop", shop)
	observability.CountOutcome(ctx, "shopify.callback", string(shopify.PhaseConnected), attribute.String("shop", shop))

	result.Shop = cred.ShopDomain
	result.Scope = cred.Scope
	return result, nil
}

func (s *ShopifyAuthService) ListStores(ctx context.Context, userID string) ([]*models.StoreCredential, error) {
	if s == nil || s.credentials == nil {
		return nil, fmt.Errorf("%w: store credentials are not configured", errs.ErrConfiguration)
	}
	stores, err := s.credentials.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	if stores == nil {
		stores = []*models.StoreCredential{}
	}
	return stores, nil
}

// Disconnect marks the store inactive. The row and its token are kept so a
// later Reconnect does not require a new install.
func (s *ShopifyAuthService) Disconnect(ctx context.Context, userID, rawShop string) error {
	return s.setActive(ctx, userID, rawShop, false)
}

func (s *ShopifyAuthService) Reconnect(ctx context.Context, userID, rawShop string) error {
	return s.setActive(ctx, userID, rawShop, true)
}

func (s *ShopifyAuthService) setActive(ctx context.Context, userID, rawShop string, active bool) error {
	if s == nil || s.credentials == nil {
		return fmt.Errorf("%w: store credentials are not configured", errs.ErrConfiguration)
	}
	shop, err := shopify.NormalizeShopDomain(rawShop)
	if err != nil {
		return err
	}
	if err := s.credentials.SetActive(ctx, userID, shop, active); err != nil {
		return err
	}

	if s.cache != nil {
		if err := cache.Invalidate(ctx, s.cache, cache.CustomersPrefix(shop)); err != nil {
			s.loggerFromContext(ctx).Warn("failed to invalidate customer cache", "shop", shop, "error", err)
		}
	}

	outcome := "disconnected"
	if active {
		outcome = "reconnected"
	}
	s.loggerFromContext(ctx).Info("shopify store "+outcome, "shop", shop)
	observability.CountOutcome(ctx, "shopify.store", outcome)
	return nil
}

// FetchCustomers lists customers of a store owned by userID. Pages are
// cached per shop and limit.
func (s *ShopifyAuthService) FetchCustomers(ctx context.Context, userID, rawShop string, limit int) ([]shopify.Customer, error) {
	if s == nil || s.credentials == nil || s.customers == nil {
		return nil, fmt.Errorf("%w: shopify customers are not configured", errs.ErrConfiguration)
	}
	shop, err := shopify.NormalizeShopDomain(rawShop)
	if err != nil {
		return nil, err
	}

	cred, err := s.credentials.GetByShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	if !cred.OwnedBy(userID) {
		return nil, ErrStoreNotOwned
	}
	if !cred.IsConnected() {
		return nil, fmt.Errorf("%w: store is disconnected", errs.ErrNotFound)
	}

	limit = shopify.CustomerLimit(limit)
	key := cache.CustomersKey(shop, limit)
	if s.cache != nil {
		var cached []shopify.Customer
		if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
			observability.CountOutcome(ctx, "shopify.customers", "cache_hit")
			return cached, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			s.loggerFromContext(ctx).Warn("customer cache read failed", "shop", shop, "error", err)
		}
	}

	token, err := s.credentials.AccessToken(cred)
	if err != nil {
		return nil, err
	}

	customers, err := s.customers.ListCustomers(ctx, shop, token, limit)
	if err != nil {
		observability.CountOutcome(ctx, "shopify.customers", "error")
		return nil, err
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, customers, s.config.CustomerCacheTTL); err != nil {
			s.loggerFromContext(ctx).Warn("customer cache write failed", "shop", shop, "error", err)
		}
	}
	observability.CountOutcome(ctx, "shopify.customers", "fetched")
	return customers, nil
}
