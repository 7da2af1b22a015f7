package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

// InstallPhase names the steps of an install attempt for logging.
type InstallPhase string

const (
	PhaseInstallRequested InstallPhase = "install_requested"
	PhaseAwaitingCallback InstallPhase = "awaiting_callback"
	PhaseTokenExchanged   InstallPhase = "token_exchanged"
	PhaseConnected        InstallPhase = "connected"
	PhaseRejected         InstallPhase = "rejected"
	PhaseExpired          InstallPhase = "expired"
	PhaseMismatchedShop   InstallPhase = "mismatched_shop"
	PhaseExchangeFailed   InstallPhase = "exchange_failed"
)

// OAuthConfig carries the app credentials registered with Shopify.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// Enabled reports whether every value needed for an install is present.
func (c OAuthConfig) Enabled() bool {
	return strings.TrimSpace(c.ClientID) != "" &&
		strings.TrimSpace(c.ClientSecret) != "" &&
		strings.TrimSpace(c.RedirectURI) != ""
}

// AccessToken is the result of a successful code exchange.
type AccessToken struct {
	Token string
	Scope string
}

// OAuthClient builds authorize URLs and exchanges codes for a given shop.
type OAuthClient struct {
	config     OAuthConfig
	httpClient *http.Client
}

func NewOAuthClient(config OAuthConfig, httpClient *http.Client) *OAuthClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthClient{config: config, httpClient: httpClient}
}

// Enabled reports whether install and exchange can run.
func (c *OAuthClient) Enabled() bool {
	return c != nil && c.config.Enabled()
}

func (c *OAuthClient) oauthConfig(shop string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		RedirectURL:  c.config.RedirectURI,
		// Shopify expects a single comma-separated scope value.
		Scopes: []string{strings.Join(c.config.Scopes, ",")},
		Endpoint: oauth2.Endpoint{
			AuthURL:   fmt.Sprintf("https://%s/admin/oauth/authorize", shop),
			TokenURL:  fmt.Sprintf("https://%s/admin/oauth/access_token", shop),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizeURL returns the consent URL on shop carrying state.
func (c *OAuthClient) AuthorizeURL(shop, state string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("%w: shopify oauth credentials are not configured", errs.ErrConfiguration)
	}
	return c.oauthConfig(shop).AuthCodeURL(state), nil
}

// Exchange trades an authorization code for an offline access token.
// Rejections by Shopify come back as *ExchangeError.
func (c *OAuthClient) Exchange(ctx context.Context, shop, code string) (*AccessToken, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: shopify oauth credentials are not configured", errs.ErrConfiguration)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauthConfig(shop).Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &ExchangeError{
				Status: retrieveErr.Response.StatusCode,
				Body:   truncateBody(string(retrieveErr.Body)),
			}
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrExchangeFailed, err)
	}

	scope, _ := token.Extra("scope").(string)
	return &AccessToken{Token: token.AccessToken, Scope: scope}, nil
}

const maxExchangeBody = 2048

// ExchangeError is a code exchange Shopify answered with a non-2xx status.
// Body is for server-side logs only.
type ExchangeError struct {
	Status int
	Body   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", errs.ErrExchangeFailed, e.Status, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return errs.ErrExchangeFailed
}

func truncateBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > maxExchangeBody {
		return body[:maxExchangeBody]
	}
	return body
}
