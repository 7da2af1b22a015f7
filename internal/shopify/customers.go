package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

const (
	DefaultCustomerLimit = 50
	maxCustomerLimit     = 250
)

// CustomerLimit maps a requested page size onto what Shopify serves: the
// default when unset, capped at the REST maximum.
func CustomerLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultCustomerLimit
	case limit > maxCustomerLimit:
		return maxCustomerLimit
	default:
		return limit
	}
}

// Customer is the subset of a Shopify customer used to personalize emails.
type Customer struct {
	ID          uint64   `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	OrdersCount int      `json:"ordersCount"`
	TotalSpent  string   `json:"totalSpent"`
	Tags        []string `json:"tags"`
}

// AdminClient reads store data through the Admin REST API.
type AdminClient struct {
	app        goshopify.App
	apiVersion string
	httpClient *http.Client
}

func NewAdminClient(config OAuthConfig, apiVersion string, httpClient *http.Client) *AdminClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AdminClient{
		app: goshopify.App{
			ApiKey:      config.ClientID,
			ApiSecret:   config.ClientSecret,
			RedirectUrl: config.RedirectURI,
			Scope:       strings.Join(config.Scopes, ","),
		},
		apiVersion: apiVersion,
		httpClient: httpClient,
	}
}

// ListCustomers returns up to limit customers of shop. The access token
// must already be decrypted and is never logged.
func (c *AdminClient) ListCustomers(ctx context.Context, shop, accessToken string, limit int) ([]Customer, error) {
	limit = CustomerLimit(limit)

	opts := []goshopify.Option{goshopify.WithHTTPClient(c.httpClient)}
	if c.apiVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.apiVersion))
	}

	client, err := goshopify.NewClient(c.app, shop, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create shopify client: %w", err)
	}

	raw, err := client.Customer.List(ctx, goshopify.ListOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list customers: %v", errs.ErrNetwork, err)
	}

	customers := make([]Customer, 0, len(raw))
	for _, rc := range raw {
		customers = append(customers, toCustomer(rc))
	}
	return customers, nil
}

func toCustomer(rc goshopify.Customer) Customer {
	customer := Customer{
		ID:          rc.Id,
		FirstName:   rc.FirstName,
		LastName:    rc.LastName,
		Email:       rc.Email,
		OrdersCount: rc.OrdersCount,
		TotalSpent:  "0.00",
		Tags:        splitTags(rc.Tags),
	}
	if rc.TotalSpent != nil {
		customer.TotalSpent = rc.TotalSpent.StringFixed(2)
	}
	return customer
}

func splitTags(tags string) []string {
	out := []string{}
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
