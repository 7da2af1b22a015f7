// Package shopify implements the merchant-facing half of the Shopify
// integration: shop domain handling, OAuth callback signature checks,
// signed install state, code exchange and customer lookups.
package shopify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

const domainSuffix = ".myshopify.com"

var (
	// ErrInvalidShop is returned for shop names that are not a myshopify.com domain.
	ErrInvalidShop = fmt.Errorf("%w: invalid shop domain", errs.ErrInvalidInput)

	shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)
)

// NormalizeShopDomain turns merchant input such as "acme", "Acme.myshopify.com"
// or "https://acme.myshopify.com/admin" into "acme.myshopify.com".
func NormalizeShopDomain(raw string) (string, error) {
	shop := strings.ToLower(strings.TrimSpace(raw))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	if i := strings.IndexAny(shop, "/?#"); i >= 0 {
		shop = shop[:i]
	}
	if shop == "" {
		return "", ErrInvalidShop
	}
	if !strings.Contains(shop, ".") {
		shop += domainSuffix
	}
	if !validShopDomain(shop) {
		return "", ErrInvalidShop
	}
	return shop, nil
}

// validShopDomain reports whether shop is an already-normalized myshopify.com domain.
func validShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}
