// Package cache provides a small TTL key/value cache backed by an in-process
// LRU or Redis. It holds short-lived copies of data fetched from Shopify.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// CustomersKey identifies a cached customer page for a shop.
func CustomersKey(shop string, limit int) string {
	return fmt.Sprintf("shopify:customers:%s:%d", shop, limit)
}

// CustomersPrefix is shared by every CustomersKey of shop.
func CustomersPrefix(shop string) string {
	return fmt.Sprintf("shopify:customers:%s:", shop)
}

// GetJSON decodes the cached value at key into dst.
func GetJSON(ctx context.Context, p Provider, key string, dst any) error {
	raw, err := p.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		_ = p.Delete(ctx, key)
		return fmt.Errorf("%w: corrupt entry %s", ErrNotFound, key)
	}
	return nil
}

// SetJSON stores value at key encoded as JSON.
func SetJSON(ctx context.Context, p Provider, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return p.Set(ctx, key, string(raw), ttl)
}

// PrefixDeleter is implemented by providers that can drop a key range.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// Invalidate drops every key under prefix when p supports it.
func Invalidate(ctx context.Context, p Provider, prefix string) error {
	if d, ok := p.(PrefixDeleter); ok {
		return d.DeletePrefix(ctx, prefix)
	}
	return nil
}
