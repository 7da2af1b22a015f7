package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProvider_Expiry(t *testing.T) {
	t.Parallel()

	p, err := NewMemoryProvider()
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	ctx := context.Background()
	if err := p.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := p.Get(ctx, "k"); err != nil || got != "v" {
		t.Fatalf("get = %q, %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestInvalidatePrefix(t *testing.T) {
	t.Parallel()

	p, err := NewMemoryProvider()
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	ctx := context.Background()

	_ = p.Set(ctx, CustomersKey("a.myshopify.com", 10), "[]", time.Hour)
	_ = p.Set(ctx, CustomersKey("a.myshopify.com", 50), "[]", time.Hour)
	_ = p.Set(ctx, CustomersKey("b.myshopify.com", 10), "[]", time.Hour)

	if err := Invalidate(ctx, p, CustomersPrefix("a.myshopify.com")); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, err := p.Get(ctx, CustomersKey("a.myshopify.com", 10)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a/10 evicted, got %v", err)
	}
	if _, err := p.Get(ctx, CustomersKey("a.myshopify.com", 50)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a/50 evicted, got %v", err)
	}
	if _, err := p.Get(ctx, CustomersKey("b.myshopify.com", 10)); err != nil {
		t.Fatalf("expected b/10 kept, got %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	p, err := NewMemoryProvider()
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	ctx := context.Background()

	type entry struct {
		Name string `json:"name"`
	}
	if err := SetJSON(ctx, p, "k", []entry{{Name: "Ada"}}, time.Hour); err != nil {
		t.Fatalf("set json: %v", err)
	}
	var got []entry
	if err := GetJSON(ctx, p, "k", &got); err != nil {
		t.Fatalf("get json: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ada" {
		t.Fatalf("unexpected value: %+v", got)
	}

	_ = p.Set(ctx, "bad", "{not json", time.Hour)
	if err := GetJSON(ctx, p, "bad", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected corrupt entry to read as miss, got %v", err)
	}
	if _, err := p.Get(ctx, "bad"); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected corrupt entry to be removed")
	}
}

func TestNewProvider_Unsupported(t *testing.T) {
	t.Parallel()

	if _, err := NewProvider(Config{Provider: "memcached"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
