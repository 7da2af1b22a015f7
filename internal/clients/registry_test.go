package clients

import (
	"errors"
	"sync"
	"testing"

	"github.com/mailsmithapp/mailsmith/internal/completion"
	"github.com/mailsmithapp/mailsmith/internal/email"
	"github.com/mailsmithapp/mailsmith/internal/errs"
)

func TestRegistry_CompletionMemoized(t *testing.T) {
	t.Parallel()

	r := NewRegistry(Config{Completion: completion.Config{APIKey: "sk-test"}})

	var wg sync.WaitGroup
	got := make([]*completion.Client, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Completion()
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			got[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range got[1:] {
		if c != got[0] {
			t.Fatal("expected a single shared completion client")
		}
	}

	r.Reset()
	again, err := r.Completion()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again == got[0] {
		t.Fatal("expected Reset to force a new client")
	}
}

func TestRegistry_Disabled(t *testing.T) {
	t.Parallel()

	r := NewRegistry(Config{})

	if _, err := r.Completion(); !errors.Is(err, errs.ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
	if _, err := r.Mailer(); !errors.Is(err, errs.ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
}

func TestRegistry_Mailer(t *testing.T) {
	t.Parallel()

	r := NewRegistry(Config{Mail: email.Config{SMTPHost: "smtp.example.com", From: "shop@example.com"}})

	first, err := r.Mailer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Mailer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected memoized mailer")
	}
}
