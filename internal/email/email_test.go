package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  Config
		want    string
		wantErr error
	}{
		{name: "nothing configured", config: Config{}, wantErr: errs.ErrFeatureDisabled},
		{name: "smtp inferred", config: Config{SMTPHost: "smtp.example.com", From: "shop@example.com"}, want: "smtp"},
		{name: "resend inferred", config: Config{APIKey: "re_123", From: "shop@example.com"}, want: "resend"},
		{name: "missing from", config: Config{SMTPHost: "smtp.example.com"}, wantErr: errs.ErrFeatureDisabled},
		{name: "resend without key", config: Config{Provider: "resend", From: "shop@example.com"}, wantErr: errs.ErrFeatureDisabled},
		{name: "unknown provider", config: Config{Provider: "pigeon", From: "shop@example.com"}, wantErr: errs.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider, err := NewProvider(tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch tt.want {
			case "smtp":
				if _, ok := provider.(*SMTPProvider); !ok {
					t.Fatalf("expected SMTP provider, got %T", provider)
				}
			case "resend":
				if _, ok := provider.(*ResendProvider); !ok {
					t.Fatalf("expected Resend provider, got %T", provider)
				}
			}
		})
	}
}

func TestSMTPProvider_Message(t *testing.T) {
	t.Parallel()

	provider, err := NewSMTPProvider(SMTPConfig{Host: "smtp.example.com", From: "shop@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, err := provider.message(&Email{
		To:      "ada@example.com",
		Subject: "Welcome Ada",
		Text:    "Hi Ada",
		HTML:    "<p>Hi Ada</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Welcome Ada", "ada@example.com", "shop@example.com", "text/plain", "text/html"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestSMTPProvider_MessageValidation(t *testing.T) {
	t.Parallel()

	provider, err := NewSMTPProvider(SMTPConfig{Host: "smtp.example.com", From: "shop@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, in := range map[string]*Email{
		"nil":          nil,
		"no recipient": {Subject: "s", Text: "t"},
		"no body":      {To: "ada@example.com", Subject: "s"},
		"bad address":  {To: "not an address", Subject: "s", Text: "t"},
	} {
		if _, err := provider.message(in); !errors.Is(err, errs.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestResendProvider_SendEmail(t *testing.T) {
	t.Parallel()

	var sent map[string]any
	provider := NewResendProviderWithClient(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/emails" {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			body, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(body, &sent)
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(`{"id":"email_123"}`)),
			}, nil
		}),
	}, "re_test", "shop@example.com")

	err := provider.SendEmail(context.Background(), &Email{
		To:      "ada@example.com",
		Subject: "Welcome Ada",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent["from"] != "shop@example.com" || sent["subject"] != "Welcome Ada" {
		t.Fatalf("unexpected payload: %v", sent)
	}
}

func TestResendProvider_SendEmailFailure(t *testing.T) {
	t.Parallel()

	provider := NewResendProviderWithClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: timeout")
		}),
	}, "re_test", "shop@example.com")

	err := provider.SendEmail(context.Background(), &Email{To: "ada@example.com", Subject: "s", Text: "t"})
	if !errors.Is(err, errs.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}
