package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	scoped := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), scoped)
	FromContext(ctx, nil).Info("scoped")
	if !strings.Contains(buf.String(), "scoped") {
		t.Fatalf("expected scoped logger to be used, got %q", buf.String())
	}

	if FromContext(context.Background(), nil) == nil {
		t.Fatal("expected discard logger when nothing is configured")
	}
}

func TestErrorDetail(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("token exchange failed")
	err := fmt.Errorf("%w: status 400: {\"error\":\"bad code\"}", sentinel)

	tests := []struct {
		name     string
		verbose  bool
		contains string
		excludes string
	}{
		{name: "development keeps detail", verbose: true, contains: "bad code"},
		{name: "production keeps message only", verbose: false, contains: "token exchange failed", excludes: "bad code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{ReplaceAttr: ErrorDetail(tt.verbose)}))
			logger.Error("callback failed", "error", err, "shop", "acme.myshopify.com")

			out := buf.String()
			if !strings.Contains(out, tt.contains) {
				t.Fatalf("expected %q in %q", tt.contains, out)
			}
			if tt.excludes != "" && strings.Contains(out, tt.excludes) {
				t.Fatalf("did not expect %q in %q", tt.excludes, out)
			}
			if !strings.Contains(out, "acme.myshopify.com") {
				t.Fatalf("non-error attrs must pass through: %q", out)
			}
		})
	}
}

func TestMultiHandler(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	logger := slog.New(MultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		nil,
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)).With("component", "test")

	logger.Info("info line")
	logger.Warn("warn line")

	if !strings.Contains(a.String(), "info line") || !strings.Contains(a.String(), "warn line") {
		t.Fatalf("text sink missing lines: %q", a.String())
	}
	if strings.Contains(b.String(), "info line") || !strings.Contains(b.String(), `"component":"test"`) {
		t.Fatalf("json sink unexpected output: %q", b.String())
	}
}
