package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil)
	if !errors.Is(err, errs.ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
}

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"{\"subject\":\"Hi\"}"}}]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, srv.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := client.Complete(context.Background(), Request{
		Messages:    []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}},
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.FirstContent() != `{"subject":"Hi"}` {
		t.Fatalf("unexpected content: %q", resp.FirstContent())
	}
	if got.Model != DefaultModel || got.Temperature != 0.7 || len(got.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestClient_CompleteAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL}, srv.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Complete(context.Background(), Request{})
	if !errors.Is(err, errs.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestResponse_FirstContentEmpty(t *testing.T) {
	t.Parallel()

	var nilResp *Response
	if nilResp.FirstContent() != "" {
		t.Fatal("expected empty content for nil response")
	}
	if (&Response{}).FirstContent() != "" {
		t.Fatal("expected empty content without choices")
	}
}
