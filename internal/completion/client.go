// Package completion is a minimal client for OpenAI-compatible chat
// completion endpoints.
package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type Choice struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// FirstContent returns the first choice's message content, or "" when the
// response has no choices.
func (r *Response) FirstContent() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client posts chat completion requests.
type Client struct {
	http  *resty.Client
	model string
}

// New builds a client. It returns errs.ErrFeatureDisabled when no API key
// is configured.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: completion api key is not set", errs.ErrFeatureDisabled)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	rc := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "mailsmith/1.0")

	return &Client{http: rc, model: cfg.Model}, nil
}

// Complete sends req and decodes the response. Transport failures and
// non-2xx responses are reported as errs.ErrNetwork.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	var result Response
	var failure apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%w: completion request failed: %v", errs.ErrNetwork, err)
	}
	if resp.IsError() {
		detail := failure.Error.Message
		if detail == "" {
			detail = strings.TrimSpace(resp.String())
		}
		return nil, fmt.Errorf("%w: completion api returned status %d: %s", errs.ErrNetwork, resp.StatusCode(), detail)
	}

	return &result, nil
}
