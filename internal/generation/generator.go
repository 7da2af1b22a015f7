package generation

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/mailsmithapp/mailsmith/internal/completion"
	"github.com/mailsmithapp/mailsmith/internal/logging"
)

const temperature = 0.7

// ChatClient is the completion capability the generator needs.
type ChatClient interface {
	Complete(ctx context.Context, req completion.Request) (*completion.Response, error)
}

// ClientSource resolves the chat client at call time so an unconfigured
// integration fails the request rather than startup.
type ClientSource func() (ChatClient, error)

// Request is the input to one generation.
type Request struct {
	BrandVoice *BrandVoiceContext
	Campaign   CampaignContext
	Blueprint  BlueprintContext
	Customer   *CustomerProfile
}

type Generator struct {
	clients ClientSource
	model   string
	logger  *slog.Logger
}

// NewGenerator returns a generator. An empty model defers to the client's default.
func NewGenerator(clients ClientSource, model string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{clients: clients, model: model, logger: logger}
}

// Generate produces an email for req. Every failure is a *GenerationError.
func (g *Generator) Generate(ctx context.Context, req Request) (GeneratedEmail, error) {
	logger := logging.FromContext(ctx, g.logger)

	email, kind, err := g.generate(ctx, req)
	if err != nil {
		logger.Error("email generation failed",
			"kind", string(kind),
			"campaign", req.Campaign.Name,
			"error", err,
		)
		return GeneratedEmail{}, &GenerationError{Kind: kind, Err: err}
	}
	return email, nil
}

func (g *Generator) generate(ctx context.Context, req Request) (GeneratedEmail, FailureKind, error) {
	if g.clients == nil {
		return GeneratedEmail{}, KindConfiguration, errNoClientSource
	}
	client, err := g.clients()
	if err != nil {
		return GeneratedEmail{}, KindConfiguration, err
	}

	prompts, err := BuildPrompts(req.BrandVoice, req.Campaign, req.Blueprint, MergeCustomer(req.Customer))
	if err != nil {
		return GeneratedEmail{}, KindConfiguration, err
	}

	resp, err := client.Complete(ctx, completion.Request{
		Model: g.model,
		Messages: []completion.Message{
			{Role: "system", Content: prompts.System},
			{Role: "user", Content: prompts.User},
		},
		Temperature: temperature,
	})
	if err != nil {
		return GeneratedEmail{}, KindNetwork, err
	}

	content := resp.FirstContent()
	if strings.TrimSpace(content) == "" {
		return GeneratedEmail{}, KindEmptyResponse, errEmptyResponse
	}

	email, err := ParseModelResponse(content)
	if err != nil {
		return GeneratedEmail{}, KindParsing, err
	}
	return email, nil
}
