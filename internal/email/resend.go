package email

import (
	"context"
	"fmt"
	"net/http"

	resend "github.com/resend/resend-go/v3"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

// ResendProvider delivers mail through the Resend API.
type ResendProvider struct {
	from   string
	client *resend.Client
}

func NewResendProvider(apiKey, from string) *ResendProvider {
	return &ResendProvider{from: from, client: resend.NewClient(apiKey)}
}

// NewResendProviderWithClient routes API calls through httpClient.
func NewResendProviderWithClient(httpClient *http.Client, apiKey, from string) *ResendProvider {
	return &ResendProvider{from: from, client: resend.NewCustomClient(httpClient, apiKey)}
}

func (r *ResendProvider) SendEmail(ctx context.Context, email *Email) error {
	if err := email.validate(); err != nil {
		return err
	}
	if r.client == nil {
		return fmt.Errorf("%w: resend client not configured", errs.ErrFeatureDisabled)
	}

	params := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("%w: failed to send email via resend: %v", errs.ErrNetwork, err)
	}
	return nil
}

func (r *ResendProvider) ValidateAPIKey(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("%w: resend client not configured", errs.ErrFeatureDisabled)
	}
	if _, err := r.client.ApiKeys.ListWithContext(ctx); err != nil {
		return fmt.Errorf("invalid API key: %w", err)
	}
	return nil
}
