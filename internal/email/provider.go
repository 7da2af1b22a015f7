// Package email sends generated emails through SMTP or Resend.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
	ValidateAPIKey(ctx context.Context) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

func (e *Email) validate() error {
	if e == nil {
		return fmt.Errorf("%w: email is required", errs.ErrInvalidInput)
	}
	if strings.TrimSpace(e.To) == "" {
		return fmt.Errorf("%w: recipient is required", errs.ErrInvalidInput)
	}
	if e.HTML == "" && e.Text == "" {
		return fmt.Errorf("%w: email body is empty", errs.ErrInvalidInput)
	}
	return nil
}

type Config struct {
	Provider string
	From     string
	APIKey   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
}

// NewProvider builds the configured provider. With no provider selected it
// infers one from the settings present, and returns errs.ErrFeatureDisabled
// when nothing is configured.
func NewProvider(config Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(config.Provider))
	if name == "" {
		switch {
		case config.SMTPHost != "":
			name = "smtp"
		case config.APIKey != "":
			name = "resend"
		default:
			return nil, fmt.Errorf("%w: no mail provider configured", errs.ErrFeatureDisabled)
		}
	}
	if strings.TrimSpace(config.From) == "" {
		return nil, fmt.Errorf("%w: MAIL_FROM is required to send email", errs.ErrFeatureDisabled)
	}

	switch name {
	case "smtp":
		return NewSMTPProvider(SMTPConfig{
			Host:     config.SMTPHost,
			Port:     config.SMTPPort,
			Username: config.SMTPUser,
			Password: config.SMTPPass,
			From:     config.From,
		})
	case "resend":
		if config.APIKey == "" {
			return nil, fmt.Errorf("%w: RESEND_API_KEY is not set", errs.ErrFeatureDisabled)
		}
		return NewResendProvider(config.APIKey, config.From), nil
	default:
		return nil, fmt.Errorf("%w: MAIL_PROVIDER must be either 'smtp' or 'resend'", errs.ErrConfiguration)
	}
}
