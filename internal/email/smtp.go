package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

const defaultSMTPPort = 587

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPProvider delivers mail through an SMTP relay.
type SMTPProvider struct {
	config SMTPConfig
}

func NewSMTPProvider(config SMTPConfig) (*SMTPProvider, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("%w: SMTP_HOST is not set", errs.ErrFeatureDisabled)
	}
	if config.Port == 0 {
		config.Port = defaultSMTPPort
	}
	return &SMTPProvider{config: config}, nil
}

func (s *SMTPProvider) SendEmail(ctx context.Context, email *Email) error {
	msg, err := s.message(email)
	if err != nil {
		return err
	}

	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: failed to send email via smtp: %v", errs.ErrNetwork, err)
	}
	return nil
}

// ValidateAPIKey dials and authenticates against the relay without sending.
func (s *SMTPProvider) ValidateAPIKey(ctx context.Context) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("%w: smtp dial failed: %v", errs.ErrNetwork, err)
	}
	return client.Close()
}

func (s *SMTPProvider) message(email *Email) (*mail.Msg, error) {
	if err := email.validate(); err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.config.From); err != nil {
		return nil, fmt.Errorf("%w: invalid from address: %v", errs.ErrConfiguration, err)
	}
	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("%w: invalid recipient address: %v", errs.ErrInvalidInput, err)
	}
	msg.Subject(email.Subject)

	text := email.Text
	if text == "" {
		text = email.HTML
	}
	msg.SetBodyString(mail.TypeTextPlain, text)
	if email.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)
	}
	return msg, nil
}

func (s *SMTPProvider) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.config.Username != "" {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
		)
	}

	client, err := mail.NewClient(s.config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}
