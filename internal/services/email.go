package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mailsmithapp/mailsmith/internal/email"
	"github.com/mailsmithapp/mailsmith/internal/errs"
	"github.com/mailsmithapp/mailsmith/internal/generation"
	"github.com/mailsmithapp/mailsmith/internal/logging"
	"github.com/mailsmithapp/mailsmith/internal/models"
	"github.com/mailsmithapp/mailsmith/internal/observability"
)

var (
	ErrNoBlueprint  = fmt.Errorf("%w: campaign has no blueprint", errs.ErrInvalidInput)
	ErrAlreadySent  = fmt.Errorf("%w: email already sent", errs.ErrInvalidInput)
	ErrNoRecipient  = fmt.Errorf("%w: recipient is required", errs.ErrInvalidInput)
	ErrCampaignIdle = fmt.Errorf("%w: campaign is not active", errs.ErrInvalidInput)
)

type BrandVoiceReader interface {
	GetByUser(ctx context.Context, userID string) (*models.BrandVoice, error)
}

type CampaignReader interface {
	Get(ctx context.Context, userID string, id uuid.UUID) (*models.Campaign, error)
}

type BlueprintReader interface {
	Get(ctx context.Context, userID string, id uuid.UUID) (*models.Blueprint, error)
}

type EmailRepository interface {
	Create(ctx context.Context, e *models.Email) (*models.Email, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*models.Email, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Email, error)
	MarkSent(ctx context.Context, id uuid.UUID, recipient string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

type EmailGenerator interface {
	Generate(ctx context.Context, req generation.Request) (generation.GeneratedEmail, error)
}

// MailerSource resolves the mail provider at send time.
type MailerSource func() (email.Provider, error)

type EmailServiceDeps struct {
	BrandVoices BrandVoiceReader
	Campaigns   CampaignReader
	Blueprints  BlueprintReader
	Emails      EmailRepository
	Generator   EmailGenerator
	Mailer      MailerSource
}

type EmailService struct {
	deps   EmailServiceDeps
	logger *slog.Logger
}

func NewEmailService(deps EmailServiceDeps, logger *slog.Logger) *EmailService {
	return &EmailService{
		deps:   deps,
		logger: logging.FromContext(context.Background(), logger).With("component", "email"),
	}
}

func (s *EmailService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// GenerateInput selects what to generate. A nil BlueprintID uses the
// campaign's blueprint. Customer fields left empty take default values.
type GenerateInput struct {
	CampaignID  uuid.UUID
	BlueprintID *uuid.UUID
	Customer    *generation.CustomerProfile
}

// GenerateForCampaign generates an email for one campaign and stores it as
// a draft. Generation failures are returned unchanged so callers see a
// single generic message.
func (s *EmailService) GenerateForCampaign(ctx context.Context, userID string, in GenerateInput) (*models.Email, error) {
	if s == nil || s.deps.Campaigns == nil || s.deps.Blueprints == nil || s.deps.Emails == nil || s.deps.Generator == nil {
		return nil, fmt.Errorf("%w: email generation is not configured", errs.ErrConfiguration)
	}
	if in.CampaignID == uuid.Nil {
		return nil, fmt.Errorf("%w: campaign id is required", errs.ErrInvalidInput)
	}

	campaign, err := s.deps.Campaigns.Get(ctx, userID, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.IsActive {
		return nil, ErrCampaignIdle
	}

	blueprintID := in.BlueprintID
	if blueprintID == nil {
		blueprintID = campaign.BlueprintID
	}
	if blueprintID == nil || *blueprintID == uuid.Nil {
		return nil, ErrNoBlueprint
	}
	blueprint, err := s.deps.Blueprints.Get(ctx, userID, *blueprintID)
	if err != nil {
		return nil, err
	}

	var brandVoice *generation.BrandVoiceContext
	if s.deps.BrandVoices != nil {
		record, err := s.deps.BrandVoices.GetByUser(ctx, userID)
		switch {
		case err == nil:
			brandVoice = DecodeBrandVoice(record)
		case errors.Is(err, errs.ErrNotFound):
			// prompts fall back to the generic preamble
		default:
			return nil, err
		}
	}

	customer := generation.MergeCustomer(in.Customer)
	generated, err := s.deps.Generator.Generate(ctx, generation.Request{
		BrandVoice: brandVoice,
		Campaign: generation.CampaignContext{
			Name:        campaign.Name,
			Goal:        campaign.Goal,
			Description: campaign.Description,
		},
		Blueprint: blueprintContext(blueprint),
		Customer:  &customer,
	})
	if err != nil {
		observability.CountOutcome(ctx, "email.generate", "failed")
		return nil, err
	}

	created, err := s.deps.Emails.Create(ctx, &models.Email{
		UserID:      userID,
		CampaignID:  campaign.ID,
		BlueprintID: blueprint.ID,
		Recipient:   customer.Email,
		Subject:     generated.Subject,
		HTML:        generated.HTML,
		Text:        generated.Text,
	})
	if err != nil {
		return nil, err
	}

	s.loggerFromContext(ctx).Info("email generated", "email_id", created.ID, "campaign_id", campaign.ID)
	observability.CountOutcome(ctx, "email.generate", "generated")
	return created, nil
}

func (s *EmailService) List(ctx context.Context, userID string, limit int) ([]*models.Email, error) {
	if s == nil || s.deps.Emails == nil {
		return nil, fmt.Errorf("%w: emails are not configured", errs.ErrConfiguration)
	}
	return s.deps.Emails.ListByUser(ctx, userID, limit)
}

// Send delivers a stored email. An empty to falls back to the recipient
// recorded at generation time. A provider failure marks the email failed.
func (s *EmailService) Send(ctx context.Context, userID string, emailID uuid.UUID, to string) (*models.Email, error) {
	if s == nil || s.deps.Emails == nil || s.deps.Mailer == nil {
		return nil, fmt.Errorf("%w: email sending is not configured", errs.ErrConfiguration)
	}

	stored, err := s.deps.Emails.Get(ctx, userID, emailID)
	if err != nil {
		return nil, err
	}
	if stored.IsSent() {
		return nil, ErrAlreadySent
	}

	recipient := strings.TrimSpace(to)
	if recipient == "" {
		recipient = stored.Recipient
	}
	if recipient == "" {
		return nil, ErrNoRecipient
	}

	mailer, err := s.deps.Mailer()
	if err != nil {
		return nil, err
	}

	logger := s.loggerFromContext(ctx)
	if err := mailer.SendEmail(ctx, &email.Email{
		To:      recipient,
		Subject: stored.Subject,
		HTML:    stored.HTML,
		Text:    stored.Text,
	}); err != nil {
		logger.Error("failed to send email", "email_id", stored.ID, "error", err)
		if markErr := s.deps.Emails.MarkFailed(ctx, stored.ID); markErr != nil {
			logger.Error("failed to mark email failed", "email_id", stored.ID, "error", markErr)
		}
		observability.CountOutcome(ctx, "email.send", "failed")
		return nil, err
	}

	if err := s.deps.Emails.MarkSent(ctx, stored.ID, recipient); err != nil {
		return nil, err
	}

	stored.Status = models.EmailStatusSent
	stored.Recipient = recipient
	logger.Info("email sent", "email_id", stored.ID)
	observability.CountOutcome(ctx, "email.send", "sent")
	return stored, nil
}

// DecodeBrandVoice projects a stored brand voice onto prompt text. The JSON
// columns are flattened with generation.FlattenGuidance.
func DecodeBrandVoice(record *models.BrandVoice) *generation.BrandVoiceContext {
	if record == nil {
		return nil
	}
	return &generation.BrandVoiceContext{
		BusinessName:  strings.TrimSpace(record.BusinessName),
		Tone:          strings.TrimSpace(record.Tone),
		Values:        generation.FlattenGuidance(record.Values),
		TalkingPoints: generation.FlattenGuidance(record.TalkingPoints),
		DosDonts:      generation.FlattenGuidance(record.DosDonts),
		ExampleCopy:   strings.TrimSpace(record.ExampleCopy),
	}
}

func blueprintContext(b *models.Blueprint) generation.BlueprintContext {
	return generation.BlueprintContext{
		Name:           b.Name,
		SubjectPattern: b.SubjectPattern,
		Structure:      b.Structure,
		Variables:      b.Variables,
		OptionalVars:   b.OptionalVars,
		Example:        b.Example,
	}
}
