package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

const emailColumns = `id, user_id, campaign_id, blueprint_id, recipient, subject, html, text, status, created_at, sent_at`

type EmailStore struct {
	pool Pool
}

func NewEmailStore(pool Pool) *EmailStore {
	return &EmailStore{pool: pool}
}

// Create stores a generated email as a draft.
func (s *EmailStore) Create(ctx context.Context, e *Email) (*Email, error) {
	const q = `
INSERT INTO emails (user_id, campaign_id, blueprint_id, recipient, subject, html, text, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + emailColumns

	created, err := scanEmail(s.pool.QueryRow(ctx, q,
		e.UserID,
		e.CampaignID,
		e.BlueprintID,
		e.Recipient,
		e.Subject,
		e.HTML,
		e.Text,
		string(EmailStatusDraft),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create email: %w", err)
	}
	return created, nil
}

func (s *EmailStore) Get(ctx context.Context, userID string, id uuid.UUID) (*Email, error) {
	const q = `SELECT ` + emailColumns + ` FROM emails WHERE id = $1 AND user_id = $2`
	e, err := scanEmail(s.pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("email %s", id))
	}
	return e, nil
}

func (s *EmailStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Email, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	const q = `SELECT ` + emailColumns + ` FROM emails WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []*Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// MarkSent records delivery to recipient.
func (s *EmailStore) MarkSent(ctx context.Context, id uuid.UUID, recipient string) error {
	return s.setStatus(ctx,
		`UPDATE emails SET status = $2, recipient = $3, sent_at = NOW() WHERE id = $1`,
		id, string(EmailStatusSent), recipient,
	)
}

func (s *EmailStore) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, `UPDATE emails SET status = $2 WHERE id = $1`, id, string(EmailStatusFailed))
}

func (s *EmailStore) setStatus(ctx context.Context, q string, args ...any) error {
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: email", errs.ErrNotFound)
	}
	return nil
}

func scanEmail(row scanner) (*Email, error) {
	var (
		e      Email
		status string
		sentAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.CampaignID,
		&e.BlueprintID,
		&e.Recipient,
		&e.Subject,
		&e.HTML,
		&e.Text,
		&status,
		&e.CreatedAt,
		&sentAt,
	); err != nil {
		return nil, err
	}
	e.Status = EmailStatus(status)
	if sentAt.Valid {
		e.SentAt = sentAt.Time
	}
	return &e, nil
}
