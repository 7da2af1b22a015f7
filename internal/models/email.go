package models

import (
	"time"

	"github.com/google/uuid"
)

type EmailStatus string

const (
	EmailStatusDraft  EmailStatus = "draft"
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

type Email struct {
	ID          uuid.UUID   `json:"id"`
	UserID      string      `json:"userId"`
	CampaignID  uuid.UUID   `json:"campaignId"`
	BlueprintID uuid.UUID   `json:"blueprintId"`
	Recipient   string      `json:"recipient"`
	Subject     string      `json:"subject"`
	HTML        string      `json:"html"`
	Text        string      `json:"text"`
	Status      EmailStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	SentAt      time.Time   `json:"sentAt"`
}

func (e *Email) IsSent() bool {
	return e != nil && e.Status == EmailStatusSent
}
