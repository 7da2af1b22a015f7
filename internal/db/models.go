package db

import "github.com/mailsmithapp/mailsmith/internal/models"

type StoreCredential = models.StoreCredential
type BrandVoice = models.BrandVoice
type Campaign = models.Campaign
type Blueprint = models.Blueprint
type Email = models.Email
type EmailStatus = models.EmailStatus

const (
	EmailStatusDraft  = models.EmailStatusDraft
	EmailStatusSent   = models.EmailStatusSent
	EmailStatusFailed = models.EmailStatusFailed
)
