package models

import (
	"time"

	"github.com/google/uuid"
)

// StoreCredential is a connected Shopify store. The access token is only
// ever held in its encrypted envelope form.
type StoreCredential struct {
	ID                   uuid.UUID `json:"id"`
	ShopDomain           string    `json:"shopDomain"`
	OwnerUserID          string    `json:"ownerUserId"`
	EncryptedAccessToken string    `json:"-"`
	Scope                string    `json:"scope"`
	IsActive             bool      `json:"isActive"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (s *StoreCredential) IsConnected() bool {
	return s != nil && s.IsActive && s.EncryptedAccessToken != ""
}

// OwnedBy reports whether userID owns the credential.
func (s *StoreCredential) OwnedBy(userID string) bool {
	return s != nil && userID != "" && s.OwnerUserID == userID
}
