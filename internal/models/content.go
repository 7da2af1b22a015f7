package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BrandVoice is stored per user. Values, TalkingPoints and DosDonts are
// free-form JSON written by the dashboard.
type BrandVoice struct {
	ID            uuid.UUID       `json:"id"`
	UserID        string          `json:"userId"`
	BusinessName  string          `json:"businessName"`
	Tone          string          `json:"tone"`
	Values        json.RawMessage `json:"values"`
	TalkingPoints json.RawMessage `json:"talkingPoints"`
	DosDonts      json.RawMessage `json:"dosDonts"`
	ExampleCopy   string          `json:"exampleCopy"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Campaign struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Goal        string     `json:"goal"`
	Description string     `json:"description"`
	TriggerType string     `json:"triggerType"`
	BlueprintID *uuid.UUID `json:"blueprintId,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Blueprint struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"userId"`
	Name           string    `json:"name"`
	SubjectPattern string    `json:"subjectPattern"`
	Structure      string    `json:"structure"`
	Variables      []string  `json:"variables"`
	OptionalVars   []string  `json:"optionalVars"`
	Example        string    `json:"example"`
	CreatedAt      time.Time `json:"createdAt"`
}
