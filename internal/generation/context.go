// Package generation turns campaign, blueprint, brand voice and customer
// data into a generated email by prompting a chat completion model and
// validating its reply.
package generation

import (
	"encoding/json"
	"strings"
)

// BrandVoiceContext is the text projection of a brand voice used in prompts.
// Empty fields are omitted from the prompt.
type BrandVoiceContext struct {
	BusinessName  string
	Tone          string
	Values        string
	TalkingPoints string
	DosDonts      string
	ExampleCopy   string
}

type CampaignContext struct {
	Name        string `json:"name"`
	Goal        string `json:"goal"`
	Description string `json:"description"`
}

type BlueprintContext struct {
	Name           string   `json:"name"`
	SubjectPattern string   `json:"subjectPattern"`
	Structure      string   `json:"structure"`
	Variables      []string `json:"variables"`
	OptionalVars   []string `json:"optionalVars"`
	Example        string   `json:"example"`
}

// CustomerProfile describes the recipient. Every field is always set once
// merged with the default profile.
type CustomerProfile struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	OrdersCount int      `json:"ordersCount"`
	TotalSpent  string   `json:"totalSpent"`
	Tags        []string `json:"tags"`
}

// GeneratedEmail is the only accepted shape of a model reply.
type GeneratedEmail struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// DefaultCustomer is used for previews and fills gaps in caller data.
func DefaultCustomer() CustomerProfile {
	return CustomerProfile{
		FirstName:   "Customer",
		LastName:    "",
		Email:       "customer@example.com",
		OrdersCount: 0,
		TotalSpent:  "0.00",
		Tags:        []string{},
	}
}

// MergeCustomer overlays the non-zero fields of overrides onto DefaultCustomer.
func MergeCustomer(overrides *CustomerProfile) CustomerProfile {
	merged := DefaultCustomer()
	if overrides == nil {
		return merged
	}
	if overrides.FirstName != "" {
		merged.FirstName = overrides.FirstName
	}
	if overrides.LastName != "" {
		merged.LastName = overrides.LastName
	}
	if overrides.Email != "" {
		merged.Email = overrides.Email
	}
	if overrides.OrdersCount > 0 {
		merged.OrdersCount = overrides.OrdersCount
	}
	if overrides.TotalSpent != "" {
		merged.TotalSpent = overrides.TotalSpent
	}
	if overrides.Tags != nil {
		merged.Tags = append([]string{}, overrides.Tags...)
	}
	return merged
}

// FlattenGuidance renders a stored brand voice blob as prompt text. Blobs
// may be a string, a list of strings, or a {"dos": [...], "donts": [...]}
// object. Anything else, including invalid JSON, renders as "".
func FlattenGuidance(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return joinNonEmpty(list, "; ")
	}

	var rules struct {
		Dos   []string `json:"dos"`
		Donts []string `json:"donts"`
	}
	if err := json.Unmarshal(raw, &rules); err == nil {
		parts := make([]string, 0, 2)
		if dos := joinNonEmpty(rules.Dos, "; "); dos != "" {
			parts = append(parts, "Do: "+dos)
		}
		if donts := joinNonEmpty(rules.Donts, "; "); donts != "" {
			parts = append(parts, "Don't: "+donts)
		}
		return strings.Join(parts, ". ")
	}

	return ""
}

func joinNonEmpty(items []string, sep string) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return strings.Join(out, sep)
}
