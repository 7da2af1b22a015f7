package generation

import (
	"encoding/json"
	"strings"
)

const systemPreamble = `You are an expert email copywriter for online stores. You write personalized, on-brand emails for customer lifecycle campaigns.

Respond with a single JSON object and nothing else, using exactly this shape:
{"subject": "<subject line>", "html": "<full email body as HTML>", "text": "<plain text version of the body>"}`

const userInstruction = `Write one email for the campaign below. Follow the blueprint's subject pattern and structure, fill its variables from the customer data, and keep the copy specific to this customer.
Return only the JSON object. Do not wrap the response in markdown code fences.`

// Prompts is the system and user message pair sent to the model.
type Prompts struct {
	System string
	User   string
}

type userPayload struct {
	Campaign  CampaignContext  `json:"campaign"`
	Customer  CustomerProfile  `json:"customer"`
	Blueprint BlueprintContext `json:"blueprint"`
}

// BuildPrompts assembles the prompts for one generation. brandVoice may be nil.
func BuildPrompts(brandVoice *BrandVoiceContext, campaign CampaignContext, blueprint BlueprintContext, customer CustomerProfile) (Prompts, error) {
	system := systemPreamble
	if guidance := brandGuidance(brandVoice); guidance != "" {
		system += "\n\nBrand guidance:\n" + guidance
	}

	if blueprint.Variables == nil {
		blueprint.Variables = []string{}
	}
	if blueprint.OptionalVars == nil {
		blueprint.OptionalVars = []string{}
	}
	if customer.Tags == nil {
		customer.Tags = []string{}
	}

	payload, err := json.MarshalIndent(userPayload{
		Campaign:  campaign,
		Customer:  customer,
		Blueprint: blueprint,
	}, "", "  ")
	if err != nil {
		return Prompts{}, err
	}

	return Prompts{
		System: system,
		User:   userInstruction + "\n\n" + string(payload),
	}, nil
}

func brandGuidance(bv *BrandVoiceContext) string {
	if bv == nil {
		return ""
	}

	fields := []struct {
		label string
		value string
	}{
		{"Business name", bv.BusinessName},
		{"Tone", bv.Tone},
		{"Values", bv.Values},
		{"Talking points", bv.TalkingPoints},
		{"Do's and don'ts", bv.DosDonts},
		{"Example copy", bv.ExampleCopy},
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			lines = append(lines, f.label+": "+v)
		}
	}
	return strings.Join(lines, "\n")
}
