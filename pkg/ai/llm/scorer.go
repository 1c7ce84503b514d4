package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prospectra/leadcrm/pkg/models"
)

const scoreSystemPrompt = `You are a lead-qualification analyst for small-business outreach.
Score how promising a lead is for cold outreach on a 0-100 scale.
Respond with JSON only: {"score": <0-100>, "reasons": [<short strings>], "summary": <one sentence>, "suggested_angle": <short string>}`

const followUpSystemPrompt = `You write short, polite follow-up messages for cold outreach that went unanswered.
Respond with JSON only: [{"variant_label": "A", "text": <message>}, {"variant_label": "B", "text": <message>}]`

// Scorer adapts the LLM client to the scoring and follow-up collaborator
// contracts. Responses are free text; the JSON payload is cut out of
// whatever surrounds it before parsing.
type Scorer struct {
	llm *OpenAIClient
}

// NewScorer creates an LLM-backed scorer and follow-up generator.
func NewScorer(llm *OpenAIClient) *Scorer {
	return &Scorer{llm: llm}
}

// ScoreLead asks the model for a 0-100 outreach-fit opinion on a lead.
func (s *Scorer) ScoreLead(ctx context.Context, lead *models.Lead, campaign *models.Campaign) (*models.AIScore, error) {
	raw, err := s.llm.Complete(ctx, scorePrompt(lead, campaign), scoreSystemPrompt)
	if err != nil {
		return nil, err
	}

	payload, err := cutJSON(raw, '{', '}')
	if err != nil {
		return nil, fmt.Errorf("parsing score response: %w", err)
	}

	var score models.AIScore
	if err := json.Unmarshal([]byte(payload), &score); err != nil {
		return nil, fmt.Errorf("parsing score response: %w", err)
	}

	if score.Score < 0 {
		score.Score = 0
	}
	if score.Score > 100 {
		score.Score = 100
	}
	return &score, nil
}

// GenerateFollowUps asks the model for follow-up text variants.
func (s *Scorer) GenerateFollowUps(ctx context.Context, lead *models.Lead, campaign *models.Campaign) ([]models.MessageVariant, error) {
	raw, err := s.llm.Complete(ctx, followUpPrompt(lead, campaign), followUpSystemPrompt)
	if err != nil {
		return nil, err
	}

	payload, err := cutJSON(raw, '[', ']')
	if err != nil {
		return nil, fmt.Errorf("parsing follow-up response: %w", err)
	}

	var variants []models.MessageVariant
	if err := json.Unmarshal([]byte(payload), &variants); err != nil {
		return nil, fmt.Errorf("parsing follow-up response: %w", err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no follow-up variants in response")
	}
	return variants, nil
}

func scorePrompt(lead *models.Lead, campaign *models.Campaign) string {
	var b strings.Builder
	b.WriteString("Lead:\n")
	writeField(&b, "name", lead.Name)
	writeField(&b, "website", lead.Website)
	writeField(&b, "social", lead.SocialURL)
	writeField(&b, "phone", lead.Phone)
	writeField(&b, "email", lead.Email)
	writeField(&b, "address", lead.Address)
	if campaign != nil {
		fmt.Fprintf(&b, "\nCampaign context: %s", campaign.Name)
		if campaign.Angle != "" {
			fmt.Fprintf(&b, " (angle: %s)", campaign.Angle)
		}
	}
	return b.String()
}

func followUpPrompt(lead *models.Lead, campaign *models.Campaign) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The first outreach to %s got no reply.\n", displayName(lead))
	if campaign != nil {
		if campaign.Language != "" {
			fmt.Fprintf(&b, "Write in language code %q.\n", campaign.Language)
		}
		if campaign.Tone != "" {
			fmt.Fprintf(&b, "Tone: %s.\n", campaign.Tone)
		}
		if campaign.Angle != "" {
			fmt.Fprintf(&b, "Angle: %s.\n", campaign.Angle)
		}
	}
	b.WriteString("Write two short follow-up variants.")
	return b.String()
}

func displayName(lead *models.Lead) string {
	if lead.Name != "" {
		return lead.Name
	}
	return lead.SocialURL
}

func writeField(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, value)
	}
}

// cutJSON extracts the first balanced open..close span from model text,
// tolerating prose or code fences around it.
func cutJSON(raw string, open, close byte) (string, error) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON payload in model output")
	}
	return raw[start : end+1], nil
}
