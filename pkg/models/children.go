package models

import "time"

// MessageKind distinguishes the initial outreach draft from follow-up touches.
type MessageKind string

const (
	MessageInitial  MessageKind = "initial"
	MessageFollowUp MessageKind = "follow_up"
)

// OutreachMessage is generated draft text owned by exactly one lead.
// Initial drafts are replaced wholesale by kind when regenerated; follow-ups
// are additive.
type OutreachMessage struct {
	ID           int         `json:"id"`
	LeadID       int         `json:"lead_id"`
	Kind         MessageKind `json:"kind"`
	VariantLabel string      `json:"variant_label"` // A, B or C
	Language     string      `json:"language,omitempty"`
	Angle        string      `json:"angle,omitempty"`
	Text         string      `json:"text"`
	CreatedAt    time.Time   `json:"created_at"`
}

// OutreachEvent is an immutable, append-only log entry recording an action
// taken on a lead.
type OutreachEvent struct {
	ID        int               `json:"id"`
	LeadID    int               `json:"lead_id"`
	EventType string            `json:"event_type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// LeadEnrichment is an append-only snapshot of an external-data-gathering
// result (contact refresh, scoring run, import provenance). The most recent
// row per lead decides whether the lead's data is stale.
type LeadEnrichment struct {
	ID        int               `json:"id"`
	LeadID    int               `json:"lead_id"`
	Source    string            `json:"source"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// MessageVariant is one generated text variant from the message collaborator.
type MessageVariant struct {
	VariantLabel string `json:"variant_label"`
	Text         string `json:"text"`
}

// AIScore is the externally supplied scoring opinion blended into the total.
type AIScore struct {
	Score          int      `json:"score"`
	Reasons        []string `json:"reasons,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	SuggestedAngle string   `json:"suggested_angle,omitempty"`
}

// ContactUpdate carries freshly discovered contact data from a refresh run.
// Empty fields mean "nothing new found".
type ContactUpdate struct {
	Website   string `json:"website,omitempty"`
	SocialURL string `json:"social_url,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
}
