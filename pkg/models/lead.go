package models

import "time"

// LeadStatus represents a lead's position in the outreach lifecycle.
// Transitions are recorded but not enforced: any forward or lateral move is
// accepted, only the writer decides.
type LeadStatus string

const (
	StatusNew       LeadStatus = "NEW"
	StatusDrafted   LeadStatus = "DRAFTED"
	StatusSent      LeadStatus = "SENT"
	StatusReplied   LeadStatus = "REPLIED"
	StatusQualified LeadStatus = "QUALIFIED"
	StatusWon       LeadStatus = "WON"
	StatusLost      LeadStatus = "LOST"
)

// ActiveStatuses are the statuses the priority ranker considers by default.
var ActiveStatuses = []LeadStatus{StatusNew, StatusDrafted, StatusSent}

// TerminalStatuses are past the point of routine outreach.
var TerminalStatuses = []LeadStatus{StatusReplied, StatusQualified, StatusWon, StatusLost}

// IsTerminal reports whether the status is past active outreach.
func (s LeadStatus) IsTerminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Lead is the aggregate root: a prospective business contact.
// Contact fields use the empty string for "absent"; weak references to
// category, location and campaign are nullable ints.
type Lead struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	Website   string `json:"website,omitempty"`
	SocialURL string `json:"social_url,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`

	CategoryID *int `json:"category_id,omitempty"`
	LocationID *int `json:"location_id,omitempty"`
	CampaignID *int `json:"campaign_id,omitempty"`

	Status          LeadStatus `json:"status"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`

	// Persisted scoring-run outputs. The derived quality score is never
	// stored; see LeadResponse.
	ScoreHeuristic *int `json:"score_heuristic,omitempty"`
	ScoreAI        *int `json:"score_ai,omitempty"`
	ScoreTotal     *int `json:"score_total,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeadInput is the shape accepted at creation time (manual entry, CSV rows,
// places-search results). All fields are optional except the creation
// invariant: at least one of Name or SocialURL must be set.
type LeadInput struct {
	Name       string `json:"name" validate:"omitempty,min=1"`
	Website    string `json:"website" validate:"omitempty,max=512"`
	SocialURL  string `json:"social_url" validate:"omitempty,max=512"`
	Phone      string `json:"phone" validate:"omitempty,max=64"`
	Email      string `json:"email" validate:"omitempty,max=254"`
	Address    string `json:"address" validate:"omitempty,max=512"`
	CategoryID *int   `json:"category_id"`
	LocationID *int   `json:"location_id"`
}

// LeadPatch is a partial update; nil means "leave unchanged".
type LeadPatch struct {
	Name      *string
	Website   *string
	SocialURL *string
	Phone     *string
	Email     *string
	Address   *string

	CategoryID *int
	LocationID *int
	CampaignID *int

	Status          *LeadStatus
	LastContactedAt *time.Time

	ScoreHeuristic *int
	ScoreAI        *int
	ScoreTotal     *int
}

// LeadFilter narrows repository list queries.
type LeadFilter struct {
	Statuses   []LeadStatus
	CampaignID *int
	// Unassigned limits to leads with no campaign reference.
	Unassigned bool
	// ContactedBefore limits to leads whose last_contacted_at is at or
	// before the given instant (used by the follow-up scheduler).
	ContactedBefore *time.Time
	Limit           int
}

// BulkInsertResult summarizes a gated bulk insert.
type BulkInsertResult struct {
	Inserted          []*Lead    `json:"inserted"`
	SkippedDuplicates int        `json:"skipped_duplicates"`
	Errors            []RowError `json:"errors,omitempty"`
}

// RowError reports a validation failure for one row of a bulk insert.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// LeadResponse is a lead plus its derived quality score, recomputed from the
// current field snapshot on every read.
type LeadResponse struct {
	Lead
	QualityScore int    `json:"quality_score"`
	QualityTier  string `json:"quality_tier"`
}

// UpdateStatusRequest moves a lead to a new lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=NEW DRAFTED SENT REPLIED QUALIFIED WON LOST"`
	Note   string `json:"note,omitempty"`
}
