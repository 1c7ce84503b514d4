package models

import "time"

// CampaignStatus controls whether a campaign participates in scheduled runs.
type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "ACTIVE"
	CampaignPaused   CampaignStatus = "PAUSED"
	CampaignArchived CampaignStatus = "ARCHIVED"
)

// Campaign bundles targeting rules with outreach policy. A lead references at
// most one campaign at a time; the last assignment wins.
type Campaign struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	// Targeting. Unset filters match everything.
	CategoryID *int `json:"category_id,omitempty"`
	LocationID *int `json:"location_id,omitempty"`

	// Outreach defaults stamped onto generated messages.
	Language string `json:"language"`
	Tone     string `json:"tone"`
	Angle    string `json:"angle"`

	MinQualityScore int `json:"min_quality_score"`
	DailySendTarget int `json:"daily_send_target"`
	FollowUpDays    int `json:"follow_up_days"`

	Status    CampaignStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CampaignPlaybook is an immutable template used to stamp out campaigns.
type CampaignPlaybook struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	CategoryID      *int      `json:"category_id,omitempty"`
	LocationID      *int      `json:"location_id,omitempty"`
	Language        string    `json:"language"`
	Tone            string    `json:"tone"`
	Angle           string    `json:"angle"`
	MinQualityScore int       `json:"min_quality_score"`
	DailySendTarget int       `json:"daily_send_target"`
	FollowUpDays    int       `json:"follow_up_days"`
	CreatedAt       time.Time `json:"created_at"`
}

// CampaignInput creates or updates a campaign.
type CampaignInput struct {
	Name            string `json:"name" validate:"required,min=2"`
	CategoryID      *int   `json:"category_id"`
	LocationID      *int   `json:"location_id"`
	Language        string `json:"language" validate:"omitempty,len=2"`
	Tone            string `json:"tone"`
	Angle           string `json:"angle"`
	MinQualityScore int    `json:"min_quality_score" validate:"min=0,max=100"`
	DailySendTarget int    `json:"daily_send_target" validate:"min=1,max=500"`
	FollowUpDays    int    `json:"follow_up_days" validate:"min=1,max=90"`
}

// CampaignPatch is a partial campaign update; nil means "leave unchanged".
type CampaignPatch struct {
	Name            *string
	CategoryID      *int
	LocationID      *int
	Language        *string
	Tone            *string
	Angle           *string
	MinQualityScore *int
	DailySendTarget *int
	FollowUpDays    *int
	Status          *CampaignStatus
}

// Category is a weak reference target; keywords feed the heuristic scorer.
type Category struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords,omitempty"`
}

// Location is a weak reference target; its tokens feed the heuristic scorer.
type Location struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	City   string `json:"city,omitempty"`
	Region string `json:"region,omitempty"`
}
