package maintenance

import (
	"context"

	"github.com/prospectra/leadcrm/pkg/assignment"
	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/enrichment"
	"github.com/prospectra/leadcrm/pkg/followup"
	"github.com/prospectra/leadcrm/pkg/logger"
	"github.com/prospectra/leadcrm/pkg/merge"
	"github.com/prospectra/leadcrm/pkg/models"
)

// Assigner places leads onto a campaign.
type Assigner interface {
	Assign(ctx context.Context, opts assignment.Options) (*assignment.Result, error)
}

// FollowUpScheduler drafts follow-ups for stale contacted leads.
type FollowUpScheduler interface {
	Run(ctx context.Context, opts followup.Options) (*followup.Result, error)
}

// ContactRefresher re-gathers contact data for stale leads.
type ContactRefresher interface {
	Run(ctx context.Context, opts enrichment.Options) (*enrichment.Result, error)
}

// Merger collapses duplicate leads population-wide.
type Merger interface {
	Run(ctx context.Context, budget int) (*merge.Result, error)
}

// Options tunes one maintenance run.
type Options struct {
	// ContactDaysStale and ContactLimit scope the global contact refresh.
	ContactDaysStale int
	ContactLimit     int
	// FollowUpLimitPerCampaign overrides each campaign's daily send
	// target as the follow-up cap when > 0.
	FollowUpLimitPerCampaign int
	// MergeBudget bounds the global merge pass; 0 means the default.
	MergeBudget int
}

// CampaignSummary is one campaign's slice of the run.
type CampaignSummary struct {
	CampaignID         int    `json:"campaign_id"`
	CampaignName       string `json:"campaign_name"`
	Assigned           int    `json:"assigned"`
	AssignSkipped      int    `json:"assign_skipped"`
	FollowUpsGenerated int    `json:"follow_ups_generated"`
	FollowUpsSkipped   int    `json:"follow_ups_skipped"`
	Error              string `json:"error,omitempty"`
}

// Summary is the structured result of a full maintenance run.
type Summary struct {
	Campaigns         []CampaignSummary `json:"campaigns"`
	ContactsRefreshed int               `json:"contacts_refreshed"`
	ContactsSkipped   int               `json:"contacts_skipped"`
	LeadsMerged       int               `json:"leads_merged"`
	LeadsExamined     int               `json:"leads_examined"`
	Errors            []string          `json:"errors,omitempty"`
}

// Orchestrator composes the batch engines into one scheduled run. Every
// step is independently best-effort: a failing campaign or sub-step is
// recorded in the summary and the run moves on.
type Orchestrator struct {
	store     domain.Store
	assigner  Assigner
	followUps FollowUpScheduler
	refresher ContactRefresher
	merger    Merger
	log       logger.Logger
}

// NewOrchestrator wires the maintenance run.
func NewOrchestrator(store domain.Store, assigner Assigner, followUps FollowUpScheduler, refresher ContactRefresher, merger Merger, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Default()
	}
	return &Orchestrator{
		store:     store,
		assigner:  assigner,
		followUps: followUps,
		refresher: refresher,
		merger:    merger,
		log:       log,
	}
}

// Run executes one maintenance pass: per-ACTIVE-campaign assignment and
// follow-up scheduling, then a global contact refresh, then a global
// duplicate merge.
func (o *Orchestrator) Run(ctx context.Context, opts Options) *Summary {
	summary := &Summary{}

	active := models.CampaignActive
	campaigns, err := o.store.Campaigns().List(ctx, &active)
	if err != nil {
		summary.Errors = append(summary.Errors, "listing campaigns: "+err.Error())
		campaigns = nil
	}

	for _, campaign := range campaigns {
		summary.Campaigns = append(summary.Campaigns, o.runCampaign(ctx, campaign, opts))
	}

	if refreshed, err := o.refresher.Run(ctx, enrichment.Options{
		DaysStale: opts.ContactDaysStale,
		Limit:     opts.ContactLimit,
	}); err != nil {
		summary.Errors = append(summary.Errors, "contact refresh: "+err.Error())
	} else {
		summary.ContactsRefreshed = refreshed.Refreshed
		summary.ContactsSkipped = refreshed.Skipped
	}

	if merged, err := o.merger.Run(ctx, opts.MergeBudget); err != nil {
		summary.Errors = append(summary.Errors, "merge: "+err.Error())
	} else {
		summary.LeadsMerged = merged.Merged
		summary.LeadsExamined = merged.Examined
	}

	o.log.Info("maintenance run complete",
		"campaigns", len(summary.Campaigns),
		"contacts_refreshed", summary.ContactsRefreshed,
		"leads_merged", summary.LeadsMerged,
		"errors", len(summary.Errors))
	return summary
}

func (o *Orchestrator) runCampaign(ctx context.Context, campaign *models.Campaign, opts Options) CampaignSummary {
	cs := CampaignSummary{CampaignID: campaign.ID, CampaignName: campaign.Name}

	assigned, err := o.assigner.Assign(ctx, assignment.Options{
		CampaignID: campaign.ID,
		AutoOnly:   true,
	})
	if err != nil {
		o.log.Warn("campaign assignment failed", "campaign_id", campaign.ID, "error", err)
		cs.Error = "assign: " + err.Error()
	} else {
		cs.Assigned = assigned.Assigned
		cs.AssignSkipped = assigned.Skipped
	}

	limit := campaign.DailySendTarget
	if opts.FollowUpLimitPerCampaign > 0 {
		limit = opts.FollowUpLimitPerCampaign
	}
	followUps, err := o.followUps.Run(ctx, followup.Options{
		CampaignID: &campaign.ID,
		StaleDays:  campaign.FollowUpDays,
		Limit:      limit,
	})
	if err != nil {
		o.log.Warn("follow-up scheduling failed", "campaign_id", campaign.ID, "error", err)
		if cs.Error != "" {
			cs.Error += "; "
		}
		cs.Error += "follow-up: " + err.Error()
	} else {
		cs.FollowUpsGenerated = followUps.Generated
		cs.FollowUpsSkipped = followUps.Skipped
	}

	return cs
}
