package assignment

import (
	"context"
	"sort"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/leadscoring"
	"github.com/prospectra/leadcrm/pkg/logger"
	"github.com/prospectra/leadcrm/pkg/models"
)

// DefaultStatuses is the allow-list used when the caller gives none.
var DefaultStatuses = []models.LeadStatus{models.StatusNew, models.StatusDrafted}

// Options controls an assignment run.
type Options struct {
	CampaignID int
	// AutoOnly restricts the pool to leads not already on a campaign.
	AutoOnly bool
	// Statuses is the lead-status allow-list; empty means DefaultStatuses.
	Statuses []models.LeadStatus
	// LimitOverride replaces the campaign's daily send target when > 0.
	LimitOverride int
}

// Result counts a run's outcome. Skipped leads failed a targeting or
// quality filter; they are not errors.
type Result struct {
	Assigned int `json:"assigned"`
	Skipped  int `json:"skipped"`
}

// Service assigns the best available leads to a campaign, up to its
// daily send target.
type Service struct {
	store domain.Store
	log   logger.Logger
}

// NewService creates a campaign assigner.
func NewService(store domain.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{store: store, log: log}
}

// Assign selects leads matching the campaign's targeting and quality
// floor, orders them best-first and writes the campaign reference onto
// the top slice.
func (s *Service) Assign(ctx context.Context, opts Options) (*Result, error) {
	campaign, err := s.store.Campaigns().Get(ctx, opts.CampaignID)
	if err != nil {
		return nil, err
	}

	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStatuses
	}

	pool, err := s.store.Leads().List(ctx, models.LeadFilter{
		Statuses:   statuses,
		Unassigned: opts.AutoOnly,
	})
	if err != nil {
		return nil, err
	}

	type candidate struct {
		lead    *models.Lead
		quality int
	}

	result := &Result{}
	var candidates []candidate
	for _, lead := range pool {
		if !matchesTargeting(lead, campaign) {
			result.Skipped++
			continue
		}
		quality := leadscoring.Compute(lead).Score
		if quality < campaign.MinQualityScore {
			result.Skipped++
			continue
		}
		candidates = append(candidates, candidate{lead: lead, quality: quality})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].quality > candidates[j].quality
	})

	limit := campaign.DailySendTarget
	if opts.LimitOverride > 0 {
		limit = opts.LimitOverride
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for _, c := range candidates {
		if _, err := s.store.Leads().Update(ctx, c.lead.ID, models.LeadPatch{
			CampaignID: &campaign.ID,
		}); err != nil {
			s.log.Warn("assigning lead failed", "lead_id", c.lead.ID, "campaign_id", campaign.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Assigned++
	}

	s.log.Info("campaign assignment complete",
		"campaign_id", campaign.ID, "assigned", result.Assigned, "skipped", result.Skipped)
	return result, nil
}

// matchesTargeting applies the campaign's category/location filters.
// An unset filter matches everything.
func matchesTargeting(lead *models.Lead, campaign *models.Campaign) bool {
	if campaign.CategoryID != nil {
		if lead.CategoryID == nil || *lead.CategoryID != *campaign.CategoryID {
			return false
		}
	}
	if campaign.LocationID != nil {
		if lead.LocationID == nil || *lead.LocationID != *campaign.LocationID {
			return false
		}
	}
	return true
}
