package followup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prospectra/leadcrm/pkg/batch"
	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/logger"
	"github.com/prospectra/leadcrm/pkg/models"
)

// DefaultStaleDays is the staleness threshold when the caller gives none.
const DefaultStaleDays = 4

// Options scopes a scheduling run.
type Options struct {
	// CampaignID limits candidates to one campaign; nil means all.
	CampaignID *int
	// StaleDays is how many days since last contact make a lead stale.
	StaleDays int
	// Limit caps how many candidates are processed this run; 0 means all.
	Limit int
}

// Result counts a run's outcome. Skipped covers per-lead generation or
// persistence failures; they never abort the run.
type Result struct {
	Candidates int `json:"candidates"`
	Generated  int `json:"generated"`
	Skipped    int `json:"skipped"`
}

// Service drafts follow-up messages for leads that were contacted and
// then went quiet. A lead gets at most one follow-up per staleness
// cycle: anything that already has a follow_up draft is excluded.
type Service struct {
	store     domain.Store
	generator domain.FollowUpGenerator
	workers   int
	log       logger.Logger
	now       func() time.Time
}

// NewService creates a follow-up scheduler.
func NewService(store domain.Store, generator domain.FollowUpGenerator, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:     store,
		generator: generator,
		workers:   batch.DefaultWorkers,
		log:       log,
		now:       time.Now,
	}
}

// Run finds stale SENT leads and fans follow-up generation out over the
// worker pool.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	staleDays := opts.StaleDays
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	cutoff := s.now().AddDate(0, 0, -staleDays)

	stale, err := s.store.Leads().List(ctx, models.LeadFilter{
		Statuses:        []models.LeadStatus{models.StatusSent},
		CampaignID:      opts.CampaignID,
		ContactedBefore: &cutoff,
	})
	if err != nil {
		return nil, err
	}

	var candidates []*models.Lead
	for _, lead := range stale {
		count, err := s.store.Messages().CountByLeadAndKind(ctx, lead.ID, models.MessageFollowUp)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}
		candidates = append(candidates, lead)
		if opts.Limit > 0 && len(candidates) >= opts.Limit {
			break
		}
	}

	outcome := batch.Run(ctx, candidates, s.workers, func(ctx context.Context, lead *models.Lead) error {
		if err := s.generateFor(ctx, lead, staleDays); err != nil {
			s.log.Warn("follow-up generation failed", "lead_id", lead.ID, "error", err)
			return err
		}
		return nil
	})

	return &Result{
		Candidates: len(candidates),
		Generated:  outcome.Done,
		Skipped:    outcome.Skipped,
	}, nil
}

func (s *Service) generateFor(ctx context.Context, lead *models.Lead, staleDays int) error {
	var campaign *models.Campaign
	if lead.CampaignID != nil {
		campaign, _ = s.store.Campaigns().Get(ctx, *lead.CampaignID)
	}

	if s.generator == nil {
		return fmt.Errorf("no follow-up generator configured")
	}
	variants, err := s.generator.GenerateFollowUps(ctx, lead, campaign)
	if err != nil {
		return err
	}

	for _, v := range variants {
		msg := models.OutreachMessage{
			LeadID:       lead.ID,
			Kind:         models.MessageFollowUp,
			VariantLabel: v.VariantLabel,
			Text:         v.Text,
		}
		if campaign != nil {
			msg.Language = campaign.Language
			msg.Angle = campaign.Angle
		}
		if _, err := s.store.Messages().Create(ctx, msg); err != nil {
			return err
		}
	}

	_, err = s.store.Enrichments().Append(ctx, models.LeadEnrichment{
		LeadID: lead.ID,
		Source: "follow_up_generated",
		Data: map[string]string{
			"variants":   strconv.Itoa(len(variants)),
			"stale_days": strconv.Itoa(staleDays),
		},
	})
	return err
}
