package enrichment

import (
	"context"
	"time"

	"github.com/prospectra/leadcrm/pkg/batch"
	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/logger"
	"github.com/prospectra/leadcrm/pkg/models"
)

// DefaultDaysStale is the freshness window when the caller gives none.
const DefaultDaysStale = 30

// Options scopes a refresh run.
type Options struct {
	// DaysStale marks a lead stale when its newest enrichment snapshot
	// is older than this many days. Leads with no snapshot are stale.
	DaysStale int
	// Limit caps how many stale leads are refreshed this run; 0 means all.
	Limit int
}

// Result counts a refresh run. Skipped covers per-lead collaborator or
// persistence failures.
type Result struct {
	Candidates int `json:"candidates"`
	Refreshed  int `json:"refreshed"`
	Skipped    int `json:"skipped"`
}

// Service re-gathers contact data for leads whose external snapshots
// have gone stale. Refreshes only fill fields the lead is missing; they
// never overwrite operator-entered data.
type Service struct {
	store     domain.Store
	refresher domain.ContactRefresher
	workers   int
	log       logger.Logger
	now       func() time.Time
}

// NewService creates a contact-refresh service.
func NewService(store domain.Store, refresher domain.ContactRefresher, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:     store,
		refresher: refresher,
		workers:   batch.DefaultWorkers,
		log:       log,
		now:       time.Now,
	}
}

// Run finds stale leads and fans contact refreshes out over the worker
// pool.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	daysStale := opts.DaysStale
	if daysStale <= 0 {
		daysStale = DefaultDaysStale
	}
	cutoff := s.now().AddDate(0, 0, -daysStale)

	leads, err := s.store.Leads().ListByCreation(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []*models.Lead
	for _, lead := range leads {
		stale, err := s.isStale(ctx, lead.ID, cutoff)
		if err != nil {
			return nil, err
		}
		if !stale {
			continue
		}
		candidates = append(candidates, lead)
		if opts.Limit > 0 && len(candidates) >= opts.Limit {
			break
		}
	}

	outcome := batch.Run(ctx, candidates, s.workers, func(ctx context.Context, lead *models.Lead) error {
		if err := s.refreshOne(ctx, lead); err != nil {
			s.log.Warn("contact refresh failed", "lead_id", lead.ID, "error", err)
			return err
		}
		return nil
	})

	return &Result{
		Candidates: len(candidates),
		Refreshed:  outcome.Done,
		Skipped:    outcome.Skipped,
	}, nil
}

func (s *Service) isStale(ctx context.Context, leadID int, cutoff time.Time) (bool, error) {
	latest, err := s.store.Enrichments().LatestByLead(ctx, leadID)
	if err != nil {
		if domain.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	return latest.CreatedAt.Before(cutoff), nil
}

func (s *Service) refreshOne(ctx context.Context, lead *models.Lead) error {
	update, err := s.refresher.RefreshContact(ctx, lead)
	if err != nil {
		return err
	}

	patch, found := backfillPatch(lead, update)
	if found > 0 {
		if _, err := s.store.Leads().Update(ctx, lead.ID, patch); err != nil {
			return err
		}
	}

	_, err = s.store.Enrichments().Append(ctx, models.LeadEnrichment{
		LeadID: lead.ID,
		Source: "contact_refresh",
		Data:   snapshotData(update, found),
	})
	return err
}

// backfillPatch fills only fields the lead is missing. Existing values
// always win over refreshed ones.
func backfillPatch(lead *models.Lead, update *models.ContactUpdate) (models.LeadPatch, int) {
	var patch models.LeadPatch
	found := 0
	if lead.Website == "" && update.Website != "" {
		patch.Website = &update.Website
		found++
	}
	if lead.SocialURL == "" && update.SocialURL != "" {
		patch.SocialURL = &update.SocialURL
		found++
	}
	if lead.Phone == "" && update.Phone != "" {
		patch.Phone = &update.Phone
		found++
	}
	if lead.Email == "" && update.Email != "" {
		patch.Email = &update.Email
		found++
	}
	if lead.Address == "" && update.Address != "" {
		patch.Address = &update.Address
		found++
	}
	return patch, found
}

func snapshotData(update *models.ContactUpdate, found int) map[string]string {
	data := map[string]string{}
	if update.Website != "" {
		data["website"] = update.Website
	}
	if update.SocialURL != "" {
		data["social_url"] = update.SocialURL
	}
	if update.Phone != "" {
		data["phone"] = update.Phone
	}
	if update.Email != "" {
		data["email"] = update.Email
	}
	if update.Address != "" {
		data["address"] = update.Address
	}
	if found == 0 {
		data["result"] = "no new fields"
	}
	return data
}
