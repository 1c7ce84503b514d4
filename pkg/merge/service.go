// Package merge consolidates fingerprint-colliding lead records. It scans the
// whole population in stable creation order, keeps the first record seen for
// each identity key as the master, folds later collisions into it and
// re-parents their child rows. Re-running the scan with no intervening
// inserts merges nothing, so the engine is safe to trigger on a cadence.
package merge

import (
	"context"
	"fmt"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/fingerprint"
	"github.com/prospectra/leadcrm/pkg/logger"
	"github.com/prospectra/leadcrm/pkg/models"
)

const (
	// DefaultBudget bounds how many merges a single run performs.
	DefaultBudget = 200
	// MaxBudget is the hard ceiling a caller can request.
	MaxBudget = 1000
)

// Service runs population-wide duplicate merges.
type Service struct {
	store domain.Store
	log   logger.Logger
}

// NewService creates a new merge engine.
func NewService(store domain.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{store: store, log: log}
}

// Result reports the outcome of one merge run.
type Result struct {
	Examined int `json:"examined"`
	Merged   int `json:"merged"`
}

// Run merges duplicates until the population is exhausted or the budget is
// spent. Each individual merge is atomic (children re-parented before the
// duplicate row is deleted); the run as a whole is deliberately not
// transactional, so an interrupted run leaves a partially merged but
// internally consistent population.
func (s *Service) Run(ctx context.Context, budget int) (*Result, error) {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if budget > MaxBudget {
		budget = MaxBudget
	}

	leads, err := s.store.Leads().ListByCreation(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	masters := make(map[string]*models.Lead)
	result := &Result{}

	for _, l := range leads {
		if result.Merged >= budget {
			break
		}
		result.Examined++

		keys := fingerprint.FromLead(l).Keys()
		if len(keys) == 0 {
			continue
		}

		// First already-claimed key wins; key order encodes the
		// website > social > phone > name+location precedence.
		var master *models.Lead
		for _, k := range keys {
			if m, ok := masters[k]; ok {
				master = m
				break
			}
		}

		if master == nil {
			for _, k := range keys {
				masters[k] = l
			}
			continue
		}
		if master.ID == l.ID {
			continue
		}

		merged, err := s.mergeInto(ctx, master, l)
		if err != nil {
			s.log.Warn("merge failed, leaving duplicate in place",
				"master_id", master.ID, "duplicate_id", l.ID, "error", err)
			continue
		}
		result.Merged++

		// Point the master's and the duplicate's keys at the enriched
		// master so later records merge against the most complete
		// version.
		for _, k := range fingerprint.FromLead(merged).Keys() {
			masters[k] = merged
		}
		for _, k := range keys {
			masters[k] = merged
		}
	}

	return result, nil
}

// mergeInto folds dup into master: backfills fields the master lacks,
// re-parents every child row, then deletes the duplicate.
func (s *Service) mergeInto(ctx context.Context, master, dup *models.Lead) (*models.Lead, error) {
	patch := backfillPatch(master, dup)

	merged, err := s.store.Leads().Update(ctx, master.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to backfill master %d: %w", master.ID, err)
	}

	if err := s.store.Messages().Reparent(ctx, dup.ID, master.ID); err != nil {
		return nil, fmt.Errorf("failed to reparent messages: %w", err)
	}
	if err := s.store.Events().Reparent(ctx, dup.ID, master.ID); err != nil {
		return nil, fmt.Errorf("failed to reparent events: %w", err)
	}
	if err := s.store.Enrichments().Reparent(ctx, dup.ID, master.ID); err != nil {
		return nil, fmt.Errorf("failed to reparent enrichments: %w", err)
	}

	if err := s.store.Leads().Delete(ctx, dup.ID); err != nil {
		return nil, fmt.Errorf("failed to delete duplicate %d: %w", dup.ID, err)
	}

	return merged, nil
}

// backfillPatch fills only the fields the master lacks; the master's own
// values always win.
func backfillPatch(master, dup *models.Lead) models.LeadPatch {
	var patch models.LeadPatch

	if master.Name == "" && dup.Name != "" {
		patch.Name = &dup.Name
	}
	if master.Website == "" && dup.Website != "" {
		patch.Website = &dup.Website
	}
	if master.SocialURL == "" && dup.SocialURL != "" {
		patch.SocialURL = &dup.SocialURL
	}
	if master.Phone == "" && dup.Phone != "" {
		patch.Phone = &dup.Phone
	}
	if master.Email == "" && dup.Email != "" {
		patch.Email = &dup.Email
	}
	if master.Address == "" && dup.Address != "" {
		patch.Address = &dup.Address
	}
	if master.CategoryID == nil && dup.CategoryID != nil {
		patch.CategoryID = dup.CategoryID
	}
	if master.LocationID == nil && dup.LocationID != nil {
		patch.LocationID = dup.LocationID
	}
	if master.CampaignID == nil && dup.CampaignID != nil {
		patch.CampaignID = dup.CampaignID
	}
	if master.LastContactedAt == nil && dup.LastContactedAt != nil {
		patch.LastContactedAt = dup.LastContactedAt
	}

	return patch
}
