package scoring

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/prospectra/leadcrm/pkg/batch"
	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/logger"
	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/web"
)

// Heuristic signal points
const (
	ScoreSocialNoWebsite = 30 // unmanaged digital presence
	ScoreNoContactPath   = 15 // website up but no booking/contact affordance
	ScoreSiteUnreachable = 10
	ScoreCategoryKeyword = 10
	ScoreLocationMention = 10
	MaxHeuristicScore    = 100
	AIFallbackScore      = 50
	aiUnavailableReason  = "AI scoring unavailable"
)

// Result is one lead's scoring-run outcome.
type Result struct {
	LeadID    int      `json:"lead_id"`
	Heuristic int      `json:"heuristic"`
	AI        int      `json:"ai"`
	Total     int      `json:"total"`
	Reasons   []string `json:"reasons,omitempty"`
}

// BatchResult summarizes a fan-out scoring run.
type BatchResult struct {
	Scored  int `json:"scored"`
	Skipped int `json:"skipped"`
}

// Service computes the heuristic sub-score, blends in the AI opinion and
// persists all three scores on the lead.
type Service struct {
	store   domain.Store
	scorer  domain.AIScorer
	fetcher domain.HomepageFetcher
	config  *Config
	workers int
	log     logger.Logger
}

// NewService creates a scoring service. scorer and fetcher may be nil;
// both degrade to their documented fallbacks.
func NewService(store domain.Store, scorer domain.AIScorer, fetcher domain.HomepageFetcher, config *Config, log logger.Logger) *Service {
	if config == nil {
		config = NewConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:   store,
		scorer:  scorer,
		fetcher: fetcher,
		config:  config,
		workers: batch.DefaultWorkers,
		log:     log,
	}
}

// Config exposes the blend weights for the operator surface.
func (s *Service) Config() *Config {
	return s.config
}

// ScoreLead computes and persists heuristic, AI and blended scores for
// one lead, then records an enrichment snapshot of the run.
func (s *Service) ScoreLead(ctx context.Context, leadID int) (*Result, error) {
	lead, err := s.store.Leads().Get(ctx, leadID)
	if err != nil {
		return nil, err
	}

	heuristic, reasons := s.Heuristic(ctx, lead)

	aiScore := AIFallbackScore
	if s.scorer != nil {
		var campaign *models.Campaign
		if lead.CampaignID != nil {
			campaign, _ = s.store.Campaigns().Get(ctx, *lead.CampaignID)
		}
		ai, err := s.scorer.ScoreLead(ctx, lead, campaign)
		if err != nil {
			s.log.Warn("AI scorer failed, using neutral fallback", "lead_id", leadID, "error", err)
			reasons = append(reasons, aiUnavailableReason)
		} else {
			aiScore = clamp(ai.Score)
			reasons = append(reasons, ai.Reasons...)
		}
	} else {
		reasons = append(reasons, aiUnavailableReason)
	}

	w := s.config.Weights()
	total := clamp(int(math.Round(float64(heuristic)*w.Heuristic + float64(aiScore)*w.AI)))

	if _, err := s.store.Leads().Update(ctx, leadID, models.LeadPatch{
		ScoreHeuristic: &heuristic,
		ScoreAI:        &aiScore,
		ScoreTotal:     &total,
	}); err != nil {
		return nil, err
	}

	_, err = s.store.Enrichments().Append(ctx, models.LeadEnrichment{
		LeadID: leadID,
		Source: "scoring_run",
		Data: map[string]string{
			"heuristic": strconv.Itoa(heuristic),
			"ai":        strconv.Itoa(aiScore),
			"total":     strconv.Itoa(total),
			"reasons":   strings.Join(reasons, "; "),
		},
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		LeadID:    leadID,
		Heuristic: heuristic,
		AI:        aiScore,
		Total:     total,
		Reasons:   reasons,
	}, nil
}

// ScoreLeads fans scoring out over the worker pool. Per-lead failures
// are counted skipped, never propagated.
func (s *Service) ScoreLeads(ctx context.Context, leadIDs []int) (*BatchResult, error) {
	outcome := batch.Run(ctx, leadIDs, s.workers, func(ctx context.Context, leadID int) error {
		_, err := s.ScoreLead(ctx, leadID)
		if err != nil {
			s.log.Warn("scoring lead failed", "lead_id", leadID, "error", err)
		}
		return err
	})
	return &BatchResult{Scored: outcome.Done, Skipped: outcome.Skipped}, nil
}

// Heuristic computes the 0-100 heuristic sub-score from digital-presence
// signals, with human-readable reasons for each point grant.
func (s *Service) Heuristic(ctx context.Context, lead *models.Lead) (int, []string) {
	score := 0
	var reasons []string

	if lead.Website == "" && lead.SocialURL != "" {
		score += ScoreSocialNoWebsite
		reasons = append(reasons, "social profile but no website")
	}

	if lead.Website != "" && s.fetcher != nil {
		html, err := s.fetcher.FetchHomepage(ctx, lead.Website)
		if err != nil {
			score += ScoreSiteUnreachable
			reasons = append(reasons, "website unreachable")
		} else if !web.HasContactAffordance(html) {
			score += ScoreNoContactPath
			reasons = append(reasons, "no booking or contact path on homepage")
		}
	}

	if lead.CategoryID != nil {
		if cat, err := s.store.Categories().Get(ctx, *lead.CategoryID); err == nil {
			if matchesAnyKeyword(lead, cat.Keywords) {
				score += ScoreCategoryKeyword
				reasons = append(reasons, fmt.Sprintf("matches %s keywords", cat.Name))
			}
		}
	}

	if lead.LocationID != nil && lead.Address != "" {
		if loc, err := s.store.Locations().Get(ctx, *lead.LocationID); err == nil {
			if matchesLocation(lead.Address, loc) {
				score += ScoreLocationMention
				reasons = append(reasons, fmt.Sprintf("address mentions %s", loc.Name))
			}
		}
	}

	if score > MaxHeuristicScore {
		score = MaxHeuristicScore
	}
	return score, reasons
}

func matchesAnyKeyword(lead *models.Lead, keywords []string) bool {
	haystack := strings.ToLower(lead.Name + " " + lead.Address)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func matchesLocation(address string, loc *models.Location) bool {
	lower := strings.ToLower(address)
	for _, token := range []string{loc.Name, loc.City, loc.Region} {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" && strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
