package priority

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/leadscoring"
	"github.com/prospectra/leadcrm/pkg/models"
)

// Priority formula terms
const (
	weightQuality = 0.42
	weightTotal   = 0.34

	bonusNew      = 16
	bonusDrafted  = 10
	penaltySent   = -14
	penaltyClosed = -24

	bonusFresh    = 8 // created within the last 72 hours
	bonusSocial   = 4
	bonusPhone    = 2
	bonusAffinity = 5 // per matching campaign targeting dimension

	freshWindow = 72 * time.Hour

	neutralTotal = 50 // leads never scored get a neutral blended score
)

// Options narrows a ranking request.
type Options struct {
	// IncludeTerminal adds REPLIED/QUALIFIED/WON/LOST leads, which rank
	// with a heavy penalty. Off by default.
	IncludeTerminal bool
	// CampaignID, when set, grants affinity bonuses for leads matching
	// that campaign's category/location targeting.
	CampaignID *int
	Limit      int
}

// Entry is one ranked lead with its display-only priority and reason.
type Entry struct {
	Lead     *models.Lead `json:"lead"`
	Quality  int          `json:"quality"`
	Priority int          `json:"priority"`
	Reason   string       `json:"reason"`
}

// Service ranks leads for the outreach work queue. Ranking is a pure
// ordering over current state: reading twice without writes in between
// returns the same order.
type Service struct {
	store domain.Store
	now   func() time.Time
}

// NewService creates a priority ranker.
func NewService(store domain.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Rank returns leads ordered by descending priority.
func (s *Service) Rank(ctx context.Context, opts Options) ([]Entry, error) {
	statuses := append([]models.LeadStatus{}, models.ActiveStatuses...)
	if opts.IncludeTerminal {
		statuses = append(statuses, models.TerminalStatuses...)
	}

	leads, err := s.store.Leads().List(ctx, models.LeadFilter{Statuses: statuses})
	if err != nil {
		return nil, err
	}

	var campaign *models.Campaign
	if opts.CampaignID != nil {
		campaign, err = s.store.Campaigns().Get(ctx, *opts.CampaignID)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	entries := make([]Entry, 0, len(leads))
	for _, lead := range leads {
		quality := leadscoring.Compute(lead).Score
		entries = append(entries, s.rankOne(lead, quality, campaign, now))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})

	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}

func (s *Service) rankOne(lead *models.Lead, quality int, campaign *models.Campaign, now time.Time) Entry {
	total := neutralTotal
	if lead.ScoreTotal != nil {
		total = *lead.ScoreTotal
	}

	score := float64(quality)*weightQuality + float64(total)*weightTotal

	switch {
	case lead.Status == models.StatusNew:
		score += bonusNew
	case lead.Status == models.StatusDrafted:
		score += bonusDrafted
	case lead.Status == models.StatusSent:
		score += penaltySent
	case lead.Status.IsTerminal():
		score += penaltyClosed
	}

	fresh := now.Sub(lead.CreatedAt) < freshWindow
	if fresh {
		score += bonusFresh
	}
	if lead.SocialURL != "" {
		score += bonusSocial
	}
	if lead.Phone != "" {
		score += bonusPhone
	}
	if campaign != nil {
		if campaign.CategoryID != nil && lead.CategoryID != nil && *campaign.CategoryID == *lead.CategoryID {
			score += bonusAffinity
		}
		if campaign.LocationID != nil && lead.LocationID != nil && *campaign.LocationID == *lead.LocationID {
			score += bonusAffinity
		}
	}

	rounded := int(math.Round(score))
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 100 {
		rounded = 100
	}

	return Entry{
		Lead:     lead,
		Quality:  quality,
		Priority: rounded,
		Reason:   reason(quality, fresh),
	}
}

// reason picks the display string by a fixed precedence: quality tier
// first, then freshness, then a generic label.
func reason(quality int, fresh bool) string {
	switch {
	case leadscoring.Tier(quality) == leadscoring.TierHigh:
		return "high quality profile, ready for outreach"
	case leadscoring.Tier(quality) == leadscoring.TierMedium:
		return "solid profile, worth a touch"
	case fresh:
		return "recently added, strike while fresh"
	default:
		return "low data coverage, consider enriching first"
	}
}
