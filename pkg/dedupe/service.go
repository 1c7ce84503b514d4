// Package dedupe is the duplicate resolver: it gates inserts on fingerprint
// collisions and answers ad-hoc "is this a duplicate" queries with a ranked
// candidate list.
package dedupe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/fingerprint"
	"github.com/prospectra/leadcrm/pkg/models"
)

const (
	// DefaultScanWindow caps the population snapshot the resolver
	// fingerprints against. Duplicates older than the window are left to
	// the merge engine's full scan.
	DefaultScanWindow = 4000

	// Query-time match weights.
	weightWebsite      = 100
	weightSocial       = 96
	weightPhone        = 92
	weightNameLocation = 78
	weightNameOnly     = 58
	weightAddress      = 18

	// Match list bounds.
	DefaultMatchLimit = 8
	MaxMatchLimit     = 20
)

// Service handles duplicate detection against the existing lead population.
type Service struct {
	store      domain.Store
	scanWindow int
}

// NewService creates a new duplicate resolver.
func NewService(store domain.Store) *Service {
	return &Service{store: store, scanWindow: DefaultScanWindow}
}

// DuplicateQuery carries the partial contact fields of a pre-flight check.
type DuplicateQuery struct {
	Name       string `json:"name"`
	Website    string `json:"website"`
	SocialURL  string `json:"social_url"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	LocationID *int   `json:"location_id"`
}

// Match is one candidate duplicate with the signals that contributed.
type Match struct {
	Lead    *models.Lead `json:"lead"`
	Score   int          `json:"score"`
	Reasons []string     `json:"reasons"`
}

// InsertLead persists a single new lead unless one of its fingerprint keys
// collides with the existing population, in which case a duplicate-conflict
// error names the colliding signal.
func (s *Service) InsertLead(ctx context.Context, input models.LeadInput) (*models.Lead, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	keys := fingerprint.FromInput(input).Keys()
	if len(keys) > 0 {
		existing, err := s.existingKeySet(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if _, ok := existing[k]; ok {
				return nil, domain.NewDuplicateError(signalName(k))
			}
		}
	}

	lead, err := s.store.Leads().Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return lead, nil
}

// BulkInsert persists a batch of new leads, dropping both records that
// collide with the existing population and records that collide with an
// earlier row of the same batch. The first occurrence wins, stable by input
// order. Rows failing the creation invariant are reported as row errors, not
// counted as duplicates.
func (s *Service) BulkInsert(ctx context.Context, inputs []models.LeadInput) (*models.BulkInsertResult, error) {
	result := &models.BulkInsertResult{}
	if len(inputs) == 0 {
		return result, nil
	}

	existing, err := s.existingKeySet(ctx)
	if err != nil {
		return nil, err
	}

	for i, input := range inputs {
		if err := validateInput(input); err != nil {
			result.Errors = append(result.Errors, models.RowError{Row: i, Message: err.Error()})
			continue
		}

		keys := fingerprint.FromInput(input).Keys()
		if collides(existing, keys) {
			result.SkippedDuplicates++
			continue
		}

		lead, err := s.store.Leads().Create(ctx, input)
		if err != nil {
			result.Errors = append(result.Errors, models.RowError{Row: i, Message: err.Error()})
			continue
		}

		result.Inserted = append(result.Inserted, lead)
		for _, k := range keys {
			existing[k] = struct{}{}
		}
	}

	return result, nil
}

// FindMatches scores every lead in the scan window against the query's
// contact signals and returns the candidates with a positive score, best
// first. It is read-only. A query with no usable signal returns an empty
// result without scanning.
func (s *Service) FindMatches(ctx context.Context, q DuplicateQuery, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	if limit > MaxMatchLimit {
		limit = MaxMatchLimit
	}

	qWebsite := fingerprint.NormalizeURL(q.Website)
	qSocial := fingerprint.NormalizeURL(q.SocialURL)
	qPhone := fingerprint.CanonicalPhone(q.Phone)
	qName := fingerprint.NormalizeName(q.Name)
	qAddress := normalizeAddress(q.Address)

	if qWebsite == "" && qSocial == "" && qPhone == "" && qName == "" {
		return nil, nil
	}

	leads, err := s.store.Leads().ListRecent(ctx, s.scanWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	var matches []Match
	for _, l := range leads {
		score := 0
		var reasons []string

		if qWebsite != "" && fingerprint.NormalizeURL(l.Website) == qWebsite {
			score += weightWebsite
			reasons = append(reasons, "same website")
		}
		if qSocial != "" && fingerprint.NormalizeURL(l.SocialURL) == qSocial {
			score += weightSocial
			reasons = append(reasons, "same social profile")
		}
		if qPhone != "" && fingerprint.CanonicalPhone(l.Phone) == qPhone {
			score += weightPhone
			reasons = append(reasons, "same phone number")
		}
		if qName != "" && fingerprint.NormalizeName(l.Name) == qName {
			if q.LocationID != nil && l.LocationID != nil && *q.LocationID == *l.LocationID {
				score += weightNameLocation
				reasons = append(reasons, "same name in same location")
			} else {
				score += weightNameOnly
				reasons = append(reasons, "same name")
			}
		}
		if qAddress != "" && normalizeAddress(l.Address) == qAddress {
			score += weightAddress
			reasons = append(reasons, "same address")
		}

		if score > 0 {
			matches = append(matches, Match{Lead: l, Score: score, Reasons: reasons})
		}
	}

	sortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// existingKeySet fingerprints the scan window into a lookup set.
func (s *Service) existingKeySet(ctx context.Context) (map[string]struct{}, error) {
	leads, err := s.store.Leads().ListRecent(ctx, s.scanWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	set := make(map[string]struct{}, len(leads)*2)
	for _, l := range leads {
		for _, k := range fingerprint.FromLead(l).Keys() {
			set[k] = struct{}{}
		}
	}
	return set, nil
}

func collides(set map[string]struct{}, keys []string) bool {
	for _, k := range keys {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

func validateInput(input models.LeadInput) error {
	if strings.TrimSpace(input.Name) == "" && strings.TrimSpace(input.SocialURL) == "" {
		return domain.NewValidationError("a lead needs at least a business name or a social profile URL")
	}
	return nil
}

func signalName(key string) string {
	switch {
	case strings.HasPrefix(key, "w:"):
		return "website"
	case strings.HasPrefix(key, "f:"):
		return "social profile"
	case strings.HasPrefix(key, "p:"):
		return "phone"
	default:
		return "name and location"
	}
}

func normalizeAddress(addr string) string {
	return strings.Join(strings.Fields(strings.ToLower(addr)), " ")
}

func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Lead.ID < matches[j].Lead.ID
	})
}
