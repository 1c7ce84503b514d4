package web

import (
	"context"
	"regexp"
	"strings"

	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/phone"
)

var (
	mailtoPattern = regexp.MustCompile(`(?i)mailto:([a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,})`)
	telPattern    = regexp.MustCompile(`(?i)tel:([+0-9()\-. ]{7,20})`)
	socialPattern = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:facebook|instagram|linkedin)\.com/[a-z0-9._\-/]+`)
)

// Refresher re-gathers contact data for a lead by scraping its homepage.
// It only ever reports discovered values; deciding whether to keep them is
// the enrichment service's job.
type Refresher struct {
	prober *Prober
	region string
}

// NewRefresher creates a homepage-scraping contact refresher. The region is
// the default country code used to validate discovered phone numbers.
func NewRefresher(prober *Prober, region string) *Refresher {
	if region == "" {
		region = "US"
	}
	return &Refresher{prober: prober, region: region}
}

// RefreshContact fetches the lead's homepage and extracts contact hints:
// mailto addresses, tel links and social profile URLs. A lead without a
// website yields an empty update.
func (r *Refresher) RefreshContact(ctx context.Context, lead *models.Lead) (*models.ContactUpdate, error) {
	update := &models.ContactUpdate{}
	if lead.Website == "" {
		return update, nil
	}

	html, err := r.prober.FetchHomepage(ctx, lead.Website)
	if err != nil {
		return nil, err
	}

	if m := mailtoPattern.FindStringSubmatch(html); m != nil {
		update.Email = strings.ToLower(m[1])
	}
	if m := telPattern.FindStringSubmatch(html); m != nil {
		if normalized, err := phone.Normalize(strings.TrimSpace(m[1]), r.region); err == nil {
			update.Phone = normalized
		}
	}
	if m := socialPattern.FindString(html); m != "" {
		update.SocialURL = m
	}
	return update, nil
}
