// Package leadscoring computes the derived quality score: a 0-100 measure of
// how complete and contactable a lead's profile is. The score is a pure
// function of the current field snapshot and is recomputed on every read,
// never trusted from storage.
package leadscoring

import (
	"github.com/badoux/checkmail"

	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/phone"
)

// Scoring weights
const (
	ScoreHasName     = 14
	ScoreHasWebsite  = 20
	ScoreHasSocial   = 16
	ScoreHasPhone    = 14
	ScoreValidEmail  = 18
	ScoreHasAddress  = 10
	ScoreHasCategory = 4
	ScoreHasLocation = 4

	// Reachability bonus: multiple independent contact channels.
	ScoreTwoChannels   = 8
	ScoreThreeChannels = 6

	MaxScore = 100
)

// Quality tiers
const (
	TierHigh   = "High"
	TierMedium = "Medium"
	TierLow    = "Low"

	tierHighMin   = 75
	tierMediumMin = 45
)

// Result is a computed quality score with its contributing signals.
type Result struct {
	Score     int            `json:"score"`
	Tier      string         `json:"tier"`
	Breakdown map[string]int `json:"breakdown"`
}

// Compute scores a lead's current field snapshot. It has no side effects.
func Compute(l *models.Lead) Result {
	breakdown := make(map[string]int)
	score := 0
	channels := 0

	add := func(key string, points int) {
		breakdown[key] = points
		score += points
	}

	if l.Name != "" {
		add("has_name", ScoreHasName)
	}
	if l.Website != "" {
		add("has_website", ScoreHasWebsite)
		channels++
	}
	if l.SocialURL != "" {
		add("has_social", ScoreHasSocial)
		channels++
	}
	if phone.IsPlausible(l.Phone) {
		add("has_phone", ScoreHasPhone)
		channels++
	}
	if validEmail(l.Email) {
		add("valid_email", ScoreValidEmail)
		channels++
	}
	if l.Address != "" {
		add("has_address", ScoreHasAddress)
	}
	if l.CategoryID != nil {
		add("has_category", ScoreHasCategory)
	}
	if l.LocationID != nil {
		add("has_location", ScoreHasLocation)
	}

	if channels >= 2 {
		add("two_channels", ScoreTwoChannels)
	}
	if channels >= 3 {
		add("three_channels", ScoreThreeChannels)
	}

	if score > MaxScore {
		score = MaxScore
	}

	return Result{
		Score:     score,
		Tier:      Tier(score),
		Breakdown: breakdown,
	}
}

// Tier maps a score to its quality tier.
func Tier(score int) string {
	switch {
	case score >= tierHighMin:
		return TierHigh
	case score >= tierMediumMin:
		return TierMedium
	default:
		return TierLow
	}
}

// validEmail accepts syntactically well-formed addresses only; deliverability
// is not checked here.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	return checkmail.ValidateFormat(email) == nil
}
