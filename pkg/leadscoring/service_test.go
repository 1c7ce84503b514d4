package leadscoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prospectra/leadcrm/pkg/models"
)

func intPtr(v int) *int { return &v }

func TestCompute_EmptyLead(t *testing.T) {
	r := Compute(&models.Lead{})
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, TierLow, r.Tier)
	assert.Empty(t, r.Breakdown)
}

func TestCompute_FullProfileClampedTo100(t *testing.T) {
	l := &models.Lead{
		Name:       "Bella Vista Pizzeria",
		Website:    "https://bellavista.example",
		SocialURL:  "https://facebook.com/bellavista",
		Phone:      "+1 202 456 1111",
		Email:      "hello@bellavista.example",
		Address:    "12 Main St",
		CategoryID: intPtr(1),
		LocationID: intPtr(2),
	}

	r := Compute(l)
	assert.Equal(t, MaxScore, r.Score, "raw points exceed 100 and must clamp")
	assert.Equal(t, TierHigh, r.Tier)
	assert.Contains(t, r.Breakdown, "three_channels")
}

func TestCompute_MonotonicPerSignal(t *testing.T) {
	base := &models.Lead{
		Name:    "Corner Cafe",
		Website: "https://corner.example",
	}
	withEmail := &models.Lead{
		Name:    "Corner Cafe",
		Website: "https://corner.example",
		Email:   "owner@corner.example",
	}

	lo := Compute(base)
	hi := Compute(withEmail)
	assert.GreaterOrEqual(t, hi.Score, lo.Score, "adding a valid email must never lower the score")
	assert.LessOrEqual(t, hi.Score, MaxScore)
	assert.GreaterOrEqual(t, lo.Score, 0)
}

func TestCompute_InvalidSignalsIgnored(t *testing.T) {
	l := &models.Lead{
		Name:  "Corner Cafe",
		Phone: "12345", // below the digit floor
		Email: "not-an-email",
	}

	r := Compute(l)
	assert.NotContains(t, r.Breakdown, "has_phone")
	assert.NotContains(t, r.Breakdown, "valid_email")
	assert.Equal(t, ScoreHasName, r.Score)
}

func TestCompute_ChannelBonuses(t *testing.T) {
	two := Compute(&models.Lead{
		Website:   "https://a.example",
		SocialURL: "https://facebook.com/a",
	})
	assert.Contains(t, two.Breakdown, "two_channels")
	assert.NotContains(t, two.Breakdown, "three_channels")

	three := Compute(&models.Lead{
		Website:   "https://a.example",
		SocialURL: "https://facebook.com/a",
		Phone:     "+1 202 456 1111",
	})
	assert.Contains(t, three.Breakdown, "two_channels")
	assert.Contains(t, three.Breakdown, "three_channels")
}

func TestTier(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, TierHigh},
		{75, TierHigh},
		{74, TierMedium},
		{45, TierMedium},
		{44, TierLow},
		{0, TierLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Tier(tt.score), "score %d", tt.score)
	}
}
