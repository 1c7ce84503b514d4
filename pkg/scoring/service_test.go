package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/store/memory"
)

type stubScorer struct {
	score int
	err   error
}

func (s *stubScorer) ScoreLead(ctx context.Context, lead *models.Lead, campaign *models.Campaign) (*models.AIScore, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.AIScore{Score: s.score, Reasons: []string{"stub opinion"}}, nil
}

type stubFetcher struct {
	html string
	err  error
}

func (f *stubFetcher) FetchHomepage(ctx context.Context, rawURL string) (string, error) {
	return f.html, f.err
}

func mustCreate(t *testing.T, store *memory.Store, input models.LeadInput) *models.Lead {
	t.Helper()
	lead, err := store.Leads().Create(context.Background(), input)
	require.NoError(t, err)
	return lead
}

func TestConfig_SetWeights(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, Weights{Heuristic: 0.45, AI: 0.55}, c.Weights())

	require.NoError(t, c.SetWeights(Weights{Heuristic: 0.3, AI: 0.7}))
	assert.Equal(t, Weights{Heuristic: 0.3, AI: 0.7}, c.Weights())

	assert.Error(t, c.SetWeights(Weights{Heuristic: 0.5, AI: 0.6}))
	assert.Error(t, c.SetWeights(Weights{Heuristic: -0.1, AI: 1.1}))
	// rejected updates leave the previous blend in place
	assert.Equal(t, Weights{Heuristic: 0.3, AI: 0.7}, c.Weights())

	// exact boundary of the tolerance is accepted
	require.NoError(t, c.SetWeights(Weights{Heuristic: 0.4495, AI: 0.55}))
}

func TestHeuristic_SocialNoWebsite(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, nil, nil, nil)

	lead := mustCreate(t, store, models.LeadInput{Name: "Acme", SocialURL: "instagram.com/acme"})
	score, reasons := svc.Heuristic(context.Background(), lead)

	assert.Equal(t, ScoreSocialNoWebsite, score)
	assert.Contains(t, reasons, "social profile but no website")
}

func TestHeuristic_WebsiteUnreachable(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, &stubFetcher{err: errors.New("dial timeout")}, nil, nil)

	lead := mustCreate(t, store, models.LeadInput{Name: "Acme", Website: "acme.test"})
	score, reasons := svc.Heuristic(context.Background(), lead)

	assert.Equal(t, ScoreSiteUnreachable, score)
	assert.Contains(t, reasons, "website unreachable")
}

func TestHeuristic_NoContactAffordance(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, &stubFetcher{html: "<h1>Welcome</h1>"}, nil, nil)

	lead := mustCreate(t, store, models.LeadInput{Name: "Acme", Website: "acme.test"})
	score, _ := svc.Heuristic(context.Background(), lead)

	assert.Equal(t, ScoreNoContactPath, score)
}

func TestHeuristic_ReachableWithContactPath(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, &stubFetcher{html: `<a href="/contact">Contact</a>`}, nil, nil)

	lead := mustCreate(t, store, models.LeadInput{Name: "Acme", Website: "acme.test"})
	score, _ := svc.Heuristic(context.Background(), lead)

	assert.Equal(t, 0, score)
}

func TestHeuristic_CategoryAndLocationSignals(t *testing.T) {
	store := memory.New()
	store.SeedCategory(models.Category{ID: 1, Name: "Plumbing", Keywords: []string{"plumb", "drain"}})
	store.SeedLocation(models.Location{ID: 2, Name: "Austin", City: "Austin", Region: "TX"})
	svc := NewService(store, nil, nil, nil, nil)

	catID, locID := 1, 2
	lead := mustCreate(t, store, models.LeadInput{
		Name:       "Smith Plumbing Co",
		Address:    "400 Congress Ave, Austin, TX",
		CategoryID: &catID,
		LocationID: &locID,
	})
	score, reasons := svc.Heuristic(context.Background(), lead)

	assert.Equal(t, ScoreCategoryKeyword+ScoreLocationMention, score)
	assert.Len(t, reasons, 2)
}

func TestScoreLead_BlendsAndPersists(t *testing.T) {
	store := memory.New()
	svc := NewService(store, &stubScorer{score: 80}, nil, nil, nil)

	lead := mustCreate(t, store, models.LeadInput{Name: "Acme", SocialURL: "instagram.com/acme"})

	res, err := svc.ScoreLead(context.Background(), lead.ID)
	require.NoError(t, err)

	// heuristic 30, AI 80, blend 30*0.45 + 80*0.55 = 57.5 -> 58
	assert.Equal(t, 30, res.Heuristic)
	assert.Equal(t, 80, res.AI)
	assert.Equal(t, 58, res.Total)

	stored, err := store.Leads().Get(context.Background(), lead.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ScoreTotal)
	assert.Equal(t, 58, *stored.ScoreTotal)
	require.NotNil(t, stored.ScoreHeuristic)
	assert.Equal(t, 30, *stored.ScoreHeuristic)
	require.NotNil(t, stored.ScoreAI)
	assert.Equal(t, 80, *stored.ScoreAI)

	snap, err := store.Enrichments().LatestByLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "scoring_run", snap.Source)
	assert.Equal(t, "58", snap.Data["total"])
}

func TestScoreLead_AIFallback(t *testing.T) {
	store := memory.New()
	svc := NewService(store, &stubScorer{err: errors.New("rate limited")}, nil, nil, nil)

	lead := mustCreate(t, store, models.LeadInput{Name: "Acme"})

	res, err := svc.ScoreLead(context.Background(), lead.ID)
	require.NoError(t, err)

	assert.Equal(t, AIFallbackScore, res.AI)
	assert.Contains(t, res.Reasons, "AI scoring unavailable")

	// heuristic 0, AI 50 -> 0*0.45 + 50*0.55 = 27.5 -> 28
	assert.Equal(t, 28, res.Total)
}

func TestScoreLeads_CountsFailures(t *testing.T) {
	store := memory.New()
	svc := NewService(store, &stubScorer{score: 60}, nil, nil, nil)

	a := mustCreate(t, store, models.LeadInput{Name: "A"})
	b := mustCreate(t, store, models.LeadInput{Name: "B"})

	res, err := svc.ScoreLeads(context.Background(), []int{a.ID, b.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scored)
	assert.Equal(t, 1, res.Skipped)
}
