package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectra/leadcrm/pkg/logger"
	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/store/memory"
)

type stubRefresher struct {
	update models.ContactUpdate
	err    error
	calls  int
}

func (r *stubRefresher) RefreshContact(ctx context.Context, lead *models.Lead) (*models.ContactUpdate, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	u := r.update
	return &u, nil
}

func mustCreate(t *testing.T, store *memory.Store, input models.LeadInput) *models.Lead {
	t.Helper()
	lead, err := store.Leads().Create(context.Background(), input)
	require.NoError(t, err)
	return lead
}

func TestRun_RefreshesLeadsWithoutSnapshots(t *testing.T) {
	store := memory.New()
	lead := mustCreate(t, store, models.LeadInput{Name: "Acme"})

	ref := &stubRefresher{update: models.ContactUpdate{Phone: "+1 555 010 5000", Email: "hi@acme.test"}}
	svc := NewService(store, ref, nil)

	res, err := svc.Run(context.Background(), Options{DaysStale: 30})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 1, res.Refreshed)
	assert.Equal(t, 1, ref.calls)

	got, err := store.Leads().Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "+1 555 010 5000", got.Phone)
	assert.Equal(t, "hi@acme.test", got.Email)

	snap, err := store.Enrichments().LatestByLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "contact_refresh", snap.Source)
}

func TestRun_DoesNotOverwriteExistingFields(t *testing.T) {
	store := memory.New()
	lead := mustCreate(t, store, models.LeadInput{Name: "Acme", Phone: "+1 555 010 0001"})

	ref := &stubRefresher{update: models.ContactUpdate{Phone: "+1 555 999 9999", Website: "acme.test"}}
	svc := NewService(store, ref, nil)

	_, err := svc.Run(context.Background(), Options{DaysStale: 30})
	require.NoError(t, err)

	got, err := store.Leads().Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "+1 555 010 0001", got.Phone)
	assert.Equal(t, "acme.test", got.Website)
}

func TestRun_FreshSnapshotExcludes(t *testing.T) {
	store := memory.New()
	lead := mustCreate(t, store, models.LeadInput{Name: "Fresh"})

	_, err := store.Enrichments().Append(context.Background(), models.LeadEnrichment{
		LeadID: lead.ID,
		Source: "import",
	})
	require.NoError(t, err)

	ref := &stubRefresher{}
	svc := NewService(store, ref, nil)

	res, err := svc.Run(context.Background(), Options{DaysStale: 30})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Candidates)
	assert.Equal(t, 0, ref.calls)
}

func TestRun_OldSnapshotIsStale(t *testing.T) {
	store := memory.New()
	lead := mustCreate(t, store, models.LeadInput{Name: "Dusty"})

	_, err := store.Enrichments().Append(context.Background(), models.LeadEnrichment{
		LeadID: lead.ID,
		Source: "import",
	})
	require.NoError(t, err)

	ref := &stubRefresher{}
	svc := NewService(store, ref, nil)
	svc.now = func() time.Time { return time.Now().AddDate(0, 0, 45) }

	res, err := svc.Run(context.Background(), Options{DaysStale: 30})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 1, res.Refreshed)
}

func TestRun_CollaboratorFailureCountsSkipped(t *testing.T) {
	store := memory.New()
	mustCreate(t, store, models.LeadInput{Name: "Unlucky"})

	svc := NewService(store, &stubRefresher{err: errors.New("scrape blocked")}, logger.Discard())
	res, err := svc.Run(context.Background(), Options{DaysStale: 30})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Refreshed)
	assert.Equal(t, 1, res.Skipped)
}

func TestRun_LimitCapsCandidates(t *testing.T) {
	store := memory.New()
	for i := 0; i < 5; i++ {
		mustCreate(t, store, models.LeadInput{Name: "Lead"})
	}

	ref := &stubRefresher{}
	svc := NewService(store, ref, nil)

	res, err := svc.Run(context.Background(), Options{DaysStale: 30, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 3, ref.calls)
}
