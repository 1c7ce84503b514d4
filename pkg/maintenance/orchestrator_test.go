package maintenance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectra/leadcrm/pkg/assignment"
	"github.com/prospectra/leadcrm/pkg/enrichment"
	"github.com/prospectra/leadcrm/pkg/followup"
	"github.com/prospectra/leadcrm/pkg/merge"
	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/store/memory"
)

type stubAssigner struct {
	calls []assignment.Options
	err   error
}

func (s *stubAssigner) Assign(ctx context.Context, opts assignment.Options) (*assignment.Result, error) {
	s.calls = append(s.calls, opts)
	if s.err != nil {
		return nil, s.err
	}
	return &assignment.Result{Assigned: 3, Skipped: 1}, nil
}

type stubFollowUps struct {
	calls []followup.Options
	err   error
}

func (s *stubFollowUps) Run(ctx context.Context, opts followup.Options) (*followup.Result, error) {
	s.calls = append(s.calls, opts)
	if s.err != nil {
		return nil, s.err
	}
	return &followup.Result{Candidates: 2, Generated: 2}, nil
}

type stubRefresher struct {
	calls []enrichment.Options
	err   error
}

func (s *stubRefresher) Run(ctx context.Context, opts enrichment.Options) (*enrichment.Result, error) {
	s.calls = append(s.calls, opts)
	if s.err != nil {
		return nil, s.err
	}
	return &enrichment.Result{Candidates: 4, Refreshed: 4}, nil
}

type stubMerger struct {
	budgets []int
	err     error
}

func (s *stubMerger) Run(ctx context.Context, budget int) (*merge.Result, error) {
	s.budgets = append(s.budgets, budget)
	if s.err != nil {
		return nil, s.err
	}
	return &merge.Result{Examined: 10, Merged: 2}, nil
}

func activeCampaign(t *testing.T, store *memory.Store, name string, followUpDays int) *models.Campaign {
	t.Helper()
	c, err := store.Campaigns().Create(context.Background(), models.CampaignInput{
		Name:            name,
		DailySendTarget: 10,
		FollowUpDays:    followUpDays,
	})
	require.NoError(t, err)
	return c
}

func TestRun_ComposesAllSteps(t *testing.T) {
	store := memory.New()
	a := activeCampaign(t, store, "Alpha", 3)
	b := activeCampaign(t, store, "Beta", 7)

	assigner := &stubAssigner{}
	followUps := &stubFollowUps{}
	refresher := &stubRefresher{}
	merger := &stubMerger{}

	o := NewOrchestrator(store, assigner, followUps, refresher, merger, nil)
	summary := o.Run(context.Background(), Options{ContactDaysStale: 30, ContactLimit: 100})

	require.Len(t, summary.Campaigns, 2)
	assert.Equal(t, a.ID, summary.Campaigns[0].CampaignID)
	assert.Equal(t, b.ID, summary.Campaigns[1].CampaignID)
	assert.Equal(t, 3, summary.Campaigns[0].Assigned)
	assert.Equal(t, 2, summary.Campaigns[0].FollowUpsGenerated)

	// assignment runs auto-only per campaign
	require.Len(t, assigner.calls, 2)
	assert.True(t, assigner.calls[0].AutoOnly)

	// follow-ups use each campaign's own staleness window
	require.Len(t, followUps.calls, 2)
	assert.Equal(t, 3, followUps.calls[0].StaleDays)
	assert.Equal(t, 7, followUps.calls[1].StaleDays)

	// global refresh and merge happen once each
	require.Len(t, refresher.calls, 1)
	assert.Equal(t, 30, refresher.calls[0].DaysStale)
	assert.Equal(t, 100, refresher.calls[0].Limit)
	require.Len(t, merger.budgets, 1)

	assert.Equal(t, 4, summary.ContactsRefreshed)
	assert.Equal(t, 2, summary.LeadsMerged)
	assert.Equal(t, 10, summary.LeadsExamined)
	assert.Empty(t, summary.Errors)
}

func TestRun_SkipsInactiveCampaigns(t *testing.T) {
	store := memory.New()
	activeCampaign(t, store, "Running", 4)
	paused := activeCampaign(t, store, "Paused", 4)
	status := models.CampaignPaused
	_, err := store.Campaigns().Update(context.Background(), paused.ID, models.CampaignPatch{Status: &status})
	require.NoError(t, err)

	assigner := &stubAssigner{}
	o := NewOrchestrator(store, assigner, &stubFollowUps{}, &stubRefresher{}, &stubMerger{}, nil)
	summary := o.Run(context.Background(), Options{})

	assert.Len(t, summary.Campaigns, 1)
	assert.Len(t, assigner.calls, 1)
}

func TestRun_StepFailuresAreIsolated(t *testing.T) {
	store := memory.New()
	activeCampaign(t, store, "Alpha", 4)

	assigner := &stubAssigner{err: errors.New("pool busy")}
	followUps := &stubFollowUps{}
	refresher := &stubRefresher{err: errors.New("scraper down")}
	merger := &stubMerger{}

	o := NewOrchestrator(store, assigner, followUps, refresher, merger, nil)
	summary := o.Run(context.Background(), Options{})

	// the failing assigner did not stop follow-ups for the same campaign
	require.Len(t, summary.Campaigns, 1)
	assert.Contains(t, summary.Campaigns[0].Error, "assign")
	assert.Equal(t, 2, summary.Campaigns[0].FollowUpsGenerated)

	// the failing refresher did not stop the merge
	require.Len(t, merger.budgets, 1)
	assert.Equal(t, 2, summary.LeadsMerged)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "contact refresh")
}

func TestRun_FollowUpLimitOverride(t *testing.T) {
	store := memory.New()
	activeCampaign(t, store, "Alpha", 4)

	followUps := &stubFollowUps{}
	o := NewOrchestrator(store, &stubAssigner{}, followUps, &stubRefresher{}, &stubMerger{}, nil)

	o.Run(context.Background(), Options{FollowUpLimitPerCampaign: 25})
	require.Len(t, followUps.calls, 1)
	assert.Equal(t, 25, followUps.calls[0].Limit)

	o.Run(context.Background(), Options{})
	require.Len(t, followUps.calls, 2)
	assert.Equal(t, 10, followUps.calls[1].Limit)
}
