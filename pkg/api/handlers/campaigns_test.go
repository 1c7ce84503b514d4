package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectra/leadcrm/pkg/assignment"
	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/store/memory"
)

func setupCampaignHandler() (*CampaignHandler, *memory.Store) {
	store := memory.New()
	return NewCampaignHandler(store, assignment.NewService(store, nil), nil, nil), store
}

func TestCreateCampaign_Validation(t *testing.T) {
	h, _ := setupCampaignHandler()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/campaigns", `{"name":"Plumbers Q3","daily_send_target":20,"follow_up_days":4}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.CreateCampaign(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var campaign models.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaign))
	assert.Equal(t, models.CampaignActive, campaign.Status)

	// single-char name fails the min=2 rule
	req = jsonRequest(http.MethodPost, "/api/v1/campaigns", `{"name":"x","daily_send_target":20,"follow_up_days":4}`)
	rec = httptest.NewRecorder()
	require.NoError(t, h.CreateCampaign(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignLeads_RespectsQuota(t *testing.T) {
	h, store := setupCampaignHandler()
	e := echo.New()

	campaign, err := store.Campaigns().Create(context.Background(), models.CampaignInput{
		Name:            "Quota Run",
		DailySendTarget: 2,
		FollowUpDays:    4,
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := store.Leads().Create(context.Background(), models.LeadInput{
			Name: fmt.Sprintf("Lead %d", i),
		})
		require.NoError(t, err)
	}

	req := jsonRequest(http.MethodPost, "/", `{"auto_only":true}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.AssignLeads(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var result assignment.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Assigned)

	assigned, err := store.Leads().List(context.Background(), models.LeadFilter{CampaignID: &campaign.ID})
	require.NoError(t, err)
	assert.Len(t, assigned, 2)
}

func TestInstantiatePlaybook(t *testing.T) {
	h, store := setupCampaignHandler()
	e := echo.New()

	_, err := store.Campaigns().CreatePlaybook(context.Background(), models.CampaignPlaybook{
		Name:            "Local Services",
		Language:        "en",
		Tone:            "friendly",
		Angle:           "seasonal discount",
		MinQualityScore: 40,
		DailySendTarget: 15,
		FollowUpDays:    5,
	})
	require.NoError(t, err)

	req := jsonRequest(http.MethodPost, "/", `{}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.InstantiatePlaybook(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var campaign models.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaign))
	assert.Equal(t, "Local Services", campaign.Name)
	assert.Equal(t, models.CampaignActive, campaign.Status)
	assert.Equal(t, 15, campaign.DailySendTarget)
	assert.Equal(t, 5, campaign.FollowUpDays)
}

func TestGetCampaign_NotFound(t *testing.T) {
	h, _ := setupCampaignHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.GetCampaign(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
