package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectra/leadcrm/pkg/dedupe"
	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/store/memory"
)

func setupLeadHandler() (*LeadHandler, *memory.Store) {
	store := memory.New()
	return NewLeadHandler(store, dedupe.NewService(store), nil, nil), store
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestCreateLead(t *testing.T) {
	h, _ := setupLeadHandler()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/leads", `{"name":"Acme Plumbing","website":"acme.test"}`)
	rec := httptest.NewRecorder()

	err := h.CreateLead(e.NewContext(req, rec))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.LeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Acme Plumbing", resp.Name)
	assert.Equal(t, models.StatusNew, resp.Status)
	// name + website quality points
	assert.Equal(t, 34, resp.QualityScore)
}

func TestCreateLead_DuplicateConflict(t *testing.T) {
	h, _ := setupLeadHandler()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/leads", `{"name":"Acme","website":"acme.test"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.CreateLead(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	req = jsonRequest(http.MethodPost, "/api/v1/leads", `{"name":"Acme Inc","website":"https://ACME.test/"}`)
	rec = httptest.NewRecorder()
	require.NoError(t, h.CreateLead(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DUPLICATE", resp.Error)
	assert.Contains(t, resp.Message, "website")
}

func TestCreateLead_NeedsNameOrSocial(t *testing.T) {
	h, _ := setupLeadHandler()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/leads", `{"phone":"+1 555 010 1000"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.CreateLead(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkImport(t *testing.T) {
	h, _ := setupLeadHandler()
	e := echo.New()

	body := `{"leads":[
		{"name":"A","phone":"+1 555 010 1111"},
		{"name":"B","phone":"(555) 010-1111"},
		{"name":"C"}
	]}`
	req := jsonRequest(http.MethodPost, "/api/v1/leads/bulk", body)
	rec := httptest.NewRecorder()

	require.NoError(t, h.BulkImport(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.BulkInsertResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Inserted, 2)
	assert.Equal(t, 1, result.SkippedDuplicates)
}

func TestUpdateStatus_SentStampsLastContacted(t *testing.T) {
	h, store := setupLeadHandler()
	e := echo.New()

	lead, err := store.Leads().Create(context.Background(), models.LeadInput{Name: "Acme"})
	require.NoError(t, err)

	req := jsonRequest(http.MethodPatch, "/", `{"status":"SENT","note":"first touch"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/leads/:id/status")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.Leads().Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, got.Status)
	require.NotNil(t, got.LastContactedAt)

	events, err := store.Events().ListByLead(context.Background(), lead.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "status_changed", events[0].EventType)
	assert.Equal(t, "NEW", events[0].Metadata["from"])
	assert.Equal(t, "first touch", events[0].Metadata["note"])
}

func TestUpdateStatus_RejectsUnknown(t *testing.T) {
	h, store := setupLeadHandler()
	e := echo.New()

	_, err := store.Leads().Create(context.Background(), models.LeadInput{Name: "Acme"})
	require.NoError(t, err)

	req := jsonRequest(http.MethodPatch, "/", `{"status":"SHIPPED"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckDuplicates(t *testing.T) {
	h, store := setupLeadHandler()
	e := echo.New()

	_, err := store.Leads().Create(context.Background(), models.LeadInput{Name: "Acme", Website: "acme.test"})
	require.NoError(t, err)

	req := jsonRequest(http.MethodPost, "/api/v1/leads/check-duplicates", `{"website":"https://www.acme.test/"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.CheckDuplicates(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var matches []dedupe.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, 100, matches[0].Score)

	// no usable signal returns an empty list, not an error
	req = jsonRequest(http.MethodPost, "/api/v1/leads/check-duplicates", `{}`)
	rec = httptest.NewRecorder()
	require.NoError(t, h.CheckDuplicates(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	assert.Empty(t, matches)
}

func TestGetLead_NotFound(t *testing.T) {
	h, _ := setupLeadHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")

	require.NoError(t, h.GetLead(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListLeads_StatusFilter(t *testing.T) {
	h, store := setupLeadHandler()
	e := echo.New()

	_, err := store.Leads().Create(context.Background(), models.LeadInput{Name: "New One"})
	require.NoError(t, err)
	lead, err := store.Leads().Create(context.Background(), models.LeadInput{Name: "Sent One"})
	require.NoError(t, err)
	sent := models.StatusSent
	_, err = store.Leads().Update(context.Background(), lead.ID, models.LeadPatch{Status: &sent})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads?status=sent", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ListLeads(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []models.LeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Sent One", out[0].Name)
}
