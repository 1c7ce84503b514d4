package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/prospectra/leadcrm/pkg/cache"
	"github.com/prospectra/leadcrm/pkg/dedupe"
	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/leadscoring"
	"github.com/prospectra/leadcrm/pkg/metrics"
	"github.com/prospectra/leadcrm/pkg/models"
)

// LeadHandler handles lead CRUD, imports and duplicate checks.
type LeadHandler struct {
	store   domain.Store
	dedupe  *dedupe.Service
	cache   *cache.Client
	metrics *metrics.Metrics
}

// NewLeadHandler creates a new lead handler. The cache is optional; when set,
// write paths invalidate cached priority queues.
func NewLeadHandler(store domain.Store, dedupeService *dedupe.Service, cacheClient *cache.Client, m *metrics.Metrics) *LeadHandler {
	return &LeadHandler{
		store:   store,
		dedupe:  dedupeService,
		cache:   cacheClient,
		metrics: m,
	}
}

func (h *LeadHandler) invalidateCache(ctx context.Context) {
	if h.cache != nil {
		_ = h.cache.InvalidateLeads(ctx)
	}
}

// CreateLead godoc
// @Summary Create a lead
// @Description Insert a new lead unless an identity fingerprint collides with an existing one
// @Tags Leads
// @Accept json
// @Produce json
// @Param lead body models.LeadInput true "Lead fields"
// @Success 201 {object} models.LeadResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/leads [post]
func (h *LeadHandler) CreateLead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var input models.LeadInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_body",
			Message: "Request body must be valid JSON",
		})
	}
	if err := validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	lead, err := h.dedupe.InsertLead(ctx, input)
	if err != nil {
		if domain.IsDuplicate(err) && h.metrics != nil {
			h.metrics.RecordDuplicateRejected("single")
		}
		return domainError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordLeadCreated()
	}
	h.invalidateCache(ctx)
	return c.JSON(http.StatusCreated, withQuality(lead))
}

// BulkImportRequest is a batch of lead rows, typically from a CSV.
type BulkImportRequest struct {
	Leads []models.LeadInput `json:"leads" validate:"required,min=1,max=5000"`
}

// BulkImport godoc
// @Summary Bulk import leads
// @Description Insert many leads in one call; duplicates within the batch and against existing data are skipped
// @Tags Leads
// @Accept json
// @Produce json
// @Param batch body BulkImportRequest true "Lead rows"
// @Success 200 {object} models.BulkInsertResult
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/leads/bulk [post]
func (h *LeadHandler) BulkImport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	var req BulkImportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_body",
			Message: "Request body must be valid JSON",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	result, err := h.dedupe.BulkInsert(ctx, req.Leads)
	if err != nil {
		return domainError(c, err)
	}

	if h.metrics != nil {
		for range result.Inserted {
			h.metrics.RecordLeadCreated()
		}
		for i := 0; i < result.SkippedDuplicates; i++ {
			h.metrics.RecordDuplicateRejected("bulk")
		}
	}
	if len(result.Inserted) > 0 {
		h.invalidateCache(ctx)
	}
	return c.JSON(http.StatusOK, result)
}

// GetLead godoc
// @Summary Get a lead
// @Description Fetch one lead with its quality score recomputed from current fields
// @Tags Leads
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} models.LeadResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/leads/{id} [get]
func (h *LeadHandler) GetLead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := pathID(c)
	if err != nil {
		return domainError(c, err)
	}

	lead, err := h.store.Leads().Get(ctx, id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, withQuality(lead))
}

// ListLeads godoc
// @Summary List leads
// @Description List leads filtered by status, campaign or assignment, each with a derived quality score
// @Tags Leads
// @Produce json
// @Param status query string false "Comma-separated status filter (e.g. NEW,DRAFTED)"
// @Param campaign_id query int false "Campaign filter"
// @Param unassigned query bool false "Only leads with no campaign"
// @Param limit query int false "Max rows (default 100)"
// @Success 200 {array} models.LeadResponse
// @Router /api/v1/leads [get]
func (h *LeadHandler) ListLeads(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	filter := models.LeadFilter{
		CampaignID: queryIntPtr(c, "campaign_id"),
		Unassigned: queryBool(c, "unassigned"),
		Limit:      queryInt(c, "limit", 100),
	}
	if raw := c.QueryParam("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, models.LeadStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}

	leads, err := h.store.Leads().List(ctx, filter)
	if err != nil {
		return domainError(c, err)
	}

	out := make([]models.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, withQuality(lead))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateStatus godoc
// @Summary Update a lead's status
// @Description Move a lead through the outreach lifecycle; moving to SENT stamps last_contacted_at
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param status body models.UpdateStatusRequest true "New status"
// @Success 200 {object} models.LeadResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/leads/{id}/status [patch]
func (h *LeadHandler) UpdateStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := pathID(c)
	if err != nil {
		return domainError(c, err)
	}

	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_body",
			Message: "Request body must be valid JSON",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	current, err := h.store.Leads().Get(ctx, id)
	if err != nil {
		return domainError(c, err)
	}

	status := models.LeadStatus(req.Status)
	patch := models.LeadPatch{Status: &status}
	if status == models.StatusSent {
		now := time.Now()
		patch.LastContactedAt = &now
	}

	lead, err := h.store.Leads().Update(ctx, id, patch)
	if err != nil {
		return domainError(c, err)
	}

	metadata := map[string]string{
		"from": string(current.Status),
		"to":   string(status),
	}
	if req.Note != "" {
		metadata["note"] = req.Note
	}
	if _, err := h.store.Events().Append(ctx, models.OutreachEvent{
		LeadID:    id,
		EventType: "status_changed",
		Metadata:  metadata,
	}); err != nil {
		return domainError(c, err)
	}

	h.invalidateCache(ctx)
	return c.JSON(http.StatusOK, withQuality(lead))
}

// CheckDuplicates godoc
// @Summary Pre-flight duplicate check
// @Description Score existing leads against partial contact fields without writing anything
// @Tags Leads
// @Accept json
// @Produce json
// @Param query body dedupe.DuplicateQuery true "Partial contact fields"
// @Param limit query int false "Max matches (default 8, max 20)"
// @Success 200 {array} dedupe.Match
// @Router /api/v1/leads/check-duplicates [post]
func (h *LeadHandler) CheckDuplicates(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var query dedupe.DuplicateQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_body",
			Message: "Request body must be valid JSON",
		})
	}

	matches, err := h.dedupe.FindMatches(ctx, query, queryInt(c, "limit", 0))
	if err != nil {
		return domainError(c, err)
	}
	if matches == nil {
		matches = []dedupe.Match{}
	}
	return c.JSON(http.StatusOK, matches)
}

// withQuality recomputes the derived quality score for a response.
func withQuality(lead *models.Lead) models.LeadResponse {
	result := leadscoring.Compute(lead)
	return models.LeadResponse{
		Lead:         *lead,
		QualityScore: result.Score,
		QualityTier:  result.Tier,
	}
}
