package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/prospectra/leadcrm/pkg/assignment"
	"github.com/prospectra/leadcrm/pkg/cache"
	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/metrics"
	"github.com/prospectra/leadcrm/pkg/models"
)

// CampaignHandler handles campaign CRUD, playbooks and assignment runs.
type CampaignHandler struct {
	store    domain.Store
	assigner *assignment.Service
	cache    *cache.Client
	metrics  *metrics.Metrics
}

// NewCampaignHandler creates a new campaign handler. The cache is optional;
// when set, assignment runs invalidate cached priority queues.
func NewCampaignHandler(store domain.Store, assigner *assignment.Service, cacheClient *cache.Client, m *metrics.Metrics) *CampaignHandler {
	return &CampaignHandler{
		store:    store,
		assigner: assigner,
		cache:    cacheClient,
		metrics:  m,
	}
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param campaign body models.CampaignInput true "Campaign fields"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var input models.CampaignInput
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

	campaign, err := h.store.Campaigns().Create(ctx, input)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, campaign)
}

// ListCampaigns godoc
// @Summary List campaigns
// @Tags Campaigns
// @Produce json
// @Param status query string false "Status filter (ACTIVE, PAUSED, ARCHIVED)"
// @Success 200 {array} models.Campaign
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var status *models.CampaignStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := models.CampaignStatus(raw)
		status = &s
	}

	campaigns, err := h.store.Campaigns().List(ctx, status)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, campaigns)
}

// GetCampaign godoc
// @Summary Get a campaign
// @Tags Campaigns
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := pathID(c)
	if err != nil {
		return domainError(c, err)
	}

	campaign, err := h.store.Campaigns().Get(ctx, id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, campaign)
}

// UpdateCampaignRequest is a partial campaign update.
type UpdateCampaignRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=2"`
	CategoryID      *int    `json:"category_id"`
	LocationID      *int    `json:"location_id"`
	Language        *string `json:"language" validate:"omitempty,len=2"`
	Tone            *string `json:"tone"`
	Angle           *string `json:"angle"`
	MinQualityScore *int    `json:"min_quality_score" validate:"omitempty,min=0,max=100"`
	DailySendTarget *int    `json:"daily_send_target" validate:"omitempty,min=1,max=500"`
	FollowUpDays    *int    `json:"follow_up_days" validate:"omitempty,min=1,max=90"`
	Status          *string `json:"status" validate:"omitempty,oneof=ACTIVE PAUSED ARCHIVED"`
}

// UpdateCampaign godoc
// @Summary Update a campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path int true "Campaign ID"
// @Param campaign body UpdateCampaignRequest true "Fields to change"
// @Success 200 {object} models.Campaign
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/campaigns/{id} [patch]
func (h *CampaignHandler) UpdateCampaign(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := pathID(c)
	if err != nil {
		return domainError(c, err)
	}

	var req UpdateCampaignRequest
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

	patch := models.CampaignPatch{
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		LocationID:      req.LocationID,
		Language:        req.Language,
		Tone:            req.Tone,
		Angle:           req.Angle,
		MinQualityScore: req.MinQualityScore,
		DailySendTarget: req.DailySendTarget,
		FollowUpDays:    req.FollowUpDays,
	}
	if req.Status != nil {
		status := models.CampaignStatus(*req.Status)
		patch.Status = &status
	}

	campaign, err := h.store.Campaigns().Update(ctx, id, patch)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, campaign)
}

// AssignRequest tunes one assignment run.
type AssignRequest struct {
	AutoOnly bool     `json:"auto_only"`
	Statuses []string `json:"statuses" validate:"omitempty,dive,oneof=NEW DRAFTED SENT REPLIED QUALIFIED WON LOST"`
	Limit    int      `json:"limit" validate:"omitempty,min=1,max=1000"`
}

// AssignLeads godoc
// @Summary Assign leads to a campaign
// @Description Select the best matching leads up to the campaign's daily send target and write the reference
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path int true "Campaign ID"
// @Param options body AssignRequest true "Run options"
// @Success 200 {object} assignment.Result
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/campaigns/{id}/assign [post]
func (h *CampaignHandler) AssignLeads(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	id, err := pathID(c)
	if err != nil {
		return domainError(c, err)
	}

	var req AssignRequest
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

	opts := assignment.Options{
		CampaignID:    id,
		AutoOnly:      req.AutoOnly,
		LimitOverride: req.Limit,
	}
	for _, s := range req.Statuses {
		opts.Statuses = append(opts.Statuses, models.LeadStatus(s))
	}

	result, err := h.assigner.Assign(ctx, opts)
	if err != nil {
		return domainError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordLeadsAssigned(result.Assigned)
	}
	if h.cache != nil && result.Assigned > 0 {
		_ = h.cache.InvalidateLeads(ctx)
	}
	return c.JSON(http.StatusOK, result)
}

// CreatePlaybook godoc
// @Summary Create a campaign playbook
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param playbook body models.CampaignPlaybook true "Playbook template"
// @Success 201 {object} models.CampaignPlaybook
// @Router /api/v1/playbooks [post]
func (h *CampaignHandler) CreatePlaybook(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var pb models.CampaignPlaybook
	if err := c.Bind(&pb); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_body",
			Message: "Request body must be valid JSON",
		})
	}
	if pb.Name == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_failed",
			Message: "name is required",
		})
	}

	created, err := h.store.Campaigns().CreatePlaybook(ctx, pb)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// ListPlaybooks godoc
// @Summary List campaign playbooks
// @Tags Campaigns
// @Produce json
// @Success 200 {array} models.CampaignPlaybook
// @Router /api/v1/playbooks [get]
func (h *CampaignHandler) ListPlaybooks(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	playbooks, err := h.store.Campaigns().ListPlaybooks(ctx)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, playbooks)
}

// InstantiatePlaybook godoc
// @Summary Create a campaign from a playbook
// @Description Stamp out a new ACTIVE campaign using a playbook's targeting and outreach defaults
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path int true "Playbook ID"
// @Success 201 {object} models.Campaign
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/playbooks/{id}/campaigns [post]
func (h *CampaignHandler) InstantiatePlaybook(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := pathID(c)
	if err != nil {
		return domainError(c, err)
	}

	pb, err := h.store.Campaigns().GetPlaybook(ctx, id)
	if err != nil {
		return domainError(c, err)
	}

	campaign, err := h.store.Campaigns().Create(ctx, models.CampaignInput{
		Name:            pb.Name,
		CategoryID:      pb.CategoryID,
		LocationID:      pb.LocationID,
		Language:        pb.Language,
		Tone:            pb.Tone,
		Angle:           pb.Angle,
		MinQualityScore: pb.MinQualityScore,
		DailySendTarget: pb.DailySendTarget,
		FollowUpDays:    pb.FollowUpDays,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, campaign)
}
