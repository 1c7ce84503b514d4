package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/prospectra/leadcrm/pkg/maintenance"
	"github.com/prospectra/leadcrm/pkg/merge"
	"github.com/prospectra/leadcrm/pkg/metrics"
	"github.com/prospectra/leadcrm/pkg/models"
)

// MaintenanceHandler exposes the batch triggers that cron also drives.
type MaintenanceHandler struct {
	orchestrator *maintenance.Orchestrator
	merger       *merge.Service
	metrics      *metrics.Metrics
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(orchestrator *maintenance.Orchestrator, merger *merge.Service, m *metrics.Metrics) *MaintenanceHandler {
	return &MaintenanceHandler{
		orchestrator: orchestrator,
		merger:       merger,
		metrics:      m,
	}
}

// RunRequest tunes one manually triggered maintenance run.
type RunRequest struct {
	ContactDaysStale         int `json:"contactDaysStale" validate:"omitempty,min=1,max=365"`
	ContactLimit             int `json:"contactLimit" validate:"omitempty,min=1,max=10000"`
	FollowUpLimitPerCampaign int `json:"followUpLimitPerCampaign" validate:"omitempty,min=1,max=1000"`
}

// Run godoc
// @Summary Trigger a maintenance run
// @Description Per-campaign assignment and follow-ups, then a global contact refresh and merge
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param options body RunRequest false "Run options"
// @Success 200 {object} maintenance.Summary
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/maintenance/run [post]
func (h *MaintenanceHandler) Run(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Minute)
	defer cancel()

	var req RunRequest
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

	start := time.Now()
	summary := h.orchestrator.Run(ctx, maintenance.Options{
		ContactDaysStale:         req.ContactDaysStale,
		ContactLimit:             req.ContactLimit,
		FollowUpLimitPerCampaign: req.FollowUpLimitPerCampaign,
	})

	if h.metrics != nil {
		h.metrics.RecordMaintenanceRun(time.Since(start))
		h.metrics.RecordLeadsMerged(summary.LeadsMerged)
		for _, cs := range summary.Campaigns {
			h.metrics.RecordLeadsAssigned(cs.Assigned)
			h.metrics.RecordFollowUpsGenerated(cs.FollowUpsGenerated)
		}
	}
	return c.JSON(http.StatusOK, summary)
}

// MergeRequest bounds one manually triggered merge pass.
type MergeRequest struct {
	Budget int `json:"budget" validate:"omitempty,min=1,max=1000"`
}

// Merge godoc
// @Summary Trigger a duplicate merge pass
// @Description Scan the lead population and collapse fingerprint collisions into masters
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param options body MergeRequest false "Merge budget"
// @Success 200 {object} merge.Result
// @Router /api/v1/maintenance/merge [post]
func (h *MaintenanceHandler) Merge(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Minute)
	defer cancel()

	var req MergeRequest
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

	result, err := h.merger.Run(ctx, req.Budget)
	if err != nil {
		return domainError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordLeadsMerged(result.Merged)
	}
	return c.JSON(http.StatusOK, result)
}
