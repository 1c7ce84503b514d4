package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/prospectra/leadcrm/pkg/cache"
	"github.com/prospectra/leadcrm/pkg/metrics"
	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/priority"
	"github.com/prospectra/leadcrm/pkg/scoring"
)

// ScoringHandler handles scoring runs, blend weights and the priority queue.
type ScoringHandler struct {
	scoring  *scoring.Service
	priority *priority.Service
	cache    *cache.Client
	metrics  *metrics.Metrics
}

// NewScoringHandler creates a new scoring handler. The cache is optional;
// when nil the priority queue is recomputed on every request.
func NewScoringHandler(scoringService *scoring.Service, priorityService *priority.Service, cacheClient *cache.Client, m *metrics.Metrics) *ScoringHandler {
	return &ScoringHandler{
		scoring:  scoringService,
		priority: priorityService,
		cache:    cacheClient,
		metrics:  m,
	}
}

// ScoreLead godoc
// @Summary Score one lead
// @Description Compute heuristic and AI scores for a lead, blend them and persist all three
// @Tags Scoring
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} scoring.Result
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/leads/{id}/score [post]
func (h *ScoringHandler) ScoreLead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	id, err := pathID(c)
	if err != nil {
		return domainError(c, err)
	}

	result, err := h.scoring.ScoreLead(ctx, id)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordScoringRun(false)
		}
		return domainError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordScoringRun(true)
	}
	return c.JSON(http.StatusOK, result)
}

// ScoreBatchRequest names the leads to score in one run.
type ScoreBatchRequest struct {
	LeadIDs []int `json:"lead_ids" validate:"required,min=1,max=1000"`
}

// ScoreBatch godoc
// @Summary Score a batch of leads
// @Description Fan scoring out over the worker pool; per-lead failures are counted, not fatal
// @Tags Scoring
// @Accept json
// @Produce json
// @Param batch body ScoreBatchRequest true "Lead IDs"
// @Success 200 {object} scoring.BatchResult
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/scoring/run [post]
func (h *ScoringHandler) ScoreBatch(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	var req ScoreBatchRequest
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

	result, err := h.scoring.ScoreLeads(ctx, req.LeadIDs)
	if err != nil {
		return domainError(c, err)
	}

	if h.metrics != nil {
		for i := 0; i < result.Scored; i++ {
			h.metrics.RecordScoringRun(true)
		}
		for i := 0; i < result.Skipped; i++ {
			h.metrics.RecordScoringRun(false)
		}
	}
	return c.JSON(http.StatusOK, result)
}

// GetWeights godoc
// @Summary Get scoring blend weights
// @Tags Scoring
// @Produce json
// @Success 200 {object} scoring.Weights
// @Router /api/v1/scoring/weights [get]
func (h *ScoringHandler) GetWeights(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scoring.Config().Weights())
}

// UpdateWeights godoc
// @Summary Update scoring blend weights
// @Description Replace the heuristic/AI blend; the pair must sum to 1
// @Tags Scoring
// @Accept json
// @Produce json
// @Param weights body scoring.Weights true "New blend"
// @Success 200 {object} scoring.Weights
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/scoring/weights [put]
func (h *ScoringHandler) UpdateWeights(c echo.Context) error {
	var w scoring.Weights
	if err := c.Bind(&w); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_body",
			Message: "Request body must be valid JSON",
		})
	}

	if err := h.scoring.Config().SetWeights(w); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, h.scoring.Config().Weights())
}

// PriorityQueue godoc
// @Summary Ranked outreach queue
// @Description Leads ordered by outreach priority; display-only, no consumption semantics
// @Tags Scoring
// @Produce json
// @Param include_terminal query bool false "Include REPLIED/QUALIFIED/WON/LOST"
// @Param campaign_id query int false "Grant affinity bonuses for this campaign's targeting"
// @Param limit query int false "Max rows"
// @Success 200 {array} priority.Entry
// @Router /api/v1/leads/priority [get]
func (h *ScoringHandler) PriorityQueue(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	opts := priority.Options{
		IncludeTerminal: queryBool(c, "include_terminal"),
		CampaignID:      queryIntPtr(c, "campaign_id"),
		Limit:           queryInt(c, "limit", 0),
	}

	key := cache.PriorityKey(priorityScope(opts))
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, key); err == nil {
			if h.metrics != nil {
				h.metrics.RecordCacheHit("priority")
			}
			return c.JSONBlob(http.StatusOK, []byte(cached))
		}
		if h.metrics != nil {
			h.metrics.RecordCacheMiss("priority")
		}
	}

	entries, err := h.priority.Rank(ctx, opts)
	if err != nil {
		return domainError(c, err)
	}

	if h.cache != nil {
		if payload, err := json.Marshal(entries); err == nil {
			// Best effort; a failed write only costs the next request a recompute.
			_ = h.cache.Set(ctx, key, payload, cache.DefaultTTL)
		}
	}
	return c.JSON(http.StatusOK, entries)
}

func priorityScope(opts priority.Options) string {
	campaign := 0
	if opts.CampaignID != nil {
		campaign = *opts.CampaignID
	}
	return fmt.Sprintf("t=%t:c=%d:l=%d", opts.IncludeTerminal, campaign, opts.Limit)
}
