package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	LeadsCreated        prometheus.Counter
	DuplicatesRejected  *prometheus.CounterVec
	LeadsMerged         prometheus.Counter
	LeadsAssigned       prometheus.Counter
	FollowUpsGenerated  prometheus.Counter
	ScoringRuns         *prometheus.CounterVec
	MaintenanceRuns     prometheus.Counter
	MaintenanceDuration prometheus.Histogram

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		LeadsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads inserted past the duplicate gate",
		}),
		DuplicatesRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_duplicates_rejected_total",
				Help: "Total number of inserts rejected by fingerprint collision",
			},
			[]string{"source"}, // single, bulk
		),
		LeadsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leads_merged_total",
			Help: "Total number of duplicate leads merged into a master",
		}),
		LeadsAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campaign_leads_assigned_total",
			Help: "Total number of leads assigned to a campaign",
		}),
		FollowUpsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "follow_ups_generated_total",
			Help: "Total number of leads that received follow-up drafts",
		}),
		ScoringRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoring_runs_total",
				Help: "Total number of lead scoring runs",
			},
			[]string{"status"}, // scored, skipped
		),
		MaintenanceRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "maintenance_runs_total",
			Help: "Total number of maintenance runs",
		}),
		MaintenanceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "maintenance_run_duration_seconds",
			Help:    "Maintenance run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, not the actual path

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)

			return err
		}
	}
}

// RecordLeadCreated increments the leads created counter
func (m *Metrics) RecordLeadCreated() {
	m.LeadsCreated.Inc()
}

// RecordDuplicateRejected increments the duplicate rejections counter
func (m *Metrics) RecordDuplicateRejected(source string) {
	m.DuplicatesRejected.WithLabelValues(source).Inc()
}

// RecordLeadsMerged adds to the merged leads counter
func (m *Metrics) RecordLeadsMerged(count int) {
	m.LeadsMerged.Add(float64(count))
}

// RecordLeadsAssigned adds to the campaign assignments counter
func (m *Metrics) RecordLeadsAssigned(count int) {
	m.LeadsAssigned.Add(float64(count))
}

// RecordFollowUpsGenerated adds to the follow-up drafts counter
func (m *Metrics) RecordFollowUpsGenerated(count int) {
	m.FollowUpsGenerated.Add(float64(count))
}

// RecordScoringRun increments the scoring runs counter by outcome
func (m *Metrics) RecordScoringRun(scored bool) {
	status := "skipped"
	if scored {
		status = "scored"
	}
	m.ScoringRuns.WithLabelValues(status).Inc()
}

// RecordMaintenanceRun records one maintenance run and its duration
func (m *Metrics) RecordMaintenanceRun(duration time.Duration) {
	m.MaintenanceRuns.Inc()
	m.MaintenanceDuration.Observe(duration.Seconds())
}

// RecordCacheHit increments cache hits counter
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments cache misses counter
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
