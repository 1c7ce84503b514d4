package main

// @title Prospectra Lead CRM API
// @version 1.0
// @description Identity resolution, quality scoring and campaign scheduling for outbound lead generation.

// @host localhost:8080
// @BasePath /api/v1

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prospectra/leadcrm/config"
	"github.com/prospectra/leadcrm/pkg/ai/llm"
	"github.com/prospectra/leadcrm/pkg/api/handlers"
	"github.com/prospectra/leadcrm/pkg/assignment"
	"github.com/prospectra/leadcrm/pkg/cache"
	"github.com/prospectra/leadcrm/pkg/dedupe"
	"github.com/prospectra/leadcrm/pkg/enrichment"
	"github.com/prospectra/leadcrm/pkg/followup"
	"github.com/prospectra/leadcrm/pkg/jobs"
	"github.com/prospectra/leadcrm/pkg/logger"
	"github.com/prospectra/leadcrm/pkg/maintenance"
	"github.com/prospectra/leadcrm/pkg/merge"
	"github.com/prospectra/leadcrm/pkg/metrics"
	custommiddleware "github.com/prospectra/leadcrm/pkg/middleware"
	"github.com/prospectra/leadcrm/pkg/priority"
	"github.com/prospectra/leadcrm/pkg/scoring"
	"github.com/prospectra/leadcrm/pkg/store/postgres"
	"github.com/prospectra/leadcrm/pkg/web"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLog := logger.New(cfg.LogLevel)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.APIEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
			BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
				return event
			},
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.APIEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	store, err := postgres.New(cfg.DatabaseURL, postgres.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer store.Close()

	// Initialize Redis cache (optional)
	var cacheClient *cache.Client
	if cfg.CacheEnabled {
		cacheClient, err = cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer cacheClient.Close()
	} else {
		log.Printf("ℹ️  Cache disabled (CACHE_ENABLED=false)")
	}

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// AI collaborator (optional; scoring degrades to the neutral fallback
	// and follow-up generation skips when no key is configured)
	var (
		aiScorer    *llm.Scorer
		scoringSvc  *scoring.Service
		followupSvc *followup.Service
	)
	scoringConfig := scoring.NewConfig()
	if err := scoringConfig.SetWeights(scoring.Weights{
		Heuristic: cfg.ScoreHeuristicWeight,
		AI:        cfg.ScoreAIWeight,
	}); err != nil {
		log.Fatalf("❌ Invalid scoring weights: %v", err)
	}

	prober := web.NewProber(time.Duration(cfg.ProbeTimeoutSeconds) * time.Second)

	if cfg.OpenAIAPIKey != "" {
		client := llm.NewOpenAIClient(llm.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}, log.Default())
		aiScorer = llm.NewScorer(client)
		log.Printf("✅ AI scorer initialized (model: %s)", cfg.OpenAIModel)
	} else {
		log.Printf("ℹ️  AI scoring disabled (no OpenAI key); using neutral fallback")
	}

	// Initialize services
	dedupeService := dedupe.NewService(store)
	mergeService := merge.NewService(store, appLog)
	priorityService := priority.NewService(store)
	assignService := assignment.NewService(store, appLog)
	refresher := web.NewRefresher(prober, "US")
	enrichService := enrichment.NewService(store, refresher, appLog)

	if aiScorer != nil {
		scoringSvc = scoring.NewService(store, aiScorer, prober, scoringConfig, appLog)
		followupSvc = followup.NewService(store, aiScorer, appLog)
	} else {
		scoringSvc = scoring.NewService(store, nil, prober, scoringConfig, appLog)
		followupSvc = followup.NewService(store, nil, appLog)
	}

	orchestrator := maintenance.NewOrchestrator(store, assignService, followupSvc, enrichService, mergeService, appLog)
	maintenanceOpts := maintenance.Options{
		ContactDaysStale:         cfg.ContactDaysStale,
		ContactLimit:             cfg.ContactRefreshLimit,
		FollowUpLimitPerCampaign: cfg.FollowUpLimitPerCampaign,
		MergeBudget:              cfg.MergeBudget,
	}

	// Initialize cron manager for nightly maintenance
	cronManager := jobs.NewCronManager(orchestrator, mergeService, prometheusMetrics, maintenanceOpts, log.Default())
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("❌ Failed to setup cron jobs: %v", err)
	}
	cronManager.Start()
	log.Printf("✅ Cron jobs started successfully")

	// Initialize handlers
	leadHandler := handlers.NewLeadHandler(store, dedupeService, cacheClient, prometheusMetrics)
	scoringHandler := handlers.NewScoringHandler(scoringSvc, priorityService, cacheClient, prometheusMetrics)
	campaignHandler := handlers.NewCampaignHandler(store, assignService, cacheClient, prometheusMetrics)
	maintenanceHandler := handlers.NewMaintenanceHandler(orchestrator, mergeService, prometheusMetrics)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	rateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(rateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Prospectra Lead CRM API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}

		if cacheClient != nil {
			if _, err := cacheClient.Redis.Ping(ctx).Result(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]any{
					"status": "unhealthy",
					"cache":  "down",
				})
			}
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
	})

	// Leads
	v1.POST("/leads", leadHandler.CreateLead)
	v1.GET("/leads", leadHandler.ListLeads)
	v1.POST("/leads/bulk", leadHandler.BulkImport)
	v1.POST("/leads/check-duplicates", leadHandler.CheckDuplicates)
	v1.GET("/leads/priority", scoringHandler.PriorityQueue)
	v1.GET("/leads/:id", leadHandler.GetLead)
	v1.PATCH("/leads/:id/status", leadHandler.UpdateStatus)
	v1.POST("/leads/:id/score", scoringHandler.ScoreLead)

	// Scoring
	v1.POST("/scoring/run", scoringHandler.ScoreBatch)
	v1.GET("/scoring/weights", scoringHandler.GetWeights)
	v1.PUT("/scoring/weights", scoringHandler.UpdateWeights)

	// Campaigns and playbooks
	v1.POST("/campaigns", campaignHandler.CreateCampaign)
	v1.GET("/campaigns", campaignHandler.ListCampaigns)
	v1.GET("/campaigns/:id", campaignHandler.GetCampaign)
	v1.PUT("/campaigns/:id", campaignHandler.UpdateCampaign)
	v1.POST("/campaigns/:id/assign", campaignHandler.AssignLeads)
	v1.POST("/playbooks", campaignHandler.CreatePlaybook)
	v1.GET("/playbooks", campaignHandler.ListPlaybooks)
	v1.POST("/playbooks/:id/campaigns", campaignHandler.InstantiatePlaybook)

	// Maintenance
	v1.POST("/maintenance/run", maintenanceHandler.Run)
	v1.POST("/maintenance/merge", maintenanceHandler.Merge)

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 Lead CRM API starting on %s", address)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("⏰ Cron jobs: Daily 2AM (maintenance), Weekly Sunday 3AM (deep merge)")

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
