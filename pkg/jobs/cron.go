package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/prospectra/leadcrm/pkg/maintenance"
	"github.com/prospectra/leadcrm/pkg/merge"
	"github.com/prospectra/leadcrm/pkg/metrics"
)

// CronManager manages scheduled jobs
type CronManager struct {
	cron         *cron.Cron
	orchestrator *maintenance.Orchestrator
	merger       *merge.Service
	metrics      *metrics.Metrics
	opts         maintenance.Options
	logger       *log.Logger
}

// NewCronManager creates a new cron manager. opts are the defaults used
// by the nightly run; the HTTP trigger can override them per call.
func NewCronManager(orchestrator *maintenance.Orchestrator, merger *merge.Service, m *metrics.Metrics, opts maintenance.Options, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:         cron.New(),
		orchestrator: orchestrator,
		merger:       merger,
		metrics:      m,
		opts:         opts,
		logger:       logger,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	cm.logger.Println("Setting up cron jobs...")

	// Nightly at 2 AM: full maintenance run (assign, follow-ups,
	// contact refresh, merge)
	_, err := cm.cron.AddFunc("0 2 * * *", func() {
		cm.logger.Println("🕐 Running nightly maintenance...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		start := time.Now()
		summary := cm.orchestrator.Run(ctx, cm.opts)
		duration := time.Since(start)

		if cm.metrics != nil {
			cm.metrics.RecordMaintenanceRun(duration)
			cm.metrics.RecordLeadsMerged(summary.LeadsMerged)
			for _, cs := range summary.Campaigns {
				cm.metrics.RecordLeadsAssigned(cs.Assigned)
				cm.metrics.RecordFollowUpsGenerated(cs.FollowUpsGenerated)
			}
		}

		if len(summary.Errors) > 0 {
			cm.logger.Printf("⚠️ Nightly maintenance completed with %d errors: %v", len(summary.Errors), summary.Errors)
			return
		}
		cm.logger.Printf("✅ Nightly maintenance completed: %d campaigns, %d contacts refreshed, %d leads merged (duration: %v)",
			len(summary.Campaigns), summary.ContactsRefreshed, summary.LeadsMerged, duration)
	})
	if err != nil {
		return err
	}

	// Weekly on Sunday at 3 AM: deep merge pass with the maximum budget,
	// to catch duplicates the nightly budget left behind
	_, err = cm.cron.AddFunc("0 3 * * 0", func() {
		cm.logger.Println("🕐 Running weekly deep merge...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
		defer cancel()

		res, err := cm.merger.Run(ctx, merge.MaxBudget)
		if err != nil {
			cm.logger.Printf("❌ Weekly deep merge failed: %v", err)
			return
		}

		if cm.metrics != nil {
			cm.metrics.RecordLeadsMerged(res.Merged)
		}
		cm.logger.Printf("✅ Weekly deep merge completed: examined %d, merged %d", res.Examined, res.Merged)
	})
	if err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Println("  - Nightly at 2 AM: maintenance run")
	cm.logger.Println("  - Weekly on Sunday at 3 AM: deep merge")

	return nil
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	cm.cron.Stop()
}
