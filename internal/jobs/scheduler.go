package jobs

import (
	"fmt"
	"time"

	"voltz-ledger-go/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *JobRunner
}

// NewScheduler creates a scheduler and registers the configured jobs
func NewScheduler(jobRunner *JobRunner, cfg models.JobsConfig) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs(cfg models.JobsConfig) error {
	if cfg.ReconcileWallets == "" {
		zap.L().Info("Wallet reconciliation job disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(cfg.ReconcileWallets, s.jobs.ReconcileWallets); err != nil {
		return fmt.Errorf("failed to register ReconcileWallets job %q: %w", cfg.ReconcileWallets, err)
	}

	zap.L().Info("Cron jobs registered", zap.Int("count", len(s.cron.Entries())))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	zap.L().Info("Starting cron scheduler...")
	s.cron.Start()
	zap.L().Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	zap.L().Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.L().Info("Cron scheduler stopped")
}

// IsRunning returns true if any job is registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
