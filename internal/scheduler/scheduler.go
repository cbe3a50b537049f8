package scheduler

import (
	"fmt"
	"time"

	"rental-marketplace-backend/internal/jobs"
	"rental-marketplace-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler with every job registered; an invalid spec is an error
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// UTC with seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	entries := []struct {
		name string
		spec string
		fn   func()
	}{
		{"ProcessScheduledNotifications", cfg.ProcessScheduledNotifications, s.jobs.ProcessScheduledNotifications},
		{"UpdateLateFees", cfg.UpdateLateFees, s.jobs.UpdateLateFees},
		{"RelayOutboxEvents", cfg.RelayOutboxEvents, s.jobs.RelayOutboxEvents},
		{"SendInstallmentReminders", cfg.SendInstallmentReminders, s.jobs.SendInstallmentReminders},
	}

	for _, e := range entries {
		if e.spec == "" {
			logger.Warn("Job has no schedule, skipping", "job", e.name)
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.fn); err != nil {
			return fmt.Errorf("failed to register %s job with spec %q: %w", e.name, e.spec, err)
		}
		logger.Debug("Registered cron job", "job", e.name, "spec", e.spec)
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
