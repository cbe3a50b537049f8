package jobs

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/events"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/service"
)

const defaultRelayBatch = 100

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services  *Services
	outbox    repository.OutboxRepository
	publisher events.Publisher
	config    *config.Config
	now       func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Notifications service.NotificationService
	Invoices      service.InvoiceService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, outbox repository.OutboxRepository, publisher events.Publisher, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services:  services,
		outbox:    outbox,
		publisher: publisher,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Config exposes the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	start := time.Now()
	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
}

// Jobs maps the run-once names accepted by the cronjob binary to their jobs
func (jr *JobRunner) Jobs() map[string]func() {
	return map[string]func(){
		"process-scheduled-notifications": jr.ProcessScheduledNotifications,
		"update-late-fees":                jr.UpdateLateFees,
		"relay-outbox-events":             jr.RelayOutboxEvents,
		"send-installment-reminders":      jr.SendInstallmentReminders,
	}
}

// RunOnce runs the named job, or every job for "all"
func (jr *JobRunner) RunOnce(name string) error {
	if name == "all" {
		jr.ProcessScheduledNotifications()
		jr.UpdateLateFees()
		jr.SendInstallmentReminders()
		jr.RelayOutboxEvents()
		return nil
	}
	job, ok := jr.Jobs()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	job()
	return nil
}

func jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Minute)
}
