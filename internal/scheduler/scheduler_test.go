package scheduler

import (
	"testing"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		ProcessScheduledNotifications: "0 */5 * * * *",
		UpdateLateFees:                "0 0 1 * * *",
		RelayOutboxEvents:             "*/30 * * * * *",
	}}

	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, nil, nil, cfg))
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 3)
	assert.True(t, s.IsRunning())
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{UpdateLateFees: "every day"}}

	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, nil, nil, cfg))
	assert.ErrorContains(t, err, "UpdateLateFees")
}
