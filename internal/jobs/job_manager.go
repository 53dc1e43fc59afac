package jobs

import (
	"fmt"
	"log/slog"

	"fooddelivery/internal/core/saga"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	timeoutSweeperJob *TimeoutSweeperJob
}

// NewJobManager creates a job manager wired to the saga engine.
func NewJobManager(engine *saga.Engine, logger *slog.Logger) *JobManager {
	return &JobManager{
		timeoutSweeperJob: NewTimeoutSweeperJob(engine, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.timeoutSweeperJob.Start(); err != nil {
		return fmt.Errorf("failed to start timeout sweeper job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.timeoutSweeperJob.Stop()
}
