package jobs

import (
	"fmt"
	"log/slog"

	"fleet/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the engine.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	dispatchJob *DispatchJob
	motionJob   *MotionJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	dispatchHandler commands.DispatchOrdersCommandHandler,
	motionHandler commands.MoveRobotsCommandHandler,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		dispatchJob: NewDispatchJob(dispatchHandler, logger),
		motionJob:   NewMotionJob(motionHandler, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.dispatchJob.Start(); err != nil {
		return fmt.Errorf("failed to start dispatch job: %w", err)
	}

	if err := jm.motionJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.dispatchJob.Stop()
		return fmt.Errorf("failed to start motion job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.motionJob.Stop()
	jm.dispatchJob.Stop()
}
