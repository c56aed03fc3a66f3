package jobs

import (
	"context"
	"log/slog"

	"fleet/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// MotionJob runs the motion tick on a schedule.
// Every second it advances en-route robots along their committed routes,
// completes handoffs, and docks charger-bound robots.
type MotionJob struct {
	handler commands.MoveRobotsCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewMotionJob creates a new job for the motion tick.
// Uses MoveRobotsCommandHandler to advance the fleet every second.
func NewMotionJob(handler commands.MoveRobotsCommandHandler, logger *slog.Logger) *MotionJob {
	return &MotionJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "motion_job"),
	}
}

// Start begins the motion job to run every second.
func (j *MotionJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		ctx := context.Background()
		cmd := commands.NewMoveRobotsCommand()

		if err := j.handler.Handle(ctx, cmd); err != nil {
			j.logger.ErrorContext(ctx, "Motion job failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Motion job started (running every second)")
	return nil
}

// Stop stops the motion job.
func (j *MotionJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Motion job stopped")
}
