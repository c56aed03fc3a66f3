// Package jobs provides the scheduled heartbeat of the dispatch engine.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to drive the two periodic cycles of the engine.
//
// # Available Jobs
//
// 1. DispatchJob - Runs every second to match pending orders with eligible robots
// 2. MotionJob - Runs every second to advance robots along routes, complete handoffs, and dock chargers
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required handlers
//	jobManager := jobs.NewJobManager(dispatchHandler, motionHandler, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Both jobs use the cron expression "* * * * * *" which means they run every
// second. The motion tick advancing robots by speed * 1s keeps simulated
// speed honest; the dispatch cycle at the same cadence keeps matching latency
// under a second without a separate trigger path.
//
// # Error Handling
//
// - Both jobs log failures and keep running; a failed cycle is retried by the next tick
// - Failed job starts will stop any already running jobs
package jobs
