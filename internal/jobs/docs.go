// Package jobs provides scheduled background tasks for the delivery system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required for the delivery saga.
//
// # Available Jobs
//
// 1. TimeoutSweeperJob - Runs every second to expire suspended async saga
// steps whose deadline has passed, retrying or compensating them.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(engine, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Scheduling
//
// The sweeper uses the cron expression "* * * * * *", running every second.
// Suspension deadlines are minutes long; a one-second sweep keeps expiry
// latency negligible relative to the timeout itself.
package jobs
