package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// stepExpirer is the slice of the saga engine the sweeper drives.
type stepExpirer interface {
	ExpireDueSteps(ctx context.Context, now time.Time)
}

// TimeoutSweeperJob periodically expires suspended async saga steps whose
// deadline has passed. Expiry either retries the step's forward action or,
// once the retry budget is spent, fails the step and compensates its saga.
//
// The sweep races external resolutions by design; the registry's atomic
// removal guarantees each suspended step is resolved exactly once.
type TimeoutSweeperJob struct {
	engine stepExpirer
	cron   *cron.Cron
	logger *slog.Logger
}

// NewTimeoutSweeperJob creates a sweeper driving the given engine.
func NewTimeoutSweeperJob(engine stepExpirer, logger *slog.Logger) *TimeoutSweeperJob {
	return &TimeoutSweeperJob{
		engine: engine,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "timeout_sweeper_job"),
	}
}

// Start begins the sweeper, running every second.
func (j *TimeoutSweeperJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		j.engine.ExpireDueSteps(context.Background(), time.Now())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Timeout sweeper job started (running every second)")
	return nil
}

// Stop stops the sweeper.
func (j *TimeoutSweeperJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Timeout sweeper job stopped")
}
