package scheduler

import (
	"context"
	"log/slog"

	"github.com/rjcarver/tasktrack/internal/metrics"
	"github.com/rjcarver/tasktrack/internal/repo"
	"github.com/robfig/cron/v3"
)

// Run starts a background cron that refreshes the overdue-task gauge on the
// given cron spec (e.g. "@every 1m"). It blocks until ctx is canceled, then
// stops the cron and waits for a running job to finish.
func Run(ctx context.Context, tasks *repo.TaskRepo, cronSpec string) error {
	refresh := func() {
		n, err := tasks.CountOverdue(ctx)
		if err != nil {
			slog.Error("scheduler: count overdue tasks", "error", err)
			return
		}
		metrics.SetTasksOverdue(n)
	}

	c := cron.New()
	if _, err := c.AddFunc(cronSpec, refresh); err != nil {
		return err
	}

	// Prime the gauge so it is not zero until the first tick.
	refresh()
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
