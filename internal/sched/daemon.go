package sched

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// EntryFunc re-enters the task tracking layer for one schedule: create a
// task, run it to completion. It is the same path an external cron job
// takes through the CLI's update entry point.
type EntryFunc func(ctx context.Context, s Schedule) error

// Daemon hosts schedules in an in-process cron runner.
type Daemon struct {
	manager *Manager
	entry   EntryFunc
}

// NewDaemon creates a daemon over the given schedule manager.
func NewDaemon(m *Manager, entry EntryFunc) *Daemon {
	return &Daemon{manager: m, entry: entry}
}

// Run loads all schedules, registers them with a cron runner, and blocks
// until the context is cancelled. Entries still running at shutdown are
// given time to observe cancellation through the entry's own context.
func (d *Daemon) Run(ctx context.Context) error {
	schedules, err := d.manager.List()
	if err != nil {
		return err
	}

	c := cron.New()
	for _, s := range schedules {
		s := s
		if _, err := c.AddFunc(s.CronExpr, func() {
			slog.Info("schedule fired", "schedule_id", s.ID, "dataset", s.DatasetName)
			if err := d.entry(ctx, s); err != nil {
				slog.Error("scheduled task failed", "schedule_id", s.ID, "error", err)
			}
		}); err != nil {
			return err
		}
		slog.Info("schedule registered", "schedule_id", s.ID, "cron", s.CronExpr)
	}

	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	return nil
}
