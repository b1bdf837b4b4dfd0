package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Reloader re-reads every cached table.
type Reloader interface {
	ReloadAll(ctx context.Context) error
}

// Scheduler periodically refreshes the table cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	reloader  Reloader
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. An interval of zero or less disables it.
func New(interval time.Duration, reloader Reloader) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		reloader:  reloader,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the reload job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		slog.Info("scheduler: reload interval not set; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler: started", slog.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if err := s.reloader.ReloadAll(ctx); err != nil {
		slog.Error("scheduler: reload failed", slog.String("error", err.Error()))
		return
	}
	slog.Info("scheduler: reloaded tables", slog.Duration("took", time.Since(started)))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}
