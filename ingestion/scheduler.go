package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultRefreshInterval is how often the scheduler scrapes feeds.
const DefaultRefreshInterval = 2 * time.Hour

// Scheduler runs a pipeline periodically and prunes old batches.
type Scheduler struct {
	pipeline   *Pipeline
	interval   time.Duration
	retention  time.Duration
	runOnStart bool
	logger     *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval sets the time between runs. Non-positive values keep the default.
func WithInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithRetention sets how long batches are kept. Zero keeps every batch.
func WithRetention(retention time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.retention = retention
	}
}

// WithRunOnStart makes Start run the pipeline once before the first tick.
func WithRunOnStart(run bool) SchedulerOption {
	return func(s *Scheduler) {
		s.runOnStart = run
	}
}

// NewScheduler creates a scheduler for pipeline.
func NewScheduler(pipeline *Pipeline, opts ...SchedulerOption) (*Scheduler, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	s := &Scheduler{
		pipeline: pipeline,
		interval: DefaultRefreshInterval,
		logger:   pipeline.logger.With("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start runs the pipeline every interval until ctx is done.
// Failed runs are logged; the next tick tries again.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.interval, "retention", s.retention)

	if s.runOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.pipeline.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("scheduled ingestion failed", "err", err)
		}
		return
	}

	if _, err := s.pipeline.Prune(ctx, s.retention); err != nil {
		s.logger.Error("pruning batches failed", "err", err)
	}
}
