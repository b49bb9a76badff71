// Package scheduler runs periodic jobs such as the quality pipeline.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job represents a scheduled task.
type Job struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Scheduler runs its jobs every interval. A tick that arrives while the
// previous round is still running is dropped.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
	logger   *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler with the given interval.
func New(interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Add registers a job with the scheduler.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// RunOnce executes every job once in registration order. A failing job does
// not stop the ones after it; all failures are returned joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return errors.Join(append(errs, ctx.Err())...)
		}
		s.logger.Info("running job", "name", job.Name)
		start := time.Now()
		if err := job.Fn(ctx); err != nil {
			s.logger.Error("job failed", "name", job.Name, "error", err, "duration", time.Since(start))
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
			continue
		}
		s.logger.Info("job completed", "name", job.Name, "duration", time.Since(start))
	}
	return errors.Join(errs...)
}

// Start runs the jobs immediately and then on every tick until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %v", s.interval)
	}
	s.logger.Info("scheduler started", "interval", s.interval, "jobs", len(s.jobs))

	// In-flight rounds are cancelled, then awaited, before Start returns.
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	running := make(chan struct{}, 1)

	round := func() {
		select {
		case running <- struct{}{}:
		default:
			s.logger.Warn("previous round still running, skipping tick")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-running }()
			s.RunOnce(ctx)
		}()
	}

	round()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-s.done:
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			round()
		}
	}
}

// Stop stops the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
