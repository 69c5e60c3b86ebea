package supervisor

import (
	"context"
	"log/slog"
	"time"

	"geocrawl/internal/metrics"
	"geocrawl/internal/store"
)

const (
	defaultRetryInterval = 30 * time.Second
	defaultMaxRetries    = 3
)

// RetryQueue is the slice of the store the retry scheduler depends on.
type RetryQueue interface {
	SelectRetryable(ctx context.Context, maxRetries int) ([]store.QueuedJob, error)
	ResetForRetry(ctx context.Context, jobID string) (bool, error)
	ClaimPending(ctx context.Context, jobID string) (bool, error)
}

// RetryScheduler reschedules failed jobs with exponential backoff.
// A backend whose crawl_jobs table lacks the retry columns disables
// the scheduler for the life of the process; the poller is unaffected.
type RetryScheduler struct {
	queue    RetryQueue
	spawner  Spawner
	logger   *slog.Logger
	interval time.Duration
	maxTries int
	logLevel string

	disabled bool
	now      func() time.Time
}

func NewRetryScheduler(queue RetryQueue, spawner Spawner, logger *slog.Logger, logLevel string, maxRetries int) *RetryScheduler {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &RetryScheduler{
		queue:    queue,
		spawner:  spawner,
		logger:   logger,
		interval: defaultRetryInterval,
		maxTries: maxRetries,
		logLevel: logLevel,
		now:      time.Now,
	}
}

// Run reschedules until the context is cancelled or the scheduler
// disables itself.
func (r *RetryScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		r.tick(ctx)
		if r.disabled {
			return
		}
	}
}

func (r *RetryScheduler) tick(ctx context.Context) {
	if r.disabled {
		return
	}

	failed, err := r.queue.SelectRetryable(ctx, r.maxTries)
	if err != nil {
		if store.IsSchemaError(err) {
			r.disabled = true
			r.logger.Error("job backend has no retry support, disabling retry scheduler", "error", err)
			return
		}
		r.logger.Warn("retry scan failed", "error", err)
		return
	}

	now := r.now().UTC()
	for _, job := range failed {
		if job.FailedAt == nil {
			continue
		}
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Minute
		if now.Sub(*job.FailedAt) < backoff {
			continue
		}

		reset, err := r.queue.ResetForRetry(ctx, job.ID)
		if err != nil {
			if store.IsSchemaError(err) {
				r.disabled = true
				r.logger.Error("job backend has no retry support, disabling retry scheduler", "error", err)
				return
			}
			r.logger.Warn("retry reset failed", "job_id", job.ID, "error", err)
			continue
		}
		if !reset {
			continue
		}
		metrics.RecordRetry()
		r.logger.Info("rescheduling failed job", "job_id", job.ID, "attempt", job.RetryCount+1)

		claimed, err := r.queue.ClaimPending(ctx, job.ID)
		if err != nil || !claimed {
			// The poller will pick it up on its next pass.
			continue
		}
		if err := r.spawner.Spawn(job.ID, r.logLevel); err != nil {
			r.logger.Error("spawn failed for retried job", "job_id", job.ID, "error", err)
		}
	}
}
