package supervisor

import (
	"context"
	"log/slog"
	"time"

	"geocrawl/internal/metrics"
	"geocrawl/internal/store"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollBatch    = 10
	pollReminderEvery   = 60
)

// Queue is the slice of the store the poller depends on.
type Queue interface {
	SelectPending(ctx context.Context, limit int) ([]store.QueuedJob, error)
	ClaimPending(ctx context.Context, jobID string) (bool, error)
	MarkFailed(ctx context.Context, jobID string) error
}

// Spawner launches a worker for a claimed job.
type Spawner interface {
	Spawn(jobID, logLevel string) error
}

// Poller claims pending jobs from the queue and hands them to the
// process manager. Transient backend failures are expected during
// deploys, so error logging is rate limited: the first failure is
// logged, later ones are counted with a periodic reminder, and
// recovery produces a single notice.
type Poller struct {
	queue    Queue
	spawner  Spawner
	logger   *slog.Logger
	interval time.Duration
	batch    int
	logLevel string

	errStreak int
}

func NewPoller(queue Queue, spawner Spawner, logger *slog.Logger, logLevel string, batch int) *Poller {
	if batch <= 0 {
		batch = defaultPollBatch
	}
	return &Poller{
		queue:    queue,
		spawner:  spawner,
		logger:   logger,
		interval: defaultPollInterval,
		batch:    batch,
		logLevel: logLevel,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		p.tick(ctx)
	}
}

func (p *Poller) tick(ctx context.Context) {
	pending, err := p.queue.SelectPending(ctx, p.batch)
	if err != nil {
		metrics.RecordPoll(true)
		p.errStreak++
		switch {
		case p.errStreak == 1:
			p.logger.Error("queue poll failed", "error", err)
		case p.errStreak%pollReminderEvery == 0:
			p.logger.Warn("queue still unreachable", "consecutive_failures", p.errStreak, "error", err)
		}
		return
	}
	metrics.RecordPoll(false)
	if p.errStreak > 0 {
		p.logger.Info("queue connection restored", "failures_during_outage", p.errStreak)
		p.errStreak = 0
	}

	for _, job := range pending {
		claimed, err := p.queue.ClaimPending(ctx, job.ID)
		if err != nil {
			p.logger.Warn("claim failed", "job_id", job.ID, "error", err)
			continue
		}
		if !claimed {
			// Another supervisor got there first.
			continue
		}
		metrics.RecordClaim()

		if err := p.spawner.Spawn(job.ID, p.logLevel); err != nil {
			p.logger.Error("spawn failed for claimed job", "job_id", job.ID, "error", err)
			if err := p.queue.MarkFailed(ctx, job.ID); err != nil {
				p.logger.Warn("could not mark unspawnable job failed", "job_id", job.ID, "error", err)
			}
		}
	}
}
