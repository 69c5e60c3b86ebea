package supervisor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"geocrawl/internal/store"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestRetryScheduler_HonorsBackoffSchedule(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQueue{retryable: []store.QueuedJob{
		// 1 minute backoff, failed 30 s ago: too soon.
		{ID: "job-soon", RetryCount: 0, FailedAt: timePtr(now.Add(-30 * time.Second))},
		// 2 minute backoff, failed 3 min ago: due.
		{ID: "job-due", RetryCount: 1, FailedAt: timePtr(now.Add(-3 * time.Minute))},
		// 4 minute backoff, failed 3 min ago: too soon.
		{ID: "job-later", RetryCount: 2, FailedAt: timePtr(now.Add(-3 * time.Minute))},
	}}
	sp := &fakeSpawner{}
	r := NewRetryScheduler(q, sp, discardLogger(), "info", 3)
	r.now = func() time.Time { return now }

	r.tick(context.Background())

	if len(q.resets) != 1 || q.resets[0] != "job-due" {
		t.Fatalf("resets = %v, want [job-due]", q.resets)
	}
	if len(sp.spawned) != 1 || sp.spawned[0] != "job-due" {
		t.Fatalf("spawned = %v, want [job-due]", sp.spawned)
	}
}

func TestRetryScheduler_DisablesPermanentlyOnSchemaError(t *testing.T) {
	q := &fakeQueue{retryableErr: fmt.Errorf("select retryable jobs: %w",
		&pgconn.PgError{Code: "42703", Message: `column "retry_count" does not exist`})}
	r := NewRetryScheduler(q, &fakeSpawner{}, discardLogger(), "info", 3)

	r.tick(context.Background())
	if !r.disabled {
		t.Fatalf("scheduler should be disabled after schema error")
	}

	r.tick(context.Background())
	if q.selectCalls != 1 {
		t.Fatalf("backend queried %d times after disable, want 1", q.selectCalls)
	}
}

func TestRetryScheduler_TransientErrorDoesNotDisable(t *testing.T) {
	q := &fakeQueue{retryableErr: fmt.Errorf("dial tcp: connection refused")}
	r := NewRetryScheduler(q, &fakeSpawner{}, discardLogger(), "info", 3)

	r.tick(context.Background())
	if r.disabled {
		t.Fatalf("transient error must not disable the scheduler")
	}
}
