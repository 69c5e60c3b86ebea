package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store wraps queue access to the crawl_jobs table on a shared
// *sql.DB with pooling.
type Store struct {
	DB *sql.DB
}

func New(database *sql.DB) *Store {
	return &Store{DB: database}
}

// QueuedJob is the slice of a crawl_jobs row the supervisor needs.
type QueuedJob struct {
	ID         string
	ProjectID  string
	CreatedAt  time.Time
	RetryCount int
	FailedAt   *time.Time
}

// SelectPending returns up to limit pending jobs, oldest first.
func (s *Store) SelectPending(ctx context.Context, limit int) ([]QueuedJob, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, project_id, created_at
		FROM crawl_jobs
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending jobs: %w", err)
	}
	defer rows.Close()

	var out []QueuedJob
	for rows.Next() {
		var j QueuedJob
		if err := rows.Scan(&j.ID, &j.ProjectID, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ClaimPending flips one job from pending to running. The conditional
// update makes the claim atomic across supervisors.
func (s *Store) ClaimPending(ctx context.Context, jobID string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE crawl_jobs
		SET status = 'running', started_at = NOW()
		WHERE id = $1 AND status = 'pending'`, jobID)
	if err != nil {
		return false, fmt.Errorf("claim job %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SelectRetryable returns failed jobs still under the retry budget.
func (s *Store) SelectRetryable(ctx context.Context, maxRetries int) ([]QueuedJob, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, project_id, created_at, retry_count, failed_at
		FROM crawl_jobs
		WHERE status = 'failed' AND retry_count < $1 AND failed_at IS NOT NULL
		ORDER BY failed_at ASC`, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("select retryable jobs: %w", err)
	}
	defer rows.Close()

	var out []QueuedJob
	for rows.Next() {
		var j QueuedJob
		if err := rows.Scan(&j.ID, &j.ProjectID, &j.CreatedAt, &j.RetryCount, &j.FailedAt); err != nil {
			return nil, fmt.Errorf("scan retryable job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ResetForRetry returns a failed job to the queue, clearing its
// timestamps and bumping retry_count. Conditional on the job still
// being failed.
func (s *Store) ResetForRetry(ctx context.Context, jobID string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE crawl_jobs
		SET status = 'pending',
		    started_at = NULL,
		    completed_at = NULL,
		    failed_at = NULL,
		    retry_count = retry_count + 1
		WHERE id = $1 AND status = 'failed'`, jobID)
	if err != nil {
		return false, fmt.Errorf("reset job %s for retry: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkFailed records a terminal failure for a job the supervisor
// could not hand to a worker.
func (s *Store) MarkFailed(ctx context.Context, jobID string) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE crawl_jobs
		SET status = 'failed', failed_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'running')`, jobID)
	if err != nil {
		return fmt.Errorf("mark job %s failed: %w", jobID, err)
	}
	return nil
}

// undefinedColumn is the Postgres error code the retry scheduler uses
// to detect a backend schema without retry support.
const undefinedColumn = "42703"

// IsSchemaError reports whether the error means the crawl_jobs table
// lacks the retry columns, a permanent condition for this process.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedColumn {
		return true
	}
	return strings.Contains(err.Error(), "retry_count does not exist")
}
