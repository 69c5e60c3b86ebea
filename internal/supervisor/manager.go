package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"sync"
	"syscall"
	"time"

	"geocrawl/internal/jobs"
	"geocrawl/internal/metrics"
)

const (
	ringSize     = 100
	keepFinished = 50
	killGrace    = 5 * time.Second
)

// ErrNotTracked is returned for operations on job IDs the supervisor
// has no record of.
var ErrNotTracked = errors.New("job not tracked")

// record tracks one worker process. Supervisor-local, never persisted.
type record struct {
	JobID      string
	PID        int
	Status     jobs.Status
	StartedAt  time.Time
	PausedAt   *time.Time
	FinishedAt *time.Time
	ExitCode   *int

	logs          *ring
	proc          *os.Process
	killRequested bool
}

// Snapshot is the JSON shape of a worker record returned by the
// control surface.
type Snapshot struct {
	JobID      string      `json:"job_id"`
	PID        int         `json:"os_pid"`
	Status     jobs.Status `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	PausedAt   *time.Time  `json:"paused_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	ExitCode   *int        `json:"exit_code,omitempty"`
}

// Manager owns the worker map. Every read/modify/write of a record
// happens under the single mutex.
type Manager struct {
	logger    *slog.Logger
	workerBin string
	apiURL    string
	grace     time.Duration
	keep      int

	mu      sync.Mutex
	workers map[string]*record

	// overridable command builder, used by tests
	buildCmd func(jobID, logLevel string) *exec.Cmd
}

func NewManager(logger *slog.Logger, workerBin, apiURL string) *Manager {
	if workerBin == "" {
		workerBin = "geocrawl-worker"
	}
	m := &Manager{
		logger:    logger,
		workerBin: workerBin,
		apiURL:    apiURL,
		grace:     killGrace,
		keep:      keepFinished,
		workers:   make(map[string]*record),
	}
	m.buildCmd = m.workerCmd
	return m
}

func (m *Manager) workerCmd(jobID, logLevel string) *exec.Cmd {
	args := []string{"--job-id", jobID, "--api-url", m.apiURL}
	if logLevel != "" {
		args = append(args, "--log-level", logLevel)
	}
	cmd := exec.Command(m.workerBin, args...)
	cmd.Env = os.Environ()
	return cmd
}

// Spawn launches a worker process for the job and begins tracking it.
// Fails without retaining a record if the job is already tracked or
// the process cannot start.
func (m *Manager) Spawn(jobID, logLevel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.workers[jobID]; ok {
		return fmt.Errorf("job %s already tracked", jobID)
	}

	cmd := m.buildCmd(jobID, logLevel)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start worker for job %s: %w", jobID, err)
	}
	// Parent keeps only the read end.
	pw.Close()

	rec := &record{
		JobID:     jobID,
		PID:       cmd.Process.Pid,
		Status:    jobs.StatusRunning,
		StartedAt: time.Now().UTC(),
		logs:      newRing(ringSize),
		proc:      cmd.Process,
	}
	m.workers[jobID] = rec
	m.gcLocked()

	go m.watch(rec, pr, cmd)

	metrics.RecordSpawn()
	m.logger.Info("worker spawned", "job_id", jobID, "pid", rec.PID)
	return nil
}

// watch is the per-worker stdout-reader goroutine. It drains the pipe
// into the ring buffer and operator logs, then reaps the process.
func (m *Manager) watch(rec *record, pr *os.File, cmd *exec.Cmd) {
	prefix := rec.JobID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		m.mu.Lock()
		rec.logs.append(line)
		m.mu.Unlock()
		m.logger.Info(fmt.Sprintf("[%s] %s", prefix, line))
	}
	pr.Close()

	err := cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	m.mu.Lock()
	now := time.Now().UTC()
	rec.FinishedAt = &now
	rec.ExitCode = &code
	switch {
	case rec.killRequested:
		rec.Status = jobs.StatusKilled
	case code == 0:
		rec.Status = jobs.StatusCompleted
	default:
		rec.Status = jobs.StatusFailed
	}
	outcome := string(rec.Status)
	m.gcLocked()
	m.mu.Unlock()

	metrics.RecordWorkerExit(outcome)
	m.logger.Info("worker exited", "job_id", rec.JobID, "exit_code", code, "status", outcome)
}

// Pause suspends a running worker via the cooperative pause signal.
func (m *Manager) Pause(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.workers[jobID]
	if !ok {
		return fmt.Errorf("job %s: %w", jobID, ErrNotTracked)
	}
	if rec.Status != jobs.StatusRunning {
		return fmt.Errorf("job %s is %s, not running", jobID, rec.Status)
	}
	if err := rec.proc.Signal(syscall.SIGUSR1); err != nil {
		return fmt.Errorf("pause job %s: %w", jobID, err)
	}
	now := time.Now().UTC()
	rec.Status = jobs.StatusPaused
	rec.PausedAt = &now
	return nil
}

// Resume continues a paused worker. Idempotent at the worker's end.
func (m *Manager) Resume(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.workers[jobID]
	if !ok {
		return fmt.Errorf("job %s: %w", jobID, ErrNotTracked)
	}
	if rec.Status != jobs.StatusPaused {
		return fmt.Errorf("job %s is %s, not paused", jobID, rec.Status)
	}
	if err := rec.proc.Signal(syscall.SIGUSR2); err != nil {
		return fmt.Errorf("resume job %s: %w", jobID, err)
	}
	rec.Status = jobs.StatusRunning
	rec.PausedAt = nil
	return nil
}

// Kill requests graceful shutdown and escalates to SIGKILL after the
// grace period if the worker has not exited.
func (m *Manager) Kill(jobID string) error {
	m.mu.Lock()
	rec, ok := m.workers[jobID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("job %s: %w", jobID, ErrNotTracked)
	}
	if rec.Status.Terminal() {
		m.mu.Unlock()
		return fmt.Errorf("job %s already finished (%s)", jobID, rec.Status)
	}
	rec.killRequested = true
	proc := rec.proc
	m.mu.Unlock()

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("kill job %s: %w", jobID, err)
	}

	go func() {
		time.Sleep(m.grace)
		m.mu.Lock()
		done := rec.FinishedAt != nil
		m.mu.Unlock()
		if !done {
			m.logger.Warn("worker did not exit in grace period, escalating", "job_id", jobID)
			_ = proc.Kill()
		}
	}()
	return nil
}

// Status returns a snapshot of the record plus its most recent log
// lines (newest last).
func (m *Manager) Status(jobID string, logLines int) (Snapshot, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.workers[jobID]
	if !ok {
		return Snapshot{}, nil, fmt.Errorf("job %s: %w", jobID, ErrNotTracked)
	}
	return rec.snapshot(), rec.logs.tail(logLines), nil
}

// List returns all tracked jobs ordered by start time, newest first.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Snapshot, 0, len(m.workers))
	for _, rec := range m.workers {
		out = append(out, rec.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func (r *record) snapshot() Snapshot {
	return Snapshot{
		JobID:      r.JobID,
		PID:        r.PID,
		Status:     r.Status,
		StartedAt:  r.StartedAt,
		PausedAt:   r.PausedAt,
		FinishedAt: r.FinishedAt,
		ExitCode:   r.ExitCode,
	}
}

// gcLocked prunes finished records beyond the retention cap, oldest
// first. Caller holds the mutex.
func (m *Manager) gcLocked() {
	var finished []*record
	for _, rec := range m.workers {
		if rec.FinishedAt != nil {
			finished = append(finished, rec)
		}
	}
	if len(finished) <= m.keep {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].FinishedAt.Before(*finished[j].FinishedAt)
	})
	pruned := len(finished) - m.keep
	for _, rec := range finished[:pruned] {
		delete(m.workers, rec.JobID)
	}
	metrics.RecordGC(pruned)
}
