package http

import "geocrawl/internal/supervisor"

// ErrorResponse is the JSON error shape returned by every control
// surface endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SpawnRequest is the body for POST /spawn.
type SpawnRequest struct {
	JobID    string `json:"job_id"`
	LogLevel string `json:"log_level,omitempty"`
}

// SpawnResponse acknowledges a successful launch.
type SpawnResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// StatusResponse is the worker record plus its recent log tail.
type StatusResponse struct {
	supervisor.Snapshot
	Logs []string `json:"logs"`
}

// JobsResponse is the list of tracked jobs.
type JobsResponse struct {
	Jobs []supervisor.Snapshot `json:"jobs"`
}
