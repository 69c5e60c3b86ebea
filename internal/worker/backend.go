package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"geocrawl/internal/jobs"
	"geocrawl/internal/model"
)

// Backend is the worker's view of the job API: fetch the job
// definition and report status transitions.
type Backend interface {
	FetchJob(ctx context.Context, jobID string) (*model.Job, error)
	PostStatus(ctx context.Context, jobID string, status jobs.Status) error
}

// LocalBackend serves file-output runs that have no job API. The job
// definition comes entirely from command line overrides and status
// transitions stay on the local process.
type LocalBackend struct{}

func (LocalBackend) FetchJob(_ context.Context, jobID string) (*model.Job, error) {
	return &model.Job{ID: jobID}, nil
}

func (LocalBackend) PostStatus(context.Context, string, jobs.Status) error { return nil }

// APIBackend talks to the crawl API over HTTP.
type APIBackend struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewAPIBackend(baseURL, apiKey string) *APIBackend {
	return &APIBackend{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *APIBackend) FetchJob(ctx context.Context, jobID string) (*model.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"/api/crawl/job/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	b.authorize(req)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch job %s: status %d: %s", jobID, resp.StatusCode, bytes.TrimSpace(body))
	}

	var job model.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	if job.ID == "" {
		job.ID = jobID
	}
	return &job, nil
}

func (b *APIBackend) PostStatus(ctx context.Context, jobID string, status jobs.Status) error {
	update := model.StatusUpdate{
		CrawlJobID: jobID,
		Status:     status,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/api/crawl/status", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	b.authorize(req)

	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post status for %s: %w", jobID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("post status for %s: status %d", jobID, resp.StatusCode)
	}
	return nil
}

func (b *APIBackend) authorize(req *http.Request) {
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}
}
