package ship

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"geocrawl/internal/fetch"
	"geocrawl/internal/jobs"
	"geocrawl/internal/model"
)

// DefaultBatchSize is the flush threshold for buffered page results.
const DefaultBatchSize = 50

// Sink delivers one batch envelope.
type Sink interface {
	SendBatch(ctx context.Context, batch model.Batch) error
}

// APISink POSTs batch envelopes to the ingestion API.
type APISink struct {
	BaseURL string
	Client  *http.Client
}

func NewAPISink(baseURL string) *APISink {
	return &APISink{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type ingestResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *APISink) SendBatch(ctx context.Context, batch model.Batch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/crawl/results", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if batch.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+batch.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ingest returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var parsed ingestResponse
	if err := json.Unmarshal(body, &parsed); err == nil && !parsed.Success && parsed.Error != "" {
		return fmt.Errorf("ingest rejected batch: %s", parsed.Error)
	}
	return nil
}

// FileSink writes each page result to its own JSON file instead of
// shipping to the API. Used for local runs and debugging.
type FileSink struct {
	Dir string
}

func (s *FileSink) SendBatch(_ context.Context, batch model.Batch) error {
	if len(batch.Pages) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	for _, page := range batch.Pages {
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal page %s: %w", page.URL, err)
		}
		path := filepath.Join(s.Dir, fetch.URLKey(page.URL)+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Shipper buffers page results and flushes them in batch envelopes.
// Send failures are logged and swallowed so a flaky ingestion API
// never aborts a crawl.
type Shipper struct {
	sink      Sink
	logger    *slog.Logger
	jobID     string
	projectID string
	apiKey    string
	batchSize int

	buffer    []model.PageResult
	stats     model.Stats
	succeeded int
}

func NewShipper(sink Sink, logger *slog.Logger, jobID, projectID, apiKey string, batchSize int) *Shipper {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Shipper{
		sink:      sink,
		logger:    logger,
		jobID:     jobID,
		projectID: projectID,
		apiKey:    apiKey,
		batchSize: batchSize,
	}
}

// Open announces the job with an immediate empty running batch.
func (s *Shipper) Open(ctx context.Context) {
	s.send(ctx, jobs.StatusRunning, nil)
}

// SetQueued records the current frontier size for the stats block.
func (s *Shipper) SetQueued(n int) {
	s.stats.PagesQueued = n
}

// Add buffers one page result and flushes when the buffer reaches the
// batch size. Every page counts toward pages_crawled so the counter
// tracks the total shipped across batches; pages carrying a transport
// error additionally count as errored.
func (s *Shipper) Add(ctx context.Context, page model.PageResult) {
	s.stats.PagesCrawled++
	if page.Error != nil {
		s.stats.PagesErrored++
	} else {
		s.succeeded++
	}
	s.buffer = append(s.buffer, page)
	if len(s.buffer) >= s.batchSize {
		s.Flush(ctx)
	}
}

// Flush ships the buffered pages as one running batch.
func (s *Shipper) Flush(ctx context.Context) {
	if len(s.buffer) == 0 {
		return
	}
	pages := s.buffer
	s.buffer = nil
	s.send(ctx, jobs.StatusRunning, pages)
}

// Close ships any remaining pages together with the terminal status:
// completed when at least one page came back without an error, failed
// otherwise.
func (s *Shipper) Close(ctx context.Context) {
	status := jobs.StatusFailed
	if s.succeeded > 0 {
		status = jobs.StatusCompleted
	}
	pages := s.buffer
	s.buffer = nil
	s.send(ctx, status, pages)
}

// Stats returns the cumulative counters shipped with each batch.
func (s *Shipper) Stats() model.Stats {
	return s.stats
}

// Succeeded reports how many pages were shipped without an error.
func (s *Shipper) Succeeded() int {
	return s.succeeded
}

func (s *Shipper) send(ctx context.Context, status jobs.Status, pages []model.PageResult) {
	if pages == nil {
		pages = []model.PageResult{}
	}
	batch := model.Batch{
		CrawlJobID: s.jobID,
		ProjectID:  s.projectID,
		APIKey:     s.apiKey,
		Status:     status,
		Pages:      pages,
		Stats:      s.stats,
	}
	if err := s.sink.SendBatch(ctx, batch); err != nil {
		s.logger.Error("batch send failed",
			"job_id", s.jobID,
			"pages", len(pages),
			"status", status,
			"error", err,
		)
		return
	}
	s.logger.Info("batch shipped",
		"job_id", s.jobID,
		"pages", len(pages),
		"status", status,
		"pages_crawled", s.stats.PagesCrawled,
		"pages_errored", s.stats.PagesErrored,
	)
}
