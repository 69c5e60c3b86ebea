package model

import "geocrawl/internal/jobs"

// Batch is the envelope POSTed to the ingestion API. The API is
// expected to be idempotent on (crawl_job_id, url).
type Batch struct {
	CrawlJobID string       `json:"crawl_job_id"`
	ProjectID  string       `json:"project_id"`
	APIKey     string       `json:"api_key"`
	Status     jobs.Status  `json:"status"`
	Pages      []PageResult `json:"pages"`
	Stats      Stats        `json:"stats"`
}

// Stats accumulate over the job's lifetime and ship with every batch.
type Stats struct {
	PagesQueued  int `json:"pages_queued"`
	PagesCrawled int `json:"pages_crawled"`
	PagesErrored int `json:"pages_errored"`
}

// StatusUpdate is the pause/resume callback body for
// POST /api/crawl/status.
type StatusUpdate struct {
	CrawlJobID string      `json:"crawl_job_id"`
	Status     jobs.Status `json:"status"`
	UpdatedAt  string      `json:"updated_at"`
}
