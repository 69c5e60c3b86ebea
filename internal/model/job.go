package model

import (
	"time"

	"geocrawl/internal/jobs"
)

// Job is one row of the backend's crawl_jobs table plus the decoded
// settings bag, as returned by GET /api/crawl/job/:id.
type Job struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"project_id"`
	Domain      string      `json:"domain"`
	Status      jobs.Status `json:"status,omitempty"`
	URLs        []string    `json:"urls,omitempty"`
	CrawlMode   string      `json:"crawlMode,omitempty"`
	Settings    JobSettings `json:"settings"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	FailedAt    *time.Time  `json:"failed_at,omitempty"`
	RetryCount  int         `json:"retry_count,omitempty"`
}

// JobSettings is the recognized subset of the settings bag. Unknown
// keys are ignored on decode.
type JobSettings struct {
	Scope                 string   `json:"scope,omitempty"`
	JSMode                string   `json:"jsMode,omitempty"`
	MaxPages              *int     `json:"maxPages,omitempty"`
	MaxDepth              *int     `json:"maxDepth,omitempty"`
	CrawlMode             string   `json:"crawlMode,omitempty"`
	SitemapURL            string   `json:"sitemapUrl,omitempty"`
	URLs                  []string `json:"urls,omitempty"`
	SitemapAlternateLinks bool     `json:"sitemap_alternate_links,omitempty"`
}

// Crawl modes accepted in settings. all_existing has no seed semantics
// of its own and is treated as a provided-URL list.
const (
	ModeFull        = "full"
	ModeURLsOnly    = "urls_only"
	ModeSitemap     = "sitemap"
	ModeAllExisting = "all_existing"
)

// Scope policies.
const (
	ScopeSubdomain          = "subdomain"
	ScopeDomain             = "domain"
	ScopeSubfolder          = "subfolder"
	ScopeSubdomainSubfolder = "subdomain+subfolder"
)

// JS rendering modes.
const (
	JSModeOff  = "off"
	JSModeAuto = "auto"
	JSModeFull = "full"
)

// EffectiveMaxDepth applies the smart defaults: link discovery is only
// meaningful in full mode, every other mode fetches its seeds and stops.
func (s JobSettings) EffectiveMaxDepth() int {
	if s.MaxDepth != nil {
		return *s.MaxDepth
	}
	switch s.CrawlMode {
	case ModeURLsOnly, ModeSitemap, ModeAllExisting:
		return 0
	default:
		return 10
	}
}

// EffectiveMaxPages returns maxPages or the default page cap. An
// explicit zero means "crawl nothing" and is honored as-is.
func (s JobSettings) EffectiveMaxPages() int {
	if s.MaxPages != nil {
		return *s.MaxPages
	}
	return 500
}
