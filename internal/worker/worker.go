package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"geocrawl/internal/extract"
	"geocrawl/internal/fetch"
	"geocrawl/internal/jobs"
	"geocrawl/internal/model"
	"geocrawl/internal/scope"
	"geocrawl/internal/ship"
	"geocrawl/internal/sitemap"
)

// Config carries everything the worker needs beyond the job row
// itself. Override fields replace the corresponding job settings when
// set on the command line.
type Config struct {
	JobID  string
	APIURL string
	APIKey string

	OutputDir  string
	FileOutput bool

	Concurrency int
	PerHost     int
	Delay       time.Duration
	BatchSize   int

	UserAgent string
	Headers   map[string]string

	BrowserURL string
	Stealth    bool
	Markdown   bool
	LinkCheck  bool

	// CLI overrides.
	ProjectID string
	Domain    string
	Scope     string
	JSMode    string
	MaxPages  *int
	MaxDepth  *int
}

// Worker drives one crawl job end to end: load the job, seed the
// frontier, loop fetch-extract-ship, and report the terminal status.
type Worker struct {
	cfg     Config
	logger  *slog.Logger
	backend Backend
	static  fetch.Fetcher
	browser fetch.Fetcher
	ctrl    *control
}

func New(cfg Config, logger *slog.Logger, backend Backend) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "GeoCrawler/2.0"
	}
	w := &Worker{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		ctrl:    newControl(),
		static:  fetch.NewHTTPFetcher(30 * time.Second),
	}
	if cfg.BrowserURL != "" {
		screenshotDir := filepath.Join(cfg.OutputDir, "screenshots")
		w.browser = fetch.NewRodFetcher(cfg.BrowserURL, 30*time.Second, screenshotDir, cfg.Stealth)
	}
	return w
}

// outcome funnels one finished fetch back to the coordinator.
type outcome struct {
	entry Entry
	resp  *fetch.Response
	err   error
}

// Run executes the job. The returned error is fatal setup failure;
// per-page errors are recorded on their page results instead.
func (w *Worker) Run(ctx context.Context) error {
	job, err := w.backend.FetchJob(ctx, w.cfg.JobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	w.applyOverrides(job)

	mode := job.CrawlMode
	if mode == "" {
		mode = job.Settings.CrawlMode
	}
	if mode == "" {
		mode = model.ModeFull
	}

	maxDepth := job.Settings.EffectiveMaxDepth()
	maxPages := job.Settings.EffectiveMaxPages()
	followLinks := mode == model.ModeFull

	selector := fetch.NewSelector(jsMode(job))
	pipeline := &extract.Pipeline{Markdown: w.cfg.Markdown, Logger: w.logger}
	if w.cfg.LinkCheck {
		pipeline.LinkCheck = &extract.LinkChecker{}
	}

	var sink ship.Sink
	if w.cfg.FileOutput {
		sink = &ship.FileSink{Dir: w.cfg.OutputDir}
	} else {
		sink = ship.NewAPISink(w.cfg.APIURL)
	}
	shipper := ship.NewShipper(sink, w.logger, job.ID, job.ProjectID, w.cfg.APIKey, w.cfg.BatchSize)

	seeds, err := w.seeds(ctx, job, mode)
	if err != nil {
		return err
	}

	filter := scope.NewFilter(scopePolicy(job), seeds)
	frontier := NewFrontier()
	for _, s := range seeds {
		frontier.Push(s, 0, "")
	}
	throttle := NewThrottle(w.cfg.Delay)

	installSignals(w.ctrl,
		func() { w.postStatus(jobs.StatusPaused) },
		func() { w.postStatus(jobs.StatusRunning) },
	)

	w.logger.Info("crawl starting",
		"job_id", job.ID,
		"mode", mode,
		"scope", scopePolicy(job),
		"js_mode", jsMode(job),
		"seeds", len(seeds),
		"max_pages", maxPages,
		"max_depth", maxDepth,
	)

	shipper.Open(ctx)
	shipper.SetQueued(frontier.Len())

	sem := make(chan struct{}, w.cfg.Concurrency)
	results := make(chan outcome)
	hostInFlight := map[string]int{}
	inFlight := 0
	scheduled := 0

	for {
		if !w.ctrl.WaitIfPaused() && inFlight == 0 {
			break
		}
		if ctx.Err() != nil && inFlight == 0 {
			break
		}

		// Fill the fetch pool from the frontier. Entries whose host is
		// at its in-flight cap go back to the head for the next pass.
		var deferred []Entry
		for !w.ctrl.Stopped() && ctx.Err() == nil && inFlight < w.cfg.Concurrency && scheduled < maxPages {
			entry, ok := frontier.Pop()
			if !ok {
				break
			}
			host := hostOf(entry.URL)
			if w.cfg.PerHost > 0 && hostInFlight[host] >= w.cfg.PerHost {
				deferred = append(deferred, entry)
				continue
			}
			hostInFlight[host]++
			scheduled++
			inFlight++
			sem <- struct{}{}
			go func(e Entry) {
				defer func() { <-sem }()
				resp, err := w.fetchOne(ctx, e, selector, throttle)
				results <- outcome{entry: e, resp: resp, err: err}
			}(entry)
		}
		for i := len(deferred) - 1; i >= 0; i-- {
			frontier.Requeue(deferred[i])
		}

		if inFlight == 0 {
			// Frontier drained, page cap hit, or stop requested.
			break
		}

		out := <-results
		inFlight--
		hostInFlight[hostOf(out.entry.URL)]--

		page := w.buildPage(ctx, pipeline, job, mode, out)
		if followLinks && out.resp != nil && page.Error == nil && out.entry.Depth < maxDepth {
			enqueued := 0
			for _, link := range page.InternalLinks {
				if !filter.Allows(link.URL) {
					continue
				}
				if frontier.Push(link.URL, out.entry.Depth+1, out.entry.URL) {
					enqueued++
				}
			}
			if enqueued > 0 {
				w.logger.Debug("links enqueued", "from", out.entry.URL, "count", enqueued)
			}
		}
		shipper.SetQueued(frontier.Len())
		shipper.Add(ctx, page)
	}

	shipper.Close(ctx)
	stats := shipper.Stats()
	w.logger.Info("crawl finished",
		"job_id", job.ID,
		"pages_crawled", stats.PagesCrawled,
		"pages_errored", stats.PagesErrored,
	)
	if shipper.Succeeded() == 0 && maxPages > 0 {
		return fmt.Errorf("no pages crawled")
	}
	return nil
}

func (w *Worker) applyOverrides(job *model.Job) {
	if w.cfg.ProjectID != "" {
		job.ProjectID = w.cfg.ProjectID
	}
	if w.cfg.Domain != "" {
		job.Domain = w.cfg.Domain
	}
	if w.cfg.Scope != "" {
		job.Settings.Scope = w.cfg.Scope
	}
	if w.cfg.JSMode != "" {
		job.Settings.JSMode = w.cfg.JSMode
	}
	if w.cfg.MaxPages != nil {
		job.Settings.MaxPages = w.cfg.MaxPages
	}
	if w.cfg.MaxDepth != nil {
		job.Settings.MaxDepth = w.cfg.MaxDepth
	}
}

// seeds builds the initial frontier for the crawl mode.
func (w *Worker) seeds(ctx context.Context, job *model.Job, mode string) ([]string, error) {
	switch mode {
	case model.ModeURLsOnly, model.ModeAllExisting:
		urls := job.URLs
		if len(urls) == 0 {
			urls = job.Settings.URLs
		}
		if len(urls) == 0 {
			return nil, fmt.Errorf("mode %s requires a url list", mode)
		}
		return urls, nil
	case model.ModeSitemap:
		ingester := sitemap.NewIngester(w.logger, job.Settings.SitemapAlternateLinks)
		if sm := job.Settings.SitemapURL; sm != "" {
			urls, err := ingester.CollectFrom(ctx, sm)
			if err != nil {
				return nil, fmt.Errorf("sitemap seeds: %w", err)
			}
			return urls, nil
		}
		urls, err := ingester.Discover(ctx, job.Domain)
		if err != nil {
			return nil, fmt.Errorf("sitemap seeds: %w", err)
		}
		return urls, nil
	default:
		if job.Domain == "" {
			return nil, fmt.Errorf("job has no domain")
		}
		seed := job.Domain
		if !strings.Contains(seed, "://") {
			seed = "https://" + seed
		}
		if _, err := url.Parse(seed); err != nil {
			return nil, fmt.Errorf("invalid domain %q: %w", job.Domain, err)
		}
		return []string{seed}, nil
	}
}

// fetchOne applies throttling, picks the transport, and observes the
// render signal for auto mode.
func (w *Worker) fetchOne(ctx context.Context, e Entry, selector *fetch.Selector, throttle *Throttle) (*fetch.Response, error) {
	host := hostOf(e.URL)
	if err := throttle.Wait(ctx, host); err != nil {
		return nil, err
	}

	req := fetch.Request{
		URL:       e.URL,
		UserAgent: w.cfg.UserAgent,
		Headers:   w.cfg.Headers,
		Referrer:  e.Referrer,
	}

	useBrowser := w.browser != nil && selector.UseBrowser(host, e.Depth)
	if useBrowser {
		resp, err := w.browser.Fetch(ctx, req)
		if err == nil {
			throttle.Observe(host, resp.StatusCode)
			return resp, nil
		}
		w.logger.Warn("browser fetch failed, falling back to http", "url", e.URL, "error", err)
	}

	resp, err := w.static.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	throttle.Observe(host, resp.StatusCode)

	// In auto mode a static page that turns out to be an app shell is
	// refetched rendered, and the host decision is remembered.
	if w.browser != nil && resp.StatusCode < 400 {
		stripped := strippedText(resp.Body)
		if selector.Observe(host, resp.Body, stripped) {
			if rendered, rerr := w.browser.Fetch(ctx, req); rerr == nil {
				return rendered, nil
			}
		}
	}
	return resp, nil
}

// buildPage turns a fetch outcome into the shipped page result.
func (w *Worker) buildPage(ctx context.Context, pipeline *extract.Pipeline, job *model.Job, mode string, out outcome) model.PageResult {
	in := extract.Input{
		URL:      out.entry.URL,
		Depth:    out.entry.Depth,
		Referrer: out.entry.Referrer,
		Mode:     mode,
		JSMode:   jsMode(job),
		Scope:    scopePolicy(job),
	}
	if out.err != nil {
		in.Error = out.err.Error()
		w.logger.Warn("fetch failed", "url", out.entry.URL, "error", out.err)
	} else {
		resp := out.resp
		status := resp.StatusCode
		in.StatusCode = &status
		in.RawHTML = resp.Body
		in.ResponseHeaders = resp.Headers
		in.RequestHeaders = resp.RequestHeaders
		latency := resp.LatencyS
		in.DownloadLatencyS = &latency
		in.Timing = resp.Timing
		in.ScreenshotPath = resp.ScreenshotPath
		if status >= 400 {
			msg := fmt.Sprintf("http status %d", status)
			in.Error = msg
		}
	}
	return pipeline.Process(ctx, in)
}

func (w *Worker) postStatus(status jobs.Status) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.backend.PostStatus(ctx, w.cfg.JobID, status); err != nil {
		w.logger.Warn("status update failed", "status", status, "error", err)
	}
}

func scopePolicy(job *model.Job) string {
	if job.Settings.Scope != "" {
		return job.Settings.Scope
	}
	return model.ScopeDomain
}

func jsMode(job *model.Job) string {
	if job.Settings.JSMode != "" {
		return job.Settings.JSMode
	}
	return model.JSModeOff
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Hostname()
}

// strippedText is a cheap tag-stripping pass used only for the render
// signal; the real extraction re-parses with the full HTML facade.
func strippedText(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
