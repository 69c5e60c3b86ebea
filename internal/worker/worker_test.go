package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"geocrawl/internal/jobs"
	"geocrawl/internal/model"
)

type fakeBackend struct {
	job      *model.Job
	statuses []jobs.Status
	mu       sync.Mutex
}

func (f *fakeBackend) FetchJob(_ context.Context, _ string) (*model.Job, error) {
	return f.job, nil
}

func (f *fakeBackend) PostStatus(_ context.Context, _ string, status jobs.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

type ingestCapture struct {
	mu      sync.Mutex
	batches []model.Batch
}

func (c *ingestCapture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/crawl/results" {
			http.NotFound(w, r)
			return
		}
		var b model.Batch
		json.NewDecoder(r.Body).Decode(&b)
		c.mu.Lock()
		c.batches = append(c.batches, b)
		c.mu.Unlock()
		w.Write([]byte(`{"success":true}`))
	}
}

func (c *ingestCapture) all() []model.Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Batch(nil), c.batches...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testSite serves a tiny three-page site with one external link.
func testSite() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<p>Welcome to the landing page with enough text to matter.</p>
			<a href="/docs">Product documentation</a>
			<a href="/pricing">Pricing overview</a>
			<a href="https://other.example.net/away">Elsewhere</a>
		</body></html>`))
	})
	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Documentation index.</p><a href="/">Back home</a></body></html>`))
	})
	mux.HandleFunc("/pricing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Plans and pricing.</p></body></html>`))
	})
	return httptest.NewServer(mux)
}

func intPtr(n int) *int { return &n }

func runWorker(t *testing.T, job *model.Job, capture *ingestCapture) []model.Batch {
	t.Helper()
	ingest := httptest.NewServer(capture.handler())
	defer ingest.Close()

	backend := &fakeBackend{job: job}
	w := New(Config{
		JobID:       job.ID,
		APIURL:      ingest.URL,
		Concurrency: 2,
		Delay:       time.Millisecond,
		BatchSize:   50,
	}, discardLogger(), backend)

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return capture.all()
}

func TestWorker_FullModeCrawlsAndShips(t *testing.T) {
	site := testSite()
	defer site.Close()

	capture := &ingestCapture{}
	batches := runWorker(t, &model.Job{
		ID:        "job-1",
		ProjectID: "proj-1",
		Domain:    site.URL,
		CrawlMode: model.ModeFull,
		Settings:  model.JobSettings{Scope: model.ScopeDomain},
	}, capture)

	if len(batches) < 2 {
		t.Fatalf("expected announce batch plus final batch, got %d", len(batches))
	}
	first := batches[0]
	if first.Status != jobs.StatusRunning || len(first.Pages) != 0 {
		t.Fatalf("announce batch wrong: %+v", first)
	}
	last := batches[len(batches)-1]
	if last.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s", last.Status)
	}
	if last.Stats.PagesCrawled != 3 {
		t.Fatalf("expected 3 pages crawled, got %+v", last.Stats)
	}

	urls := map[string]bool{}
	for _, b := range batches {
		for _, p := range b.Pages {
			if urls[p.URL] {
				t.Fatalf("url fetched twice: %s", p.URL)
			}
			urls[p.URL] = true
			if b.CrawlJobID != "job-1" || b.ProjectID != "proj-1" {
				t.Fatalf("envelope identity wrong: %+v", b)
			}
		}
	}
	if len(urls) != 3 {
		t.Fatalf("expected the 3 internal pages, got %v", urls)
	}
	for u := range urls {
		if u == "https://other.example.net/away" {
			t.Fatalf("external url crossed the scope filter")
		}
	}
}

func TestWorker_MaxPagesCapsTheCrawl(t *testing.T) {
	site := testSite()
	defer site.Close()

	capture := &ingestCapture{}
	batches := runWorker(t, &model.Job{
		ID:        "job-2",
		ProjectID: "proj-1",
		Domain:    site.URL,
		CrawlMode: model.ModeFull,
		Settings:  model.JobSettings{MaxPages: intPtr(1)},
	}, capture)

	last := batches[len(batches)-1]
	if last.Stats.PagesCrawled != 1 {
		t.Fatalf("expected exactly 1 page, got %+v", last.Stats)
	}
}

func TestWorker_MaxPagesZeroCrawlsNothing(t *testing.T) {
	site := testSite()
	defer site.Close()

	capture := &ingestCapture{}
	batches := runWorker(t, &model.Job{
		ID:        "job-3",
		ProjectID: "proj-1",
		Domain:    site.URL,
		CrawlMode: model.ModeFull,
		Settings:  model.JobSettings{MaxPages: intPtr(0)},
	}, capture)

	last := batches[len(batches)-1]
	if last.Stats.PagesCrawled != 0 || last.Stats.PagesErrored != 0 {
		t.Fatalf("explicit zero must crawl nothing, got %+v", last.Stats)
	}
}

func TestWorker_URLsOnlyModeDoesNotFollowLinks(t *testing.T) {
	site := testSite()
	defer site.Close()

	capture := &ingestCapture{}
	batches := runWorker(t, &model.Job{
		ID:        "job-4",
		ProjectID: "proj-1",
		Domain:    site.URL,
		URLs:      []string{site.URL + "/docs"},
		CrawlMode: model.ModeURLsOnly,
	}, capture)

	last := batches[len(batches)-1]
	if last.Stats.PagesCrawled != 1 {
		t.Fatalf("urls_only must fetch only the given urls, got %+v", last.Stats)
	}
}

func TestWorker_MaxDepthZeroFetchesOnlySeeds(t *testing.T) {
	site := testSite()
	defer site.Close()

	capture := &ingestCapture{}
	batches := runWorker(t, &model.Job{
		ID:        "job-5",
		ProjectID: "proj-1",
		Domain:    site.URL,
		CrawlMode: model.ModeFull,
		Settings:  model.JobSettings{MaxDepth: intPtr(0)},
	}, capture)

	last := batches[len(batches)-1]
	if last.Stats.PagesCrawled != 1 {
		t.Fatalf("depth 0 must stop at the seed, got %+v", last.Stats)
	}
}

func TestWorker_ErrorPageIsShippedNotDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	capture := &ingestCapture{}
	ingest := httptest.NewServer(capture.handler())
	defer ingest.Close()

	w := New(Config{
		JobID:       "job-6",
		APIURL:      ingest.URL,
		Concurrency: 2,
		Delay:       time.Millisecond,
	}, discardLogger(), &fakeBackend{job: &model.Job{
		ID:        "job-6",
		ProjectID: "proj-1",
		Domain:    srv.URL,
		CrawlMode: model.ModeFull,
	}})
	if err := w.Run(context.Background()); err == nil {
		t.Fatalf("a job with no crawled pages must fail")
	}

	batches := capture.all()
	last := batches[len(batches)-1]
	if last.Status != jobs.StatusFailed {
		t.Fatalf("nothing crawled, expected failed, got %s", last.Status)
	}
	if last.Stats.PagesErrored != 1 {
		t.Fatalf("expected the 404 counted as errored, got %+v", last.Stats)
	}
	if last.Stats.PagesCrawled != 1 {
		t.Fatalf("errored page must still count toward pages_crawled, got %+v", last.Stats)
	}

	var found *model.PageResult
	for _, b := range batches {
		for i := range b.Pages {
			if b.Pages[i].URL == srv.URL {
				found = &b.Pages[i]
			}
		}
	}
	if found == nil {
		t.Fatalf("404 page result not shipped")
	}
	if found.StatusCode == nil || *found.StatusCode != 404 || found.Error == nil {
		t.Fatalf("404 capture wrong: %+v", found)
	}
}

func TestWorker_FileOutputRunsWithoutJobAPI(t *testing.T) {
	site := testSite()
	defer site.Close()

	dir := t.TempDir()
	w := New(Config{
		JobID:       "job-local",
		OutputDir:   dir,
		FileOutput:  true,
		Domain:      site.URL,
		Scope:       model.ScopeDomain,
		Concurrency: 2,
		Delay:       time.Millisecond,
	}, discardLogger(), LocalBackend{})

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("run without api: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	files := 0
	for _, e := range entries {
		if !e.IsDir() {
			files++
		}
	}
	if files != 3 {
		t.Fatalf("expected 3 page files, got %d", files)
	}
}

func TestFrontier_DedupsByNormalizedURL(t *testing.T) {
	f := NewFrontier()
	if !f.Push("https://Example.com/path/", 0, "") {
		t.Fatalf("first push rejected")
	}
	if f.Push("https://example.com/path", 1, "seed") {
		t.Fatalf("normalized duplicate admitted")
	}
	if f.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", f.Len())
	}
	e, ok := f.Pop()
	if !ok || e.URL != "https://Example.com/path/" {
		t.Fatalf("pop wrong: %+v", e)
	}
	if _, ok := f.Pop(); ok {
		t.Fatalf("pop from empty frontier")
	}
}

func TestFrontier_RequeueGoesBackToHead(t *testing.T) {
	f := NewFrontier()
	f.Push("https://a.example.com/", 0, "")
	f.Push("https://b.example.com/", 0, "")

	first, _ := f.Pop()
	f.Requeue(first)

	again, ok := f.Pop()
	if !ok || again.URL != first.URL {
		t.Fatalf("requeued entry not popped first: %+v", again)
	}
}

func TestThrottle_BacksOffOn429AndRecovers(t *testing.T) {
	th := NewThrottle(100 * time.Millisecond)

	th.Observe("example.com", 429)
	if d := th.delay("example.com"); d != 200*time.Millisecond {
		t.Fatalf("expected doubled delay, got %v", d)
	}
	th.Observe("example.com", 429)
	if d := th.delay("example.com"); d != 400*time.Millisecond {
		t.Fatalf("expected doubling again, got %v", d)
	}
	for i := 0; i < 50; i++ {
		th.Observe("example.com", 200)
	}
	if d := th.delay("example.com"); d != 100*time.Millisecond {
		t.Fatalf("expected decay back to base, got %v", d)
	}
	if d := th.delay("other.com"); d != 100*time.Millisecond {
		t.Fatalf("other hosts must stay at base, got %v", d)
	}
}

func TestControl_PauseBlocksUntilResume(t *testing.T) {
	c := newControl()
	c.Pause()

	released := make(chan struct{})
	go func() {
		c.WaitIfPaused()
		close(released)
	}()

	select {
	case <-released:
		t.Fatalf("wait returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	c.Resume()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("resume did not release the wait")
	}
}

func TestControl_StopReleasesPausedWaiters(t *testing.T) {
	c := newControl()
	c.Pause()

	done := make(chan bool, 1)
	go func() { done <- c.WaitIfPaused() }()

	c.Stop()
	select {
	case alive := <-done:
		if alive {
			t.Fatalf("expected WaitIfPaused to report stop")
		}
	case <-time.After(time.Second):
		t.Fatalf("stop did not release the wait")
	}
}
