package ship

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"geocrawl/internal/fetch"
	"geocrawl/internal/jobs"
	"geocrawl/internal/model"
)

type fakeSink struct {
	batches []model.Batch
	err     error
}

func (f *fakeSink) SendBatch(_ context.Context, batch model.Batch) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, batch)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func page(url string, withErr bool) model.PageResult {
	p := model.PageResult{URL: url}
	if withErr {
		msg := "connection refused"
		p.Error = &msg
	}
	return p
}

func TestShipper_OpenSendsEmptyRunningBatch(t *testing.T) {
	sink := &fakeSink{}
	s := NewShipper(sink, testLogger(), "job-1", "proj-1", "key", 50)
	s.Open(context.Background())

	if len(sink.batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(sink.batches))
	}
	b := sink.batches[0]
	if b.Status != jobs.StatusRunning || len(b.Pages) != 0 {
		t.Fatalf("open batch wrong: status=%s pages=%d", b.Status, len(b.Pages))
	}
	if b.CrawlJobID != "job-1" || b.ProjectID != "proj-1" || b.APIKey != "key" {
		t.Fatalf("envelope identity wrong: %+v", b)
	}
}

func TestShipper_FlushesAtBatchSize(t *testing.T) {
	sink := &fakeSink{}
	s := NewShipper(sink, testLogger(), "job-1", "proj-1", "", 3)

	ctx := context.Background()
	s.Add(ctx, page("https://example.com/1", false))
	s.Add(ctx, page("https://example.com/2", false))
	if len(sink.batches) != 0 {
		t.Fatalf("flushed before threshold")
	}
	s.Add(ctx, page("https://example.com/3", false))
	if len(sink.batches) != 1 {
		t.Fatalf("expected flush at batch size, got %d batches", len(sink.batches))
	}
	if len(sink.batches[0].Pages) != 3 {
		t.Fatalf("expected 3 pages in batch, got %d", len(sink.batches[0].Pages))
	}
}

func TestShipper_StatsAccumulateAcrossBatches(t *testing.T) {
	sink := &fakeSink{}
	s := NewShipper(sink, testLogger(), "job-1", "proj-1", "", 2)

	ctx := context.Background()
	s.SetQueued(10)
	s.Add(ctx, page("https://example.com/1", false))
	s.Add(ctx, page("https://example.com/2", true))
	s.Add(ctx, page("https://example.com/3", false))
	s.Close(ctx)

	if len(sink.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(sink.batches))
	}
	first, last := sink.batches[0].Stats, sink.batches[1].Stats
	if first.PagesCrawled != 2 || first.PagesErrored != 1 || first.PagesQueued != 10 {
		t.Fatalf("first batch stats wrong: %+v", first)
	}
	if last.PagesCrawled != 3 || last.PagesErrored != 1 {
		t.Fatalf("cumulative stats wrong: %+v", last)
	}
}

func TestShipper_PagesCrawledCountsEveryShippedPage(t *testing.T) {
	sink := &fakeSink{}
	s := NewShipper(sink, testLogger(), "job-1", "proj-1", "", 2)

	ctx := context.Background()
	s.Add(ctx, page("https://example.com/ok", false))
	s.Add(ctx, page("https://example.com/down", true))
	s.Close(ctx)

	shipped := 0
	for _, b := range sink.batches {
		shipped += len(b.Pages)
	}
	last := sink.batches[len(sink.batches)-1].Stats
	if last.PagesCrawled != shipped {
		t.Fatalf("pages_crawled %d does not match %d shipped pages", last.PagesCrawled, shipped)
	}
	if last.PagesErrored != 1 {
		t.Fatalf("expected 1 errored page, got %d", last.PagesErrored)
	}
	if s.Succeeded() != 1 {
		t.Fatalf("expected 1 successful page, got %d", s.Succeeded())
	}
}

func TestShipper_CloseStatusDependsOnSuccessfulPages(t *testing.T) {
	sink := &fakeSink{}
	s := NewShipper(sink, testLogger(), "job-1", "proj-1", "", 50)
	ctx := context.Background()
	s.Add(ctx, page("https://example.com/1", false))
	s.Close(ctx)
	if got := sink.batches[len(sink.batches)-1].Status; got != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}

	sink2 := &fakeSink{}
	s2 := NewShipper(sink2, testLogger(), "job-2", "proj-1", "", 50)
	s2.Add(ctx, page("https://example.com/down", true))
	s2.Close(ctx)
	if got := sink2.batches[len(sink2.batches)-1].Status; got != jobs.StatusFailed {
		t.Fatalf("expected failed when nothing crawled, got %s", got)
	}
}

func TestShipper_SendFailureIsSwallowed(t *testing.T) {
	sink := &fakeSink{err: errors.New("ingest down")}
	s := NewShipper(sink, testLogger(), "job-1", "proj-1", "", 1)

	ctx := context.Background()
	s.Open(ctx)
	s.Add(ctx, page("https://example.com/1", false))
	s.Close(ctx)
	// No panic and stats still advanced.
	if s.Stats().PagesCrawled != 1 {
		t.Fatalf("stats lost on send failure: %+v", s.Stats())
	}
}

func TestAPISink_PostsEnvelope(t *testing.T) {
	var got model.Batch
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/crawl/results" {
			t.Errorf("wrong path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(ingestResponse{Success: true})
	}))
	defer srv.Close()

	sink := NewAPISink(srv.URL)
	batch := model.Batch{CrawlJobID: "job-9", APIKey: "secret", Status: jobs.StatusRunning, Pages: []model.PageResult{}}
	if err := sink.SendBatch(context.Background(), batch); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.CrawlJobID != "job-9" {
		t.Fatalf("envelope not delivered: %+v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("api key not sent: %q", auth)
	}
}

func TestAPISink_ErrorStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewAPISink(srv.URL)
	if err := sink.SendBatch(context.Background(), model.Batch{}); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestFileSink_WritesOneFilePerPage(t *testing.T) {
	dir := t.TempDir()
	sink := &FileSink{Dir: dir}

	batch := model.Batch{Pages: []model.PageResult{
		page("https://example.com/a", false),
		page("https://example.com/b", false),
	}}
	if err := sink.SendBatch(context.Background(), batch); err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, u := range []string{"https://example.com/a", "https://example.com/b"} {
		path := filepath.Join(dir, fetch.URLKey(u)+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("page file missing: %v", err)
		}
		var p model.PageResult
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("page file not json: %v", err)
		}
		if p.URL != u {
			t.Fatalf("wrong page in %s: %q", path, p.URL)
		}
	}
}
