package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPFetcher_RetriesTransientStatus(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html><body>recovered</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	resp, err := f.Fetch(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected recovery to 200, got %d", resp.StatusCode)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits)
	}
	if !strings.Contains(resp.Body, "recovered") {
		t.Fatalf("body not captured: %q", resp.Body)
	}
}

func TestHTTPFetcher_404IsCapturedWithoutRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("gone"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	resp, err := f.Fetch(context.Background(), Request{URL: srv.URL + "/missing"})
	if err != nil {
		t.Fatalf("a 404 is a result, not an error: %v", err)
	}
	if resp.StatusCode != 404 || resp.Body != "gone" {
		t.Fatalf("404 capture wrong: status=%d body=%q", resp.StatusCode, resp.Body)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected no retry on 404, got %d attempts", hits)
	}
}

func TestHTTPFetcher_PersistentTransientStatusReturnsLastCapture(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	resp, err := f.Fetch(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("expected the last capture, got error: %v", err)
	}
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502 after retries, got %d", resp.StatusCode)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected initial attempt plus 2 retries, got %d", hits)
	}
}

func TestHTTPFetcher_SendsIdentityHeaders(t *testing.T) {
	var gotUA, gotReferer, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	resp, err := f.Fetch(context.Background(), Request{
		URL:       srv.URL,
		UserAgent: "GeoCrawler/2.0",
		Referrer:  "https://example.com/parent",
		Headers:   map[string]string{"Accept-Language": "en-US,en"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotUA != "GeoCrawler/2.0" || gotReferer != "https://example.com/parent" || gotLang != "en-US,en" {
		t.Fatalf("headers not sent: ua=%q referer=%q lang=%q", gotUA, gotReferer, gotLang)
	}
	if resp.RequestHeaders["User-Agent"] != "GeoCrawler/2.0" {
		t.Fatalf("request headers not recorded: %v", resp.RequestHeaders)
	}
	if resp.Headers["Content-Type"] == "" {
		t.Fatalf("response headers not recorded: %v", resp.Headers)
	}
}

func TestNeedsRender(t *testing.T) {
	long := strings.Repeat("plenty of real text here ", 10)
	cases := []struct {
		name     string
		html     string
		stripped string
		want     bool
	}{
		{"react root", `<div data-reactroot></div>` + long, long, true},
		{"next shell", `<div id="__next"></div>` + long, long, true},
		{"loading splash", `<body>Loading...</body>`, "Loading...", true},
		{"thin text", `<body><p>hi</p></body>`, "hi", true},
		{"static page", `<body>` + long + `</body>`, long, false},
	}
	for _, c := range cases {
		if got := NeedsRender(c.html, c.stripped); got != c.want {
			t.Errorf("%s: NeedsRender = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestSelector_AutoRendersDepthZeroAndRemembersHosts(t *testing.T) {
	s := NewSelector(JSAuto)

	if !s.UseBrowser("example.com", 0) {
		t.Fatalf("auto mode must render depth 0")
	}
	if s.UseBrowser("example.com", 1) {
		t.Fatalf("unknown host at depth>0 defaults to static")
	}

	long := strings.Repeat("text ", 50)
	if s.Observe("app.example.com", `<div id="__nuxt"></div>`, "") != true {
		t.Fatalf("expected app shell observed as needing render")
	}
	if !s.UseBrowser("app.example.com", 3) {
		t.Fatalf("host memory not applied")
	}
	if s.Observe("docs.example.com", "<body>"+long+"</body>", long) {
		t.Fatalf("static page misclassified")
	}
	if s.UseBrowser("docs.example.com", 2) {
		t.Fatalf("static host should stay static")
	}
}

func TestSelector_OffAndFullModes(t *testing.T) {
	if NewSelector(JSOff).UseBrowser("example.com", 0) {
		t.Fatalf("off mode must never render")
	}
	if !NewSelector(JSFull).UseBrowser("example.com", 5) {
		t.Fatalf("full mode must always render")
	}
}

func TestURLKey_StableAndShort(t *testing.T) {
	a := URLKey("https://example.com/page")
	b := URLKey("https://example.com/page")
	if a != b {
		t.Fatalf("key not stable: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("expected 12 hex chars, got %q", a)
	}
	if a == URLKey("https://example.com/other") {
		t.Fatalf("distinct urls must not collide in test fixtures")
	}
}
