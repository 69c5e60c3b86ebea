package fetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"geocrawl/internal/model"
)

// Request represents a simplified fetch request used by the fetch package.
type Request struct {
	URL       string
	Headers   map[string]string
	UserAgent string
	Referrer  string
	Timeout   time.Duration
}

// Response is the raw fetch output independent of the transport.
type Response struct {
	URL            string
	FinalURL       string
	StatusCode     int
	Headers        map[string]string
	RequestHeaders map[string]string
	Body           string
	LatencyS       float64
	Engine         string
	ScreenshotPath string
	Timing         *model.NavTiming
}

// Fetcher defines the interface for URL fetchers.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// renderSignals are markers in static HTML that indicate the page is a
// JS application shell and needs a real browser to produce content.
var renderSignals = []string{
	"react", "__react", "data-reactroot", "data-reactid",
	"vue", "__vue__", "data-v-",
	"ng-app", "ng-controller", "angular", "app-root",
	"__next", "__nuxt",
	"loading...", "please wait", "javascript required",
}

// NeedsRender inspects statically fetched HTML for JS-app markers. A
// stripped body under 100 characters also counts as a render signal.
func NeedsRender(html, strippedText string) bool {
	lower := strings.ToLower(html)
	for _, signal := range renderSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return len(strings.TrimSpace(strippedText)) < 100
}

// JS selection modes.
const (
	JSOff  = "off"
	JSAuto = "auto"
	JSFull = "full"
)

// Selector decides per URL whether to use the browser fetcher. In auto
// mode the first page of each host is rendered and the render decision
// for deeper pages follows what the static HTML looked like.
type Selector struct {
	Mode string

	mu        sync.Mutex
	hostNeeds map[string]bool
}

func NewSelector(mode string) *Selector {
	return &Selector{Mode: mode, hostNeeds: map[string]bool{}}
}

// UseBrowser reports whether the given host at the given depth should
// be fetched with the browser.
func (s *Selector) UseBrowser(host string, depth int) bool {
	switch s.Mode {
	case JSFull:
		return true
	case JSAuto:
		if depth == 0 {
			return true
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.hostNeeds[host]
	default:
		return false
	}
}

// Observe records the render signal for a host from a statically
// fetched page so later pages on that host reuse the decision. It
// returns the signal so the caller can refetch the current page with
// the browser when the static HTML was an app shell.
func (s *Selector) Observe(host, html, strippedText string) bool {
	if s.Mode != JSAuto {
		return false
	}
	needs := NeedsRender(html, strippedText)
	s.mu.Lock()
	s.hostNeeds[host] = needs
	s.mu.Unlock()
	return needs
}
