package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"geocrawl/internal/model"
)

// stealthScript patches the obvious headless markers before any page
// script runs.
const stealthScript = `() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
	window.chrome = window.chrome || { runtime: {} };
	const originalQuery = window.navigator.permissions.query;
	window.navigator.permissions.query = (parameters) =>
		parameters.name === 'notifications'
			? Promise.resolve({ state: Notification.permission })
			: originalQuery(parameters);
}`

// timingScript reads the navigation-timing entry after load.
const timingScript = `() => {
	const t = performance.getEntriesByType('navigation')[0];
	if (!t) { return null; }
	return {
		dns_lookup_ms: t.domainLookupEnd - t.domainLookupStart,
		tcp_connect_ms: t.connectEnd - t.connectStart,
		ttfb_ms: t.responseStart - t.requestStart,
		dom_load_ms: t.domContentLoadedEventEnd - t.startTime,
		full_load_ms: t.loadEventEnd - t.startTime,
		dom_interactive_ms: t.domInteractive - t.startTime,
		transfer_size: t.transferSize || 0,
		encoded_size: t.encodedBodySize || 0,
		decoded_size: t.decodedBodySize || 0
	};
}`

// RodFetcher renders pages in a real browser before capturing HTML,
// a full-page screenshot and the navigation timing.
type RodFetcher struct {
	ControlURL    string
	Timeout       time.Duration
	ScreenshotDir string
	Stealth       bool
}

func NewRodFetcher(controlURL string, timeout time.Duration, screenshotDir string, stealth bool) *RodFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RodFetcher{
		ControlURL:    controlURL,
		Timeout:       timeout,
		ScreenshotDir: screenshotDir,
		Stealth:       stealth,
	}
}

func (f *RodFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}

	browser := rod.New().Context(ctx).Timeout(f.Timeout)
	if f.ControlURL != "" {
		browser = browser.ControlURL(f.ControlURL)
	}
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	defer browser.MustClose()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer page.MustClose()

	if f.Stealth {
		if _, err := page.EvalOnNewDocument(stealthScript); err != nil {
			return nil, err
		}
	}
	if req.UserAgent != "" {
		override := &proto.NetworkSetUserAgentOverride{UserAgent: req.UserAgent}
		if err := page.SetUserAgent(override); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	if err := page.Navigate(u.String()); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}
	latency := time.Since(start).Seconds()

	htmlStr, err := page.HTML()
	if err != nil {
		return nil, err
	}

	resp := &Response{
		URL:        req.URL,
		FinalURL:   u.String(),
		StatusCode: 200,
		Headers:    map[string]string{},
		RequestHeaders: map[string]string{
			"User-Agent": req.UserAgent,
		},
		Body:     htmlStr,
		LatencyS: latency,
		Engine:   "browser",
		Timing:   f.readTiming(page),
	}
	if info, err := page.Info(); err == nil && info.URL != "" {
		resp.FinalURL = info.URL
	}

	if f.ScreenshotDir != "" {
		if path, err := f.screenshot(page, req.URL); err == nil {
			resp.ScreenshotPath = path
		}
	}

	return resp, nil
}

func (f *RodFetcher) readTiming(page *rod.Page) *model.NavTiming {
	obj, err := page.Eval(timingScript)
	if err != nil || obj == nil || obj.Value.Nil() {
		return nil
	}
	raw, err := obj.Value.MarshalJSON()
	if err != nil {
		return nil
	}
	var timing model.NavTiming
	if err := json.Unmarshal(raw, &timing); err != nil {
		return nil
	}
	return &timing
}

func (f *RodFetcher) screenshot(page *rod.Page, pageURL string) (string, error) {
	if err := os.MkdirAll(f.ScreenshotDir, 0o755); err != nil {
		return "", err
	}
	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", err
	}
	path := filepath.Join(f.ScreenshotDir, URLKey(pageURL)+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// URLKey is the stable short name used for per-URL artifacts such as
// screenshots and file-output records.
func URLKey(pageURL string) string {
	sum := md5.Sum([]byte(pageURL))
	return hex.EncodeToString(sum[:])[:12]
}
