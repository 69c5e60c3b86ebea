package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	robotstxt "github.com/temoto/robotstxt"
)

const (
	maxIndexDepth    = 5
	maxURLs          = 100000
	maxGzipBytes     = 10 << 20
	defaultUserAgent = "GeoCrawler/2.0"
	fetchTimeout     = 30 * time.Second
)

// urlEntry is one <url> element; alternate language links ride along
// as xhtml:link children.
type urlEntry struct {
	Loc        string          `xml:"loc"`
	Alternates []alternateLink `xml:"link"`
}

type alternateLink struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Ingester discovers crawl seeds from sitemaps, following index files
// and honoring the robots.txt Sitemap directives.
type Ingester struct {
	Client         *http.Client
	UserAgent      string
	AlternateLinks bool
	Logger         *slog.Logger

	// validate is swapped in tests.
	validate func(string) error
}

func NewIngester(logger *slog.Logger, alternateLinks bool) *Ingester {
	return &Ingester{
		Client:         &http.Client{Timeout: fetchTimeout},
		UserAgent:      defaultUserAgent,
		AlternateLinks: alternateLinks,
		Logger:         logger,
		validate:       ValidateURL,
	}
}

func (in *Ingester) validateURL(raw string) error {
	if in.validate != nil {
		return in.validate(raw)
	}
	return ValidateURL(raw)
}

// Discover collects URLs for a domain: the robots.txt Sitemap entries
// plus the conventional /sitemap.xml location.
func (in *Ingester) Discover(ctx context.Context, domain string) ([]string, error) {
	domain = strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	domain = strings.TrimSuffix(domain, "/")

	sitemaps := in.sitemapsFromRobots(ctx, domain)
	conventional := "https://" + domain + "/sitemap.xml"
	seen := false
	for _, s := range sitemaps {
		if s == conventional {
			seen = true
			break
		}
	}
	if !seen {
		sitemaps = append(sitemaps, conventional)
	}

	var urls []string
	unique := map[string]struct{}{}
	for _, sm := range sitemaps {
		collected, err := in.collect(ctx, sm, 0, len(urls))
		if err != nil {
			in.Logger.Warn("sitemap fetch failed", "sitemap", sm, "error", err)
			continue
		}
		for _, u := range collected {
			if _, dup := unique[u]; dup {
				continue
			}
			unique[u] = struct{}{}
			urls = append(urls, u)
			if len(urls) >= maxURLs {
				in.Logger.Warn("sitemap url cap reached", "domain", domain, "cap", maxURLs)
				return urls, nil
			}
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no sitemap urls discovered for %s", domain)
	}
	return urls, nil
}

// CollectFrom collects URLs from one explicitly configured sitemap.
func (in *Ingester) CollectFrom(ctx context.Context, sitemapURL string) ([]string, error) {
	urls, err := in.collect(ctx, sitemapURL, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("sitemap %s yielded no urls", sitemapURL)
	}
	if len(urls) > maxURLs {
		urls = urls[:maxURLs]
	}
	return urls, nil
}

func isRobotsURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), "/robots.txt")
}

// sitemapsFromRobots reads the Sitemap directives from robots.txt.
// Missing or unparseable robots.txt is not an error.
func (in *Ingester) sitemapsFromRobots(ctx context.Context, domain string) []string {
	robotsURL := "https://" + domain + "/robots.txt"
	body, err := in.fetch(ctx, robotsURL)
	if err != nil {
		in.Logger.Debug("robots.txt unavailable", "domain", domain, "error", err)
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	var sitemaps []string
	for _, s := range data.Sitemaps {
		if in.validateURL(s) == nil {
			sitemaps = append(sitemaps, s)
		}
	}
	return sitemaps
}

// collect fetches one sitemap document, recursing into index files up
// to maxIndexDepth.
func (in *Ingester) collect(ctx context.Context, sitemapURL string, depth, have int) ([]string, error) {
	if depth > maxIndexDepth {
		return nil, fmt.Errorf("sitemap index depth %d exceeded", maxIndexDepth)
	}
	if err := in.validateURL(sitemapURL); err != nil {
		return nil, err
	}

	body, err := in.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	body, err = maybeGunzip(sitemapURL, body)
	if err != nil {
		return nil, err
	}

	// A robots.txt seed is not XML; pull its Sitemap directives and
	// recurse into each one instead.
	if isRobotsURL(sitemapURL) {
		data, err := robotstxt.FromBytes(body)
		if err != nil {
			return nil, fmt.Errorf("parse robots.txt %s: %w", sitemapURL, err)
		}
		var urls []string
		for _, child := range data.Sitemaps {
			collected, err := in.collect(ctx, child, depth+1, have+len(urls))
			if err != nil {
				in.Logger.Warn("child sitemap failed", "sitemap", child, "error", err)
				continue
			}
			urls = append(urls, collected...)
			if have+len(urls) >= maxURLs {
				break
			}
		}
		return urls, nil
	}

	// Index files and urlsets share no root element, so try the index
	// shape first.
	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		var urls []string
		for _, child := range index.Sitemaps {
			loc := strings.TrimSpace(child.Loc)
			if loc == "" {
				continue
			}
			collected, err := in.collect(ctx, loc, depth+1, have+len(urls))
			if err != nil {
				in.Logger.Warn("child sitemap failed", "sitemap", loc, "error", err)
				continue
			}
			urls = append(urls, collected...)
			if have+len(urls) >= maxURLs {
				break
			}
		}
		return urls, nil
	}

	var set urlset
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
	}

	var urls []string
	for _, entry := range set.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
		if in.AlternateLinks {
			for _, alt := range entry.Alternates {
				if alt.Rel == "alternate" && strings.TrimSpace(alt.Href) != "" {
					urls = append(urls, strings.TrimSpace(alt.Href))
				}
			}
		}
		if have+len(urls) >= maxURLs {
			break
		}
	}
	return urls, nil
}

func (in *Ingester) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", in.UserAgent)
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	resp, err := in.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxGzipBytes+1))
}

// maybeGunzip decompresses gzip payloads, bounded so a compressed
// bomb cannot expand past the cap.
func maybeGunzip(sitemapURL string, body []byte) ([]byte, error) {
	isGzip := len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b
	if !isGzip {
		return body, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gunzip %s: %w", sitemapURL, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxGzipBytes+1))
	if err != nil {
		return nil, fmt.Errorf("gunzip %s: %w", sitemapURL, err)
	}
	if len(out) > maxGzipBytes {
		return nil, fmt.Errorf("sitemap %s exceeds %d bytes decompressed", sitemapURL, maxGzipBytes)
	}
	return out, nil
}
