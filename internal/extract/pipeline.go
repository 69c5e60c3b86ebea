package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

// CrawlerName and CrawlerVersion annotate every page result.
const (
	CrawlerName    = "GeoCrawler"
	CrawlerVersion = "2.0"
)

// Input is everything the pipeline needs about one fetched URL.
type Input struct {
	URL              string
	StatusCode       *int
	Depth            int
	Referrer         string
	RawHTML          string
	RequestHeaders   map[string]string
	ResponseHeaders  map[string]string
	DownloadLatencyS *float64
	Timing           *model.NavTiming
	ScreenshotPath   string
	Error            string

	Mode   string
	JSMode string
	Scope  string
}

// Pipeline derives the full signal record for each page. Markdown and
// LinkCheck are optional features; leave them zero to disable.
type Pipeline struct {
	Markdown  bool
	LinkCheck *LinkChecker
	Logger    *slog.Logger
	Now       func() time.Time
}

// Process runs every analyzer over the page. Analyzer failures are
// captured on their own section and never abort the rest.
func (p *Pipeline) Process(ctx context.Context, in Input) model.PageResult {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	nowUTC := now().UTC()

	res := model.PageResult{
		URL:        in.URL,
		StatusCode: in.StatusCode,
		Depth:      in.Depth,
		Referrer:   optional(in.Referrer),
		CrawledAt:  nowUTC.Format(time.RFC3339),
		Crawler: model.CrawlerInfo{
			Name:    CrawlerName,
			Version: CrawlerVersion,
			Mode:    in.Mode,
			JSMode:  in.JSMode,
			Scope:   in.Scope,
		},
		PageSizeBytes:   len(in.RawHTML),
		RawHTML:         in.RawHTML,
		RequestHeaders:  orEmpty(in.RequestHeaders),
		ResponseHeaders: orEmpty(in.ResponseHeaders),
		Performance: model.Performance{
			DownloadLatencyS: in.DownloadLatencyS,
			Timing:           in.Timing,
		},
		ScreenshotPath: optional(in.ScreenshotPath),
		Error:          optional(in.Error),
		H2Tags:         []string{},
		H3Tags:         []string{},
		Images:         []model.Image{},
		InternalLinks:  []model.Link{},
		ExternalLinks:  []model.Link{},
		JSONLD:         []any{},
		SchemaTypes:    []string{},
	}

	doc, err := htmldoc.Parse(in.RawHTML)
	if err != nil {
		msg := fmt.Sprintf("html parse failed: %v", err)
		if res.Error == nil {
			res.Error = &msg
		}
		return res
	}

	res.BodyText = doc.BodyText()
	res.WordCount = wordCount(res.BodyText)

	p.capture("main_content", func() {
		res.MainContent = MainContent(doc)
		res.MainContentWordCount = wordCount(res.MainContent)
	}, nil)

	p.capture("metadata", func() {
		res.Metadata, res.H2Tags, res.H3Tags = PageMeta(doc)
	}, nil)
	p.capture("seo_meta", func() {
		res.CanonicalURL, res.MetaRobots, res.Lang, res.Viewport, res.Charset = SEOMeta(doc)
	}, nil)
	p.capture("social_meta", func() {
		res.OG, res.Twitter = SocialMeta(doc)
	}, nil)
	p.capture("images", func() {
		res.Images = Images(doc, in.URL)
		res.ImagesCount = len(res.Images)
	}, nil)

	p.capture("links", func() {
		res.InternalLinks, res.ExternalLinks = PageLinks(doc, in.URL)
		res.InternalLinksCount = len(res.InternalLinks)
		res.ExternalLinksCount = len(res.ExternalLinks)
	}, nil)
	p.capture("anchor_analysis", func() {
		res.AnchorAnalysis = AnchorAnalysis(res.InternalLinks)
	}, func(msg *string) { res.AnchorAnalysis = model.AnchorAnalysis{Error: msg} })
	p.capture("link_locations", func() {
		res.LinkLocations = LinkLocations(doc)
	}, nil)

	p.capture("schema_analysis", func() {
		res.SchemaAnalysis = SchemaAnalysis(doc)
	}, func(msg *string) { res.SchemaAnalysis = model.SchemaAnalysis{Error: msg} })
	if res.SchemaAnalysis.JSONLDBlocks != nil {
		res.JSONLD = res.SchemaAnalysis.JSONLDBlocks
	}
	if res.SchemaAnalysis.SchemaTypes != nil {
		res.SchemaTypes = res.SchemaAnalysis.SchemaTypes
	}

	p.capture("content_age", func() {
		res.ContentAge = ContentAge(doc, res.JSONLD, res.ResponseHeaders, nowUTC)
	}, func(msg *string) { res.ContentAge = model.ContentAge{Sources: map[string]string{}, Error: msg} })

	p.capture("readability", func() {
		res.Readability = Readability(res.BodyText)
	}, func(msg *string) { res.Readability = model.Readability{Error: msg} })

	p.capture("content_patterns", func() {
		res.ContentPatterns = ContentPatterns(res.BodyText, doc)
	}, func(msg *string) { res.ContentPatterns = model.ContentPatterns{Error: msg} })

	p.capture("heading_analysis", func() {
		res.HeadingAnalysis = HeadingAnalysis(doc)
	}, func(msg *string) { res.HeadingAnalysis = model.HeadingAnalysis{Error: msg} })

	p.capture("structure_elements", func() {
		res.StructureElements = StructureElements(doc)
	}, func(msg *string) { res.StructureElements = model.StructureElements{Error: msg} })

	p.capture("eeat_signals", func() {
		res.EEATSignals = EEATSignals(doc)
	}, func(msg *string) { res.EEATSignals = model.EEATSignals{Error: msg} })

	p.capture("outbound_links", func() {
		res.OutboundLinkAnalysis = OutboundLinkAnalysis(doc, in.URL)
	}, func(msg *string) { res.OutboundLinkAnalysis = model.OutboundLinkAnalysis{Error: msg} })

	p.capture("hreflang", func() {
		res.Hreflang = HreflangAnalysis(doc)
	}, func(msg *string) { res.Hreflang = model.Hreflang{Error: msg} })

	p.capture("temporal_signals", func() {
		res.TemporalSignals = TemporalSignals(
			res.BodyText,
			deref(res.ContentAge.Published),
			deref(res.ContentAge.Modified),
			headerLookup(res.ResponseHeaders, "Last-Modified"),
			nowUTC,
		)
	}, func(msg *string) { res.TemporalSignals = model.TemporalSignals{Error: msg} })

	p.capture("multimedia", func() {
		res.Multimedia = MultimediaAnalysis(doc)
	}, func(msg *string) { res.Multimedia = model.Multimedia{Error: msg} })

	p.capture("ai_crawlability", func() {
		res.AICrawlability = AICrawlability(doc)
	}, func(msg *string) { res.AICrawlability = model.AICrawlability{Error: msg} })

	if p.Markdown {
		p.capture("markdown", func() {
			converter := md.NewConverter("", true, nil)
			if markdown, err := converter.ConvertString(in.RawHTML); err == nil {
				res.Markdown = &markdown
			}
		}, nil)
	}

	if p.LinkCheck != nil {
		lc := p.LinkCheck.Check(ctx, res.OutboundLinkAnalysis.OutboundLinks)
		res.LinkCheck = &lc
	}

	return res
}

// capture runs fn and converts a panic into a section error. Every
// failure is logged under its section name; when onErr is set it also
// receives the message so the caller can reset the failed section to a
// zero record carrying the error.
func (p *Pipeline) capture(section string, fn func(), onErr func(*string)) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			if p.Logger != nil {
				p.Logger.Warn("section extraction failed", "section", section, "error", msg)
			}
			if onErr != nil {
				onErr(&msg)
			}
		}
	}()
	fn()
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func headerLookup(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
