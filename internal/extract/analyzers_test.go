package extract

import (
	"strings"
	"testing"
	"time"
)

func TestHeadingAnalysis_DetectsHierarchyIssues(t *testing.T) {
	html := `<html><body>
		<h1>First title</h1>
		<h1>Second title</h1>
		<h3>Skipped a level</h3>
	</body></html>`
	res := HeadingAnalysis(mustParse(t, html))

	if res.H1Count != 2 || res.H3Count != 1 || res.TotalHeadings != 3 {
		t.Fatalf("counts wrong: %+v", res)
	}
	if len(res.HierarchyIssues) == 0 {
		t.Fatalf("expected hierarchy issues for double h1 and skipped level")
	}
	if res.Headings[0].Text != "First title" || res.Headings[0].Level != 1 {
		t.Fatalf("ordered walk broken: %+v", res.Headings[0])
	}
}

func TestStructureElements_CountsListsAndTables(t *testing.T) {
	html := `<html><body>
		<ul><li>a</li><li>b</li></ul>
		<ol><li>c</li></ol>
		<table><tr><th>h</th></tr><tr><td>d</td></tr></table>
		<blockquote>quoted passage</blockquote>
		<pre><code>block</code></pre>
		<p><code>inline</code></p>
	</body></html>`
	res := StructureElements(mustParse(t, html))

	if res.UnorderedListsCount != 1 || res.OrderedListsCount != 1 || res.TotalListItems != 3 {
		t.Fatalf("list counts wrong: %+v", res)
	}
	if res.TablesCount != 1 || !res.TableDetails[0].HasHeader {
		t.Fatalf("table detail wrong: %+v", res.TableDetails)
	}
	if res.BlockquotesCount != 1 || res.BlockquoteSamples[0] != "quoted passage" {
		t.Fatalf("blockquote wrong: %+v", res)
	}
	if res.PreCodeBlocksCount != 1 || res.InlineCodeCount != 1 {
		t.Fatalf("code counts wrong: pre=%d inline=%d", res.PreCodeBlocksCount, res.InlineCodeCount)
	}
}

func TestEEATSignals_AuthorAndTrustLinks(t *testing.T) {
	html := `<html><body>
		<span class="author">Jo Writer</span>
		<a href="/about">About us</a>
		<a href="/contact">Contact</a>
		<p>Email us at team@example.com</p>
	</body></html>`
	res := EEATSignals(mustParse(t, html))

	if res.AuthorName == nil || *res.AuthorName != "Jo Writer" {
		t.Fatalf("author not found: %v", res.AuthorName)
	}
	if !res.HasAboutPageLink || !res.HasContactPageLink {
		t.Fatalf("trust links not flagged: %+v", res)
	}
	if !res.HasEmail {
		t.Fatalf("email not detected")
	}
	if res.HasPrivacyPageLink {
		t.Fatalf("privacy link flagged without one")
	}
}

func TestOutboundLinkAnalysis_RelTokensAndRatio(t *testing.T) {
	html := `<html><body>
		<a href="https://one.example.org/a" rel="nofollow">first</a>
		<a href="https://two.example.net/b" rel="sponsored nofollow">second</a>
		<a href="https://en.wikipedia.org/wiki/X">reference</a>
		<a href="https://sub.mysite.com/internal">same site</a>
	</body></html>`
	res := OutboundLinkAnalysis(mustParse(t, html), "https://mysite.com/page")

	if res.TotalOutboundCount != 3 {
		t.Fatalf("expected 3 outbound links excluding subdomain, got %d", res.TotalOutboundCount)
	}
	if res.NoFollowCount != 2 {
		t.Fatalf("expected 2 nofollow, got %d", res.NoFollowCount)
	}
	if res.NoFollowRatio != 0.67 {
		t.Fatalf("expected ratio 0.67, got %v", res.NoFollowRatio)
	}
	if res.WikipediaLinksCount != 1 || res.AuthorityLinksCount != 1 {
		t.Fatalf("authority counts wrong: %+v", res)
	}
	if res.UniqueDomainsCount != 3 {
		t.Fatalf("expected 3 unique domains, got %d", res.UniqueDomainsCount)
	}
	var sponsored bool
	for _, l := range res.OutboundLinks {
		if l.Sponsored {
			sponsored = true
		}
	}
	if !sponsored {
		t.Fatalf("sponsored rel token not parsed")
	}
}

func TestHreflangAnalysis(t *testing.T) {
	html := `<html><head>
		<link rel="alternate" hreflang="en" href="https://example.com/en">
		<link rel="alternate" hreflang="fr" href="https://example.com/fr">
		<link rel="alternate" hreflang="x-default" href="https://example.com/">
		<link rel="stylesheet" href="/app.css">
	</head><body></body></html>`
	res := HreflangAnalysis(mustParse(t, html))

	if res.HreflangCount != 3 {
		t.Fatalf("expected 3 hreflang tags, got %d", res.HreflangCount)
	}
	if !res.HasXDefault {
		t.Fatalf("x-default not detected")
	}
	if len(res.UniqueHreflangValues) != 3 {
		t.Fatalf("unique values wrong: %v", res.UniqueHreflangValues)
	}
}

func TestMultimediaAnalysis_DetectsPlatforms(t *testing.T) {
	html := `<html><body>
		<iframe src="https://www.youtube.com/embed/abc123"></iframe>
		<video src="/clips/intro.mp4"></video>
		<a href="/docs/manual.pdf">Product manual</a>
		<img src="/charts/growth-infographic.png" alt="growth chart">
	</body></html>`
	res := MultimediaAnalysis(mustParse(t, html))

	if res.VideoCount != 2 || !res.HasVideo {
		t.Fatalf("video counts wrong: %+v", res.Videos)
	}
	found := false
	for _, v := range res.Videos {
		if v.Platform == "youtube" {
			found = true
		}
	}
	if !found {
		t.Fatalf("youtube platform not detected: %+v", res.Videos)
	}
	if res.PDFCount != 1 || res.PDFs[0].AnchorText != "Product manual" {
		t.Fatalf("pdf link wrong: %+v", res.PDFs)
	}
	if res.InfographicCount != 1 {
		t.Fatalf("infographic not detected: %+v", res.Infographics)
	}
}

func TestAICrawlability_ContentRatioAndFrameworks(t *testing.T) {
	body := strings.Repeat("visible text ", 50)
	html := `<html><body data-reactroot="">
		<div id="__next">` + body + `</div>
		<script src="/_next/static/chunks/app.js"></script>
		<script>window.init()</script>
		<img data-src="/lazy.png" loading="lazy">
	</body></html>`
	res := AICrawlability(mustParse(t, html))

	if res.ContentRatio <= 0 || res.ContentRatio >= 1 {
		t.Fatalf("content ratio out of range: %v", res.ContentRatio)
	}
	if res.InlineScriptsCount != 1 || res.ExternalScriptsCount != 1 {
		t.Fatalf("script counts wrong: %+v", res)
	}
	if res.LazyImagesCount != 1 || res.DataSrcImagesCount != 1 {
		t.Fatalf("lazy image counts wrong: %+v", res)
	}
	hasReact, hasNext := false, false
	for _, s := range res.JSFrameworkSignals {
		if s == "react" {
			hasReact = true
		}
		if s == "nextjs" {
			hasNext = true
		}
	}
	if !hasReact || !hasNext {
		t.Fatalf("framework signals wrong: %v", res.JSFrameworkSignals)
	}
}

func TestTemporalSignals_YearsAndPhrases(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	text := "As of January 2024, the standard changed. Back in 2019 the old process applied. Updated recently."
	res := TemporalSignals(text, "2024-01-10T00:00:00Z", "", "", now)

	if res.MostRecentYear == nil || *res.MostRecentYear != 2024 {
		t.Fatalf("most recent year wrong: %v", res.MostRecentYear)
	}
	if res.OldestYear == nil || *res.OldestYear != 2019 {
		t.Fatalf("oldest year wrong: %v", res.OldestYear)
	}
	if !res.HasCurrentYear {
		t.Fatalf("current year not flagged")
	}
	if res.ContentAgeDays == nil {
		t.Fatalf("content age days not computed")
	}
	if len(res.RelativeTimePhrases) == 0 {
		t.Fatalf("expected relative time phrase for 'recently'")
	}
}

func TestContentPatterns_QuestionsAndStatistics(t *testing.T) {
	html := `<html><body>
		<h2>What is a widget?</h2>
		<p>What does a widget do? A widget is a small component.
		Sales grew 45% last quarter. According to the annual survey,
		adoption doubled.</p>
	</body></html>`
	doc := mustParse(t, html)
	res := ContentPatterns(doc.BodyText(), doc)

	if res.QuestionHeadingsCount != 1 {
		t.Fatalf("expected 1 question heading, got %d", res.QuestionHeadingsCount)
	}
	if res.QuestionsCount == 0 {
		t.Fatalf("expected questions detected in body")
	}
	if res.DefinitionsCount == 0 {
		t.Fatalf("expected definition pattern for 'A widget is'")
	}
	if res.StatisticsCount == 0 {
		t.Fatalf("expected statistic for '45%%'")
	}
	if res.CitationsCount == 0 {
		t.Fatalf("expected citation for 'According to'")
	}
}
