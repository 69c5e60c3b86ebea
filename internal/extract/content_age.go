package extract

import (
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

// datedCandidate is one discovered date and where it came from.
type datedCandidate struct {
	date   string
	source string
}

// ContentAge resolves the page's published and modified dates from
// the available sources in priority order: JSON-LD, Open Graph, meta
// tags, HTTP headers, <time> elements, then class-name heuristics.
// The first hit per field wins. A lone modified date is also used as
// published with source "inferred".
func ContentAge(doc *htmldoc.Document, jsonLD []any, responseHeaders map[string]string, now time.Time) model.ContentAge {
	result := model.ContentAge{Sources: map[string]string{}}

	var published, modified []datedCandidate
	add := func(kind string, c datedCandidate) {
		if kind == "modified" {
			modified = append(modified, c)
		} else {
			published = append(published, c)
		}
	}

	datesFromJSONLD(jsonLD, add)
	datesFromOG(doc, add)
	datesFromMeta(doc, add)
	datesFromHeaders(responseHeaders, add)
	datesFromTimeElements(doc, add)
	datesFromHTMLPatterns(doc, add)

	if len(published) > 0 {
		result.Published = strPtr(published[0].date)
		result.Sources["published"] = published[0].source
	}
	if len(modified) > 0 {
		result.Modified = strPtr(modified[0].date)
		result.Sources["modified"] = modified[0].source
	}
	if result.Modified != nil && result.Published == nil {
		result.Published = result.Modified
		if src, ok := result.Sources["modified"]; ok {
			result.Sources["published"] = src
		} else {
			result.Sources["published"] = "inferred"
		}
	}

	if result.Published != nil {
		result.AgeDays = ageDays(*result.Published, false, now)
	}

	return result
}

var flexibleDateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"2006-01",
}

// parseFlexibleDate normalizes a date string to RFC 3339, trying ISO
// layouts, common human formats and the HTTP date format. Naive dates
// are treated as UTC.
func parseFlexibleDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339), true
		}
	}
	if t, err := http.ParseTime(s); err == nil {
		return t.UTC().Format(time.RFC3339), true
	}
	return "", false
}

// jsonLDDateFields maps JSON-LD date keys to the field they populate.
var jsonLDDateFields = map[string]string{
	"datePublished": "published",
	"dateCreated":   "published",
	"uploadDate":    "published",
	"dateModified":  "modified",
	"dateUpdated":   "modified",
}

func datesFromJSONLD(blocks []any, add func(string, datedCandidate)) {
	stack := make([]jsonLDFrame, 0, len(blocks))
	for _, b := range blocks {
		stack = append(stack, jsonLDFrame{node: b, depth: 0})
	}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if frame.depth > jsonLDMaxWalkDepth {
			continue
		}
		switch node := frame.node.(type) {
		case map[string]any:
			for field, kind := range jsonLDDateFields {
				if raw, ok := node[field].(string); ok {
					if parsed, ok := parseFlexibleDate(raw); ok {
						add(kind, datedCandidate{date: parsed, source: "json-ld:" + field})
					}
				}
			}
			for _, v := range node {
				stack = append(stack, jsonLDFrame{node: v, depth: frame.depth + 1})
			}
		case []any:
			for _, item := range node {
				stack = append(stack, jsonLDFrame{node: item, depth: frame.depth + 1})
			}
		}
	}
}

var ogDateTags = []struct {
	prop string
	kind string
}{
	{"article:published_time", "published"},
	{"article:published", "published"},
	{"og:article:published_time", "published"},
	{"article:modified_time", "modified"},
	{"article:modified", "modified"},
	{"og:article:modified_time", "modified"},
	{"og:updated_time", "modified"},
}

func datesFromOG(doc *htmldoc.Document, add func(string, datedCandidate)) {
	for _, tag := range ogDateTags {
		if content := doc.MetaProperty(tag.prop); content != "" {
			if parsed, ok := parseFlexibleDate(content); ok {
				add(tag.kind, datedCandidate{date: parsed, source: "og:" + tag.prop})
			}
		}
	}
}

var metaDateTags = []struct {
	name string
	kind string
}{
	{"date", "published"},
	{"pubdate", "published"},
	{"publish-date", "published"},
	{"publish_date", "published"},
	{"published-date", "published"},
	{"article:published", "published"},
	{"DC.date", "published"},
	{"DC.date.issued", "published"},
	{"dc.date", "published"},
	{"dcterms.created", "published"},
	{"sailthru.date", "published"},
	{"cXenseParse:recs:publishtime", "published"},
	{"last-modified", "modified"},
	{"lastmod", "modified"},
	{"modified", "modified"},
	{"revised", "modified"},
	{"DC.date.modified", "modified"},
	{"dcterms.modified", "modified"},
}

func datesFromMeta(doc *htmldoc.Document, add func(string, datedCandidate)) {
	for _, tag := range metaDateTags {
		if content := doc.MetaContent(tag.name); content != "" {
			if parsed, ok := parseFlexibleDate(content); ok {
				add(tag.kind, datedCandidate{date: parsed, source: "meta:" + tag.name})
			}
		}
	}
}

func datesFromHeaders(headers map[string]string, add func(string, datedCandidate)) {
	lookup := func(name string) string {
		for k, v := range headers {
			if strings.EqualFold(k, name) {
				return v
			}
		}
		return ""
	}

	if lastModified := lookup("Last-Modified"); lastModified != "" {
		if parsed, ok := parseFlexibleDate(lastModified); ok {
			add("modified", datedCandidate{date: parsed, source: "header:Last-Modified"})
		}
	}
	if dateHeader := lookup("Date"); dateHeader != "" {
		if parsed, ok := parseFlexibleDate(dateHeader); ok {
			add("modified", datedCandidate{date: parsed, source: "header:Date"})
		}
	}
}

func datesFromTimeElements(doc *htmldoc.Document, add func(string, datedCandidate)) {
	doc.Find("time[datetime]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= 10 {
			return false
		}
		dt, _ := sel.Attr("datetime")
		parsed, ok := parseFlexibleDate(dt)
		if !ok {
			return true
		}

		elClasses, _ := sel.Attr("class")
		parentClasses, _ := sel.Parent().Attr("class")
		itemprop, _ := sel.Attr("itemprop")
		context := strings.ToLower(elClasses + " " + parentClasses + " " + itemprop)

		kind := "published"
		for _, marker := range []string{"modified", "updated", "edit"} {
			if strings.Contains(context, marker) {
				kind = "modified"
				break
			}
		}

		sourceDetail := strings.ToLower(itemprop)
		if sourceDetail == "" {
			sourceDetail = "element"
		}
		add(kind, datedCandidate{date: parsed, source: "time[datetime]:" + sourceDetail})
		return true
	})
}

var htmlDateSelectors = []struct {
	selector string
	kind     string
}{
	{".published", "published"},
	{".post-date", "published"},
	{".entry-date", "published"},
	{".article-date", "published"},
	{".date-published", "published"},
	{".publish-date", "published"},
	{`[itemprop="datePublished"]`, "published"},
	{"[data-date]", "published"},
	{".modified", "modified"},
	{".updated", "modified"},
	{".last-modified", "modified"},
	{".date-modified", "modified"},
	{`[itemprop="dateModified"]`, "modified"},
}

func datesFromHTMLPatterns(doc *htmldoc.Document, add func(string, datedCandidate)) {
	for _, rule := range htmlDateSelectors {
		doc.Find(rule.selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if i >= 3 {
				return false
			}
			dateStr, _ := sel.Attr("datetime")
			if dateStr == "" {
				dateStr, _ = sel.Attr("data-date")
			}
			if dateStr == "" {
				dateStr, _ = sel.Attr("content")
			}
			if dateStr == "" {
				dateStr = htmldoc.Text(sel)
			}
			if parsed, ok := parseFlexibleDate(dateStr); ok {
				add(rule.kind, datedCandidate{date: parsed, source: "html:" + rule.selector})
				return false
			}
			return true
		})
	}
}
