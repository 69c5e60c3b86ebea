package extract

import (
	"testing"
	"time"
)

var ageNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestContentAge_JSONLDWinsOverMeta(t *testing.T) {
	html := `<html><head>
		<meta property="article:published_time" content="2024-02-01T00:00:00Z">
	</head><body></body></html>`
	doc := mustParse(t, html)

	jsonLD := []any{
		map[string]any{"@type": "Article", "datePublished": "2024-01-15"},
	}
	res := ContentAge(doc, jsonLD, nil, ageNow)

	if res.Published == nil || *res.Published != "2024-01-15T00:00:00Z" {
		t.Fatalf("expected json-ld date to win, got %v", res.Published)
	}
	if res.Sources["published"] != "json-ld:datePublished" {
		t.Fatalf("expected json-ld source, got %q", res.Sources["published"])
	}
}

func TestContentAge_NestedJSONLDGraph(t *testing.T) {
	doc := mustParse(t, "<html><body></body></html>")
	jsonLD := []any{
		map[string]any{
			"@graph": []any{
				map[string]any{"@type": "WebPage"},
				map[string]any{"@type": "Article", "dateModified": "2024-03-10T08:00:00Z"},
			},
		},
	}
	res := ContentAge(doc, jsonLD, nil, ageNow)

	if res.Modified == nil || *res.Modified != "2024-03-10T08:00:00Z" {
		t.Fatalf("expected nested dateModified found, got %v", res.Modified)
	}
}

func TestContentAge_HeaderFallbackIsModified(t *testing.T) {
	doc := mustParse(t, "<html><body></body></html>")
	headers := map[string]string{"last-modified": "Wed, 21 Oct 2015 07:28:00 GMT"}

	res := ContentAge(doc, nil, headers, ageNow)
	if res.Modified == nil || *res.Modified != "2015-10-21T07:28:00Z" {
		t.Fatalf("expected header date parsed, got %v", res.Modified)
	}
	if res.Sources["modified"] != "header:Last-Modified" {
		t.Fatalf("expected header source, got %q", res.Sources["modified"])
	}
	// With no published source the modified date is inferred as
	// published too.
	if res.Published == nil || *res.Published != *res.Modified {
		t.Fatalf("expected published inferred from modified, got %v", res.Published)
	}
}

func TestContentAge_TimeElementContextClassifiesModified(t *testing.T) {
	html := `<html><body>
		<span class="updated"><time datetime="2024-04-01">April 1</time></span>
	</body></html>`
	res := ContentAge(mustParse(t, html), nil, nil, ageNow)

	if res.Modified == nil || *res.Modified != "2024-04-01T00:00:00Z" {
		t.Fatalf("expected time element classified as modified, got %v", res.Modified)
	}
}

func TestContentAge_AgeDaysFromPublished(t *testing.T) {
	html := `<html><head>
		<meta property="article:published_time" content="2024-05-02T12:00:00Z">
	</head><body></body></html>`
	res := ContentAge(mustParse(t, html), nil, nil, ageNow)

	if res.AgeDays == nil || *res.AgeDays != 30 {
		t.Fatalf("expected 30 day age, got %v", res.AgeDays)
	}
}

func TestContentAge_NoSources(t *testing.T) {
	res := ContentAge(mustParse(t, "<html><body><p>no dates</p></body></html>"), nil, nil, ageNow)
	if res.Published != nil || res.Modified != nil || res.AgeDays != nil {
		t.Fatalf("expected empty record, got %+v", res)
	}
	if len(res.Sources) != 0 {
		t.Fatalf("expected no sources, got %v", res.Sources)
	}
}

func TestParseFlexibleDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-15", "2024-01-15T00:00:00Z", true},
		{"2024-01-15T10:30:00+02:00", "2024-01-15T08:30:00Z", true},
		{"January 2, 2006", "2006-01-02T00:00:00Z", true},
		{"Wed, 21 Oct 2015 07:28:00 GMT", "2015-10-21T07:28:00Z", true},
		{"not a date", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := parseFlexibleDate(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("parseFlexibleDate(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
