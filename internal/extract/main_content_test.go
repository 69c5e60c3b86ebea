package extract

import (
	"strings"
	"testing"

	"geocrawl/internal/htmldoc"
)

func mustParse(t *testing.T, html string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.Parse(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func filler(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func TestMainContent_PrefersMainElement(t *testing.T) {
	long := filler("content", 40)
	html := `<html><body>
		<nav>site navigation links</nav>
		<main>` + long + `</main>
		<footer>copyright</footer>
	</body></html>`

	got := MainContent(mustParse(t, html))
	if got != long {
		t.Fatalf("expected main element text, got %q", got)
	}
}

func TestMainContent_ShortMainFallsThroughToContentClass(t *testing.T) {
	long := filler("article", 40)
	html := `<html><body>
		<main>too short</main>
		<div class="post-body">` + long + `</div>
	</body></html>`

	got := MainContent(mustParse(t, html))
	if got != long {
		t.Fatalf("expected content-class div text, got %q", got)
	}
}

func TestMainContent_BodyFallbackStripsBoilerplate(t *testing.T) {
	long := filler("paragraph", 40)
	html := `<html><body>
		<div class="sidebar">promo promo promo</div>
		<div>` + long + `</div>
	</body></html>`

	got := MainContent(mustParse(t, html))
	if strings.Contains(got, "promo") {
		t.Fatalf("expected boilerplate class removed, got %q", got)
	}
	if !strings.Contains(got, "paragraph") {
		t.Fatalf("expected body text kept, got %q", got)
	}
}

func TestMainContent_StripsNestedNavInsideMain(t *testing.T) {
	long := filler("story", 40)
	html := `<html><body><main><nav>breadcrumb trail</nav>` + long + `</main></body></html>`

	got := MainContent(mustParse(t, html))
	if strings.Contains(got, "breadcrumb") {
		t.Fatalf("expected nested nav removed, got %q", got)
	}
}
