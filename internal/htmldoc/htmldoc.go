// Package htmldoc wraps goquery with the text and metadata helpers the
// extractor suite shares.
package htmldoc

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Document is a parsed HTML page.
type Document struct {
	*goquery.Document
	raw string
}

// Parse builds a Document from raw HTML bytes.
func Parse(rawHTML string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return &Document{Document: doc, raw: rawHTML}, nil
}

// Raw returns the original HTML the document was parsed from.
func (d *Document) Raw() string { return d.raw }

// BodyText returns all visible text: scripts, styles, noscript and
// iframes removed, whitespace collapsed to single spaces.
func (d *Document) BodyText() string {
	body := d.Find("body")
	if body.Length() == 0 {
		body = d.Selection
	}
	clone := body.Clone()
	clone.Find("script, style, noscript, iframe").Remove()
	return CollapseWhitespace(clone.Text())
}

// CollapseWhitespace trims and folds runs of whitespace into single
// spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// Text returns the collapsed text of a selection.
func Text(sel *goquery.Selection) string {
	return CollapseWhitespace(sel.Text())
}

// Truncate shortens s to at most n bytes on a rune boundary.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	size := 0
	for _, r := range runes {
		size += len(string(r))
		if size > n {
			break
		}
		out = append(out, r)
	}
	return string(out)
}

// MetaContent returns the content attribute of <meta name="..."> with
// a case-insensitive name match, or "".
func (d *Document) MetaContent(name string) string {
	var content string
	d.Find("meta[name]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		n, _ := sel.Attr("name")
		if strings.EqualFold(n, name) {
			content, _ = sel.Attr("content")
			return false
		}
		return true
	})
	return strings.TrimSpace(content)
}

// MetaProperty returns the content attribute of <meta property="...">
// with a case-insensitive property match, or "".
func (d *Document) MetaProperty(prop string) string {
	var content string
	d.Find("meta[property]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		p, _ := sel.Attr("property")
		if strings.EqualFold(p, prop) {
			content, _ = sel.Attr("content")
			return false
		}
		return true
	})
	return strings.TrimSpace(content)
}

// Charset resolves the document charset from <meta charset> or the
// http-equiv content-type fallback.
func (d *Document) Charset() string {
	if cs, ok := d.Find("meta[charset]").First().Attr("charset"); ok {
		return strings.TrimSpace(cs)
	}
	var charset string
	d.Find("meta[http-equiv]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		he, _ := sel.Attr("http-equiv")
		if !strings.EqualFold(he, "content-type") {
			return true
		}
		content, _ := sel.Attr("content")
		for _, part := range strings.Split(content, ";") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(strings.ToLower(part), "charset=") {
				charset = part[len("charset="):]
				return false
			}
		}
		return true
	})
	return charset
}
