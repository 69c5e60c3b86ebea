package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
)

// mainContentMinChars is the acceptance threshold for the first two
// main-content strategies; shorter candidates fall through.
const mainContentMinChars = 200

var (
	contentClassRE = regexp.MustCompile(`(?i)(article|post|entry|content|main)[-_]?(body|content|text|area)?`)

	boilerplateRE = regexp.MustCompile(`(?i)(nav|menu|sidebar|footer|header|comment|share|social|related|widget|ad|promo|banner|cookie|popup|modal)`)
)

// MainContent extracts the principal content region by cascading
// strategies: semantic main/article elements, then common content
// container classes, then the whole body minus structural and
// boilerplate elements.
func MainContent(doc *htmldoc.Document) string {
	// Strategy 1: <main> or <article>
	for _, tag := range []string{"main", "article"} {
		if sel := doc.Find(tag).First(); sel.Length() > 0 {
			if text := cleanedText(sel); len(text) > mainContentMinChars {
				return text
			}
		}
	}

	// Strategy 2: common content containers by class, id, role or
	// itemprop.
	if text := findContentContainer(doc); text != "" {
		return text
	}

	// Strategy 3: body minus structural tags and boilerplate classes.
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	clone := body.Clone()
	clone.Find("script, style, noscript, iframe, nav, header, footer, aside, form, button, input, select, textarea").Remove()
	clone.Find("[class]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if boilerplateRE.MatchString(class) {
			sel.Remove()
		}
	})
	clone.Find("[id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		if boilerplateRE.MatchString(id) {
			sel.Remove()
		}
	})
	return htmldoc.CollapseWhitespace(clone.Text())
}

func findContentContainer(doc *htmldoc.Document) string {
	candidates := doc.Find("div, section, article")

	var text string
	pick := func(match func(*goquery.Selection) bool) bool {
		found := false
		candidates.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if !match(sel) {
				return true
			}
			if t := cleanedText(sel); len(t) > mainContentMinChars {
				text = t
				found = true
				return false
			}
			return true
		})
		return found
	}

	checks := []func(*goquery.Selection) bool{
		func(sel *goquery.Selection) bool {
			class, ok := sel.Attr("class")
			return ok && contentClassRE.MatchString(class)
		},
		func(sel *goquery.Selection) bool {
			id, ok := sel.Attr("id")
			return ok && contentClassRE.MatchString(id)
		},
		func(sel *goquery.Selection) bool {
			role, _ := sel.Attr("role")
			return role == "main"
		},
		func(sel *goquery.Selection) bool {
			itemprop, _ := sel.Attr("itemprop")
			return itemprop == "articleBody"
		},
	}
	for _, check := range checks {
		if pick(check) {
			return text
		}
	}
	return ""
}

// cleanedText clones a selection, strips scripts plus nested nav and
// aside regions, and collapses whitespace.
func cleanedText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style, noscript, iframe, nav, aside").Remove()
	return htmldoc.CollapseWhitespace(clone.Text())
}
