package extract

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

// HreflangAnalysis collects <link rel=alternate hreflang> pairs.
func HreflangAnalysis(doc *htmldoc.Document) model.Hreflang {
	result := model.Hreflang{
		HreflangTags:         []model.HreflangTag{},
		UniqueHreflangValues: []string{},
	}

	values := map[string]struct{}{}
	doc.Find("link[rel][hreflang]").Each(func(_ int, sel *goquery.Selection) {
		rel, _ := sel.Attr("rel")
		if !containsToken(strings.Fields(rel), "alternate") {
			return
		}
		hreflang, _ := sel.Attr("hreflang")
		href, _ := sel.Attr("href")
		if hreflang == "" || href == "" {
			return
		}
		result.HreflangTags = append(result.HreflangTags, model.HreflangTag{
			Hreflang: hreflang,
			Href:     htmldoc.Truncate(href, 500),
		})
		values[hreflang] = struct{}{}
	})

	result.HreflangCount = len(result.HreflangTags)
	for v := range values {
		result.UniqueHreflangValues = append(result.UniqueHreflangValues, v)
	}
	sort.Strings(result.UniqueHreflangValues)
	_, result.HasXDefault = values["x-default"]

	return result
}
