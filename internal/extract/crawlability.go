package extract

import (
	"math"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

// AICrawlability analyzes how much of the page an HTML-only crawler
// can see: content ratio, script weight, lazy assets and framework
// markers.
func AICrawlability(doc *htmldoc.Document) model.AICrawlability {
	result := model.AICrawlability{
		JSFrameworkSignals: []string{},
	}

	raw := doc.Raw()
	result.HTMLSizeBytes = len(raw)
	text := doc.Selection.Text()
	result.TextSizeBytes = len(text)
	if result.HTMLSizeBytes > 0 {
		result.ContentRatio = round3(float64(result.TextSizeBytes) / float64(result.HTMLSizeBytes))
	}

	scripts := doc.Find("script")
	result.TotalScriptsCount = scripts.Length()
	scripts.Each(func(_ int, script *goquery.Selection) {
		if src, ok := script.Attr("src"); ok && src != "" {
			result.ExternalScriptsCount++
		} else if strings.TrimSpace(script.Text()) != "" {
			result.InlineScriptsCount++
		}
	})

	doc.Find("noscript").EachWithBreak(func(_ int, ns *goquery.Selection) bool {
		if htmldoc.Text(ns) != "" {
			result.HasNoscriptContent = true
			return false
		}
		return true
	})

	if robots := doc.MetaContent("robots"); robots != "" {
		result.MetaRobots = strPtr(robots)
	}

	result.IframeCount = doc.Find("iframe").Length()

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if loading, _ := img.Attr("loading"); loading == "lazy" {
			result.LazyImagesCount++
		}
		dataSrc, hasDataSrc := img.Attr("data-src")
		src, hasSrc := img.Attr("src")
		if hasDataSrc && dataSrc != "" && (!hasSrc || src == "") {
			result.DataSrcImagesCount++
		}
	})

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if strings.Contains(goquery.NodeName(sel), "-") {
			result.CustomElementsCount++
		}
	})

	result.CanvasElementsCount = doc.Find("canvas").Length()

	frameworks := map[string]struct{}{}
	if doc.Find("[ng-app], [ng-controller]").Length() > 0 {
		frameworks["angular"] = struct{}{}
	}
	if doc.Find("[data-reactroot], [data-reactid]").Length() > 0 {
		frameworks["react"] = struct{}{}
	}
	if doc.Find("[v-bind]").Length() > 0 || hasVueScopedAttr(doc) {
		frameworks["vue"] = struct{}{}
	}
	if doc.Find("[data-ember-action]").Length() > 0 {
		frameworks["ember"] = struct{}{}
	}
	doc.Find("script[src]").Each(func(_ int, script *goquery.Selection) {
		src, _ := script.Attr("src")
		src = strings.ToLower(src)
		for name, marker := range map[string]string{
			"react":   "react",
			"angular": "angular",
			"vue":     "vue",
			"jquery":  "jquery",
			"nextjs":  "next",
			"nuxt":    "nuxt",
		} {
			if strings.Contains(src, marker) {
				frameworks[name] = struct{}{}
			}
		}
	})

	for fw := range frameworks {
		result.JSFrameworkSignals = append(result.JSFrameworkSignals, fw)
	}
	sort.Strings(result.JSFrameworkSignals)

	return result
}

// hasVueScopedAttr looks for Vue's scoped data-v-* attributes, which
// cannot be expressed as a CSS selector.
func hasVueScopedAttr(doc *htmldoc.Document) bool {
	found := false
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, node := range sel.Nodes {
			for _, attr := range node.Attr {
				if strings.HasPrefix(attr.Key, "data-v-") {
					found = true
					return false
				}
			}
		}
		return true
	})
	return found
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
