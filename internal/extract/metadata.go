package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
	"geocrawl/internal/scope"
)

// PageMeta collects title, description, first h1 and the h2/h3 lists.
func PageMeta(doc *htmldoc.Document) (model.PageMetadata, []string, []string) {
	meta := model.PageMetadata{}

	if title := htmldoc.Text(doc.Find("title").First()); title != "" {
		meta.Title = strPtr(title)
	}
	if desc := doc.MetaContent("description"); desc != "" {
		meta.MetaDescription = strPtr(desc)
	}
	if h1 := htmldoc.Text(doc.Find("h1").First()); h1 != "" {
		meta.H1 = strPtr(h1)
	}

	collect := func(tag string) []string {
		out := []string{}
		doc.Find(tag).Each(func(_ int, sel *goquery.Selection) {
			if text := htmldoc.Text(sel); text != "" {
				out = append(out, text)
			}
		})
		return out
	}
	return meta, collect("h2"), collect("h3")
}

// SEOMeta collects the canonical URL, robots, lang, viewport and
// charset values.
func SEOMeta(doc *htmldoc.Document) (canonical, robots, lang, viewport, charset *string) {
	doc.Find("link[rel]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rel, _ := sel.Attr("rel")
		if !strings.EqualFold(rel, "canonical") {
			return true
		}
		if href, ok := sel.Attr("href"); ok && href != "" {
			canonical = strPtr(href)
		}
		return false
	})
	robots = optional(doc.MetaContent("robots"))
	if l, ok := doc.Find("html").First().Attr("lang"); ok && l != "" {
		lang = strPtr(l)
	}
	viewport = optional(doc.MetaContent("viewport"))
	charset = optional(doc.Charset())
	return
}

// SocialMeta collects the Open Graph and Twitter card lookups.
func SocialMeta(doc *htmldoc.Document) (model.OpenGraph, model.TwitterCard) {
	og := model.OpenGraph{
		Title:       optional(doc.MetaProperty("og:title")),
		Description: optional(doc.MetaProperty("og:description")),
		Image:       optional(doc.MetaProperty("og:image")),
		URL:         optional(doc.MetaProperty("og:url")),
		Type:        optional(doc.MetaProperty("og:type")),
		SiteName:    optional(doc.MetaProperty("og:site_name")),
	}
	tw := model.TwitterCard{
		Card:        optional(doc.MetaContent("twitter:card")),
		Title:       optional(doc.MetaContent("twitter:title")),
		Description: optional(doc.MetaContent("twitter:description")),
		Image:       optional(doc.MetaContent("twitter:image")),
		Site:        optional(doc.MetaContent("twitter:site")),
	}
	return og, tw
}

// Images inventories up to 100 <img> sources resolved against the
// page URL.
func Images(doc *htmldoc.Document, baseURL string) []model.Image {
	base, _ := url.Parse(baseURL)
	images := []model.Image{}
	doc.Find("img").EachWithBreak(func(i int, img *goquery.Selection) bool {
		if i >= 100 {
			return false
		}
		src, _ := img.Attr("src")
		if src != "" && base != nil {
			if resolved, err := base.Parse(src); err == nil {
				src = resolved.String()
			}
		}
		alt, _ := img.Attr("alt")
		images = append(images, model.Image{Src: src, Alt: alt})
		return true
	})
	return images
}

var denyHrefPrefixes = []string{"javascript:", "mailto:", "tel:", "#", "data:"}

// PageLinks partitions the first 500 links into internal and external
// by root domain.
func PageLinks(doc *htmldoc.Document, pageURL string) (internal, external []model.Link) {
	internal = []model.Link{}
	external = []model.Link{}

	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	baseDomain := scope.RootDomain(base.Hostname())

	doc.Find("a[href]").EachWithBreak(func(i int, a *goquery.Selection) bool {
		if i >= 500 {
			return false
		}
		href, _ := a.Attr("href")
		for _, prefix := range denyHrefPrefixes {
			if strings.HasPrefix(href, prefix) {
				return true
			}
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return true
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}

		rel, _ := a.Attr("rel")
		link := model.Link{
			URL:      resolved.String(),
			Anchor:   htmldoc.Truncate(htmldoc.Text(a), 100),
			NoFollow: containsToken(strings.Fields(rel), "nofollow"),
		}
		if scope.RootDomain(resolved.Hostname()) == baseDomain {
			internal = append(internal, link)
		} else {
			external = append(external, link)
		}
		return true
	})
	return
}

// regionCaps limits the sample size stored per page region.
var regionCaps = map[string]int{"nav": 50, "header": 20, "footer": 30, "aside": 20, "main": 50}

// LinkLocations partitions links by the structural region that
// encloses them, with counts and capped samples.
func LinkLocations(doc *htmldoc.Document) model.LinkLocations {
	region := func(name string, links *goquery.Selection) model.RegionLinks {
		out := model.RegionLinks{Count: links.Length(), Links: []model.Link{}}
		limit := regionCaps[name]
		links.EachWithBreak(func(i int, a *goquery.Selection) bool {
			if i >= limit {
				return false
			}
			href, _ := a.Attr("href")
			out.Links = append(out.Links, model.Link{
				URL:    href,
				Anchor: htmldoc.Truncate(htmldoc.Text(a), 100),
			})
			return true
		})
		return out
	}

	// Header links exclude any nav nested inside the header.
	headerLinks := doc.Find("header a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return a.ParentsFiltered("nav").Length() == 0
	})

	// Main prefers <main>, then <article>, then everything outside the
	// structural regions.
	mainLinks := doc.Find("main a[href]")
	if mainLinks.Length() == 0 {
		mainLinks = doc.Find("article a[href]")
	}
	if mainLinks.Length() == 0 {
		mainLinks = doc.Find("body a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return a.ParentsFiltered("nav, header, footer, aside").Length() == 0
		})
	}

	return model.LinkLocations{
		Nav:    region("nav", doc.Find("nav a[href]")),
		Header: region("header", headerLinks),
		Footer: region("footer", doc.Find("footer a[href]")),
		Aside:  region("aside", doc.Find("aside a[href]")),
		Main:   region("main", mainLinks),
	}
}

// AnchorAnalysis classifies internal anchors as empty, generic or good.
func AnchorAnalysis(internalLinks []model.Link) model.AnchorAnalysis {
	result := model.AnchorAnalysis{
		GenericAnchorSamples: []model.Link{},
		EmptyAnchorSamples:   []model.Link{},
	}

	var generic, empty, good []model.Link
	for _, link := range internalLinks {
		anchor := strings.TrimSpace(link.Anchor)
		switch {
		case anchor == "":
			empty = append(empty, link)
		case isGenericAnchor(strings.ToLower(anchor)):
			generic = append(generic, link)
		default:
			good = append(good, link)
		}
	}

	total := len(internalLinks)
	result.TotalInternalLinks = total
	result.GenericAnchorCount = len(generic)
	result.EmptyAnchorCount = len(empty)
	result.GoodAnchorCount = len(good)
	if total > 0 {
		result.GenericAnchorPercent = round1(float64(len(generic)) / float64(total) * 100)
		result.EmptyAnchorPercent = round1(float64(len(empty)) / float64(total) * 100)
		result.GoodAnchorPercent = round1(float64(len(good)) / float64(total) * 100)
	}
	result.GenericAnchorSamples = capLinks(generic, 20)
	result.EmptyAnchorSamples = capLinks(empty, 10)

	return result
}

func capLinks(links []model.Link, limit int) []model.Link {
	if len(links) > limit {
		links = links[:limit]
	}
	out := make([]model.Link, len(links))
	copy(out, links)
	return out
}
