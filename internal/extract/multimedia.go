package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

var videoPlatformDomains = []string{"youtube.com", "youtu.be", "vimeo.com", "wistia.com", "wistia.net"}
var audioPlatformDomains = []string{"spotify.com", "podcasts.apple.com", "anchor.fm", "soundcloud.com"}
var infographicKeywords = []string{"infographic", "chart", "diagram", "graph", "visualization"}

// MultimediaAnalysis inventories embedded video, audio, PDF links and
// infographic-flavored images.
func MultimediaAnalysis(doc *htmldoc.Document) model.Multimedia {
	result := model.Multimedia{
		Videos:       []model.MediaItem{},
		Audio:        []model.MediaItem{},
		PDFs:         []model.PDFLink{},
		Infographics: []model.Image{},
	}

	doc.Find("iframe").Each(func(_ int, iframe *goquery.Selection) {
		src := iframeSrc(iframe)
		lower := strings.ToLower(src)
		if matchesAny(lower, videoPlatformDomains) {
			result.Videos = append(result.Videos, model.MediaItem{
				Type:     "iframe",
				Src:      htmldoc.Truncate(src, 500),
				Platform: detectVideoPlatform(lower),
			})
		}
		if matchesAny(lower, audioPlatformDomains) {
			result.Audio = append(result.Audio, model.MediaItem{
				Type:     "iframe",
				Src:      htmldoc.Truncate(src, 500),
				Platform: detectAudioPlatform(lower),
			})
		}
	})

	doc.Find("video").Each(func(_ int, video *goquery.Selection) {
		src, _ := video.Attr("src")
		if source := video.Find("source").First(); source.Length() > 0 {
			if s, ok := source.Attr("src"); ok && s != "" {
				src = s
			}
		}
		if src != "" {
			result.Videos = append(result.Videos, model.MediaItem{
				Type:     "html5_video",
				Src:      htmldoc.Truncate(src, 500),
				Platform: "native",
			})
		}
	})

	doc.Find("audio").Each(func(_ int, audio *goquery.Selection) {
		src, _ := audio.Attr("src")
		if source := audio.Find("source").First(); source.Length() > 0 {
			if s, ok := source.Attr("src"); ok && s != "" {
				src = s
			}
		}
		if src != "" {
			result.Audio = append(result.Audio, model.MediaItem{
				Type:     "html5_audio",
				Src:      htmldoc.Truncate(src, 500),
				Platform: "native",
			})
		}
	})

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if strings.HasSuffix(strings.ToLower(href), ".pdf") {
			result.PDFs = append(result.PDFs, model.PDFLink{
				URL:        htmldoc.Truncate(href, 500),
				AnchorText: htmldoc.Truncate(htmldoc.Text(link), 100),
			})
		}
	})

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		src, _ := img.Attr("src")
		if src == "" {
			src, _ = img.Attr("data-src")
		}
		altLower := strings.ToLower(alt)
		srcLower := strings.ToLower(src)
		for _, kw := range infographicKeywords {
			if strings.Contains(altLower, kw) || strings.Contains(srcLower, kw) {
				result.Infographics = append(result.Infographics, model.Image{
					Src: htmldoc.Truncate(src, 500),
					Alt: htmldoc.Truncate(alt, 200),
				})
				break
			}
		}
	})

	result.VideoCount = len(result.Videos)
	result.HasVideo = result.VideoCount > 0
	result.AudioCount = len(result.Audio)
	result.HasAudio = result.AudioCount > 0
	result.PDFCount = len(result.PDFs)
	result.HasPDF = result.PDFCount > 0
	result.InfographicCount = len(result.Infographics)

	return result
}

func iframeSrc(iframe *goquery.Selection) string {
	if src, ok := iframe.Attr("src"); ok && src != "" {
		return src
	}
	src, _ := iframe.Attr("data-src")
	return src
}

func matchesAny(s string, domains []string) bool {
	for _, d := range domains {
		if strings.Contains(s, d) {
			return true
		}
	}
	return false
}

func detectVideoPlatform(src string) string {
	switch {
	case strings.Contains(src, "youtube") || strings.Contains(src, "youtu.be"):
		return "youtube"
	case strings.Contains(src, "vimeo"):
		return "vimeo"
	case strings.Contains(src, "wistia"):
		return "wistia"
	}
	return "unknown"
}

func detectAudioPlatform(src string) string {
	switch {
	case strings.Contains(src, "spotify"):
		return "spotify"
	case strings.Contains(src, "apple"):
		return "apple_podcasts"
	case strings.Contains(src, "anchor"):
		return "anchor"
	case strings.Contains(src, "soundcloud"):
		return "soundcloud"
	}
	return "unknown"
}
