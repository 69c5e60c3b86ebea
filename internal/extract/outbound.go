package extract

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
	"geocrawl/internal/scope"
)

// OutboundLinkAnalysis inventories external links and credits those
// pointing at authority domains.
func OutboundLinkAnalysis(doc *htmldoc.Document, baseURL string) model.OutboundLinkAnalysis {
	result := model.OutboundLinkAnalysis{
		OutboundLinks:  []model.OutboundLink{},
		AuthorityLinks: []model.OutboundLink{},
	}

	baseDomain := ""
	if u, err := url.Parse(baseURL); err == nil {
		baseDomain = scope.RootDomain(u.Hostname())
	}

	seenDomains := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return
		}
		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		domain := strings.ToLower(parsed.Host)
		if domain == "" || domain == baseDomain || strings.HasSuffix(domain, "."+baseDomain) {
			return
		}

		rel, _ := link.Attr("rel")
		relParts := strings.Fields(rel)
		info := model.OutboundLink{
			URL:        htmldoc.Truncate(href, 500),
			Domain:     domain,
			AnchorText: htmldoc.Truncate(htmldoc.Text(link), 200),
			NoFollow:   containsToken(relParts, "nofollow"),
			Sponsored:  containsToken(relParts, "sponsored"),
			UGC:        containsToken(relParts, "ugc"),
		}

		result.OutboundLinks = append(result.OutboundLinks, info)
		seenDomains[domain] = struct{}{}

		if isAuthorityDomain(domain) {
			result.AuthorityLinks = append(result.AuthorityLinks, info)
		}
		if strings.Contains(domain, ".gov") || strings.Contains(domain, ".edu") {
			result.GovEduLinksCount++
		}
		if strings.Contains(domain, "wikipedia.org") {
			result.WikipediaLinksCount++
		}
		if info.NoFollow {
			result.NoFollowCount++
		}
	})

	result.TotalOutboundCount = len(result.OutboundLinks)
	result.AuthorityLinksCount = len(result.AuthorityLinks)
	result.UniqueDomainsCount = len(seenDomains)
	if result.TotalOutboundCount > 0 {
		result.NoFollowRatio = round2(float64(result.NoFollowCount) / float64(result.TotalOutboundCount))
	}

	return result
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

// LinkChecker HEAD-checks a sample of outbound links as a content
// decay signal. It is optional and off by default.
type LinkChecker struct {
	Client   *http.Client
	MaxLinks int
}

// Check samples up to MaxLinks outbound URLs and records non-2xx/3xx
// statuses and transport failures as broken.
func (c *LinkChecker) Check(ctx context.Context, outbound []model.OutboundLink) model.LinkCheck {
	result := model.LinkCheck{
		BrokenLinks:  []model.LinkStatus{},
		SampledLinks: []model.LinkStatus{},
	}

	maxLinks := c.MaxLinks
	if maxLinks <= 0 {
		maxLinks = 10
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	for _, link := range outbound {
		if len(result.SampledLinks) >= maxLinks {
			break
		}

		status := model.LinkStatus{URL: htmldoc.Truncate(link.URL, 500)}
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, link.URL, nil)
		if err != nil {
			status.Reason = htmldoc.Truncate(err.Error(), 200)
		} else if resp, err := client.Do(req); err != nil {
			status.Reason = htmldoc.Truncate(err.Error(), 200)
		} else {
			resp.Body.Close()
			code := resp.StatusCode
			status.Status = &code
		}

		result.SampledLinks = append(result.SampledLinks, status)
		result.CheckedLinksCount++
		if status.Status == nil || *status.Status >= 400 {
			result.BrokenLinks = append(result.BrokenLinks, status)
			result.BrokenLinksCount++
		}
	}

	return result
}
