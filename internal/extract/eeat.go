package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

var authorClassREs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)author`),
	regexp.MustCompile(`(?i)byline`),
	regexp.MustCompile(`(?i)post-author`),
	regexp.MustCompile(`(?i)entry-author`),
}

// EEATSignals derives author, date, trust-page, contact and credential
// signals from the page.
func EEATSignals(doc *htmldoc.Document) model.EEATSignals {
	result := model.EEATSignals{
		TrustPageLinks:   []string{},
		CredentialsFound: []string{},
	}

	if author := doc.MetaContent("author"); author != "" {
		result.AuthorName = strPtr(author)
	}

	if authorLink := doc.Find(`a[rel~="author"]`).First(); authorLink.Length() > 0 {
		if result.AuthorName == nil {
			if name := htmldoc.Text(authorLink); name != "" {
				result.AuthorName = strPtr(name)
			}
		}
		if href, ok := authorLink.Attr("href"); ok {
			result.AuthorURL = strPtr(href)
		}
	}

	if result.AuthorName == nil {
		doc.Find("[class]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			class, _ := sel.Attr("class")
			for _, re := range authorClassREs {
				if re.MatchString(class) {
					if name := htmldoc.Text(sel); name != "" {
						result.AuthorName = strPtr(htmldoc.Truncate(name, 100))
						return false
					}
				}
			}
			return true
		})
	}

	if timeElem := doc.Find("time[datetime]").First(); timeElem.Length() > 0 {
		if dt, ok := timeElem.Attr("datetime"); ok && dt != "" {
			result.PublishedDate = strPtr(dt)
		}
	}
	if published := doc.MetaProperty("article:published_time"); published != "" {
		result.PublishedDate = strPtr(published)
	}
	if modified := doc.MetaProperty("article:modified_time"); modified != "" {
		result.ModifiedDate = strPtr(modified)
	}

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		lower := strings.ToLower(href)

		if trustPageRE.MatchString(href) {
			result.TrustPageLinks = append(result.TrustPageLinks, href)
		}
		if strings.Contains(lower, "/about") {
			result.HasAboutPageLink = true
		}
		if strings.Contains(lower, "/contact") {
			result.HasContactPageLink = true
		}
		if strings.Contains(lower, "/privacy") {
			result.HasPrivacyPageLink = true
		}
		if strings.Contains(lower, "/terms") || strings.Contains(lower, "/tos") {
			result.HasTermsPageLink = true
		}
		if strings.Contains(lower, "/author/") {
			result.HasAuthorPageLink = true
		}
	})

	pageText := doc.Selection.Text()
	result.HasEmail = emailRE.MatchString(pageText)
	result.HasPhone = phoneRE.MatchString(pageText)
	result.HasAddress = doc.Find("address").Length() > 0

	seen := map[string]struct{}{}
	for _, cred := range expertRE.FindAllString(pageText, -1) {
		if len(seen) >= 10 {
			break
		}
		if _, dup := seen[cred]; dup {
			continue
		}
		seen[cred] = struct{}{}
		result.CredentialsFound = append(result.CredentialsFound, cred)
	}

	return result
}
