package extract

import (
	"fmt"
	"sort"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

// HeadingAnalysis walks h1..h6 in document order, counts per level and
// flags hierarchy issues (missing h1, multiple h1, skipped levels).
func HeadingAnalysis(doc *htmldoc.Document) model.HeadingAnalysis {
	result := model.HeadingAnalysis{
		Headings:        []model.Heading{},
		HierarchyIssues: []string{},
	}

	counts := map[int]int{}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		tag := goquery.NodeName(sel)
		level := int(tag[1] - '0')
		text := htmldoc.Text(sel)
		counts[level]++
		result.Headings = append(result.Headings, model.Heading{
			Level:     level,
			Tag:       tag,
			Text:      htmldoc.Truncate(text, 200),
			WordCount: wordCount(text),
		})
	})

	result.H1Count = counts[1]
	result.H2Count = counts[2]
	result.H3Count = counts[3]
	result.H4Count = counts[4]
	result.H5Count = counts[5]
	result.H6Count = counts[6]
	result.TotalHeadings = len(result.Headings)

	issues := map[string]struct{}{}
	if counts[1] == 0 {
		issues["missing_h1"] = struct{}{}
	}
	if counts[1] > 1 {
		issues["multiple_h1"] = struct{}{}
	}
	prev := 0
	for _, h := range result.Headings {
		if h.Level > prev+1 && prev > 0 {
			issues[fmt.Sprintf("skipped_level_h%d_to_h%d", prev, h.Level)] = struct{}{}
		}
		prev = h.Level
	}
	for issue := range issues {
		result.HierarchyIssues = append(result.HierarchyIssues, issue)
	}
	sort.Strings(result.HierarchyIssues)

	if len(result.Headings) > 0 {
		total := 0
		for _, h := range result.Headings {
			total += h.WordCount
		}
		result.AvgHeadingLength = round1(float64(total) / float64(len(result.Headings)))
	}

	return result
}
