package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

// ContentPatterns counts questions, definitions, comparisons,
// statistics, citations, expert mentions and semantic triples in the
// body text, with capped example lists.
func ContentPatterns(text string, doc *htmldoc.Document) model.ContentPatterns {
	result := model.ContentPatterns{
		QuestionsExamples:        []string{},
		QuestionHeadingsExamples: []string{},
		DefinitionsExamples:      []string{},
		StatisticsExamples:       []string{},
		CitationsExamples:        []string{},
		SemanticTriplesExamples:  []string{},
	}
	if text == "" {
		return result
	}

	questions := questionRE.FindAllString(text, -1)
	result.QuestionsCount = len(questions)
	result.QuestionsExamples = capStrings(questions, 5, 0)

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		headingText := htmldoc.Text(sel)
		if questionEndingRE.MatchString(headingText) {
			result.QuestionHeadingsCount++
			if len(result.QuestionHeadingsExamples) < 5 {
				result.QuestionHeadingsExamples = append(result.QuestionHeadingsExamples, headingText)
			}
		}
	})

	definitions := definitionRE.FindAllString(text, -1)
	result.DefinitionsCount = len(definitions)
	result.DefinitionsExamples = capStrings(definitions, 5, 100)

	result.ComparisonsCount = len(comparisonRE.FindAllString(text, -1))

	statistics := statisticsRE.FindAllString(text, -1)
	result.StatisticsCount = len(statistics)
	result.StatisticsExamples = capStrings(statistics, 10, 0)

	citations := citationRE.FindAllString(text, -1)
	result.CitationsCount = len(citations)
	result.CitationsExamples = capStrings(citations, 5, 100)

	result.ExpertMentionsCount = len(expertRE.FindAllString(text, -1))

	triples := semanticTripleRE.FindAllStringSubmatch(text, -1)
	result.SemanticTriplesCount = len(triples)
	for _, t := range triples {
		if len(result.SemanticTriplesExamples) >= 5 {
			break
		}
		example := strings.TrimSpace(t[1]) + " " + t[2] + " " + strings.TrimSpace(t[3])
		result.SemanticTriplesExamples = append(result.SemanticTriplesExamples, htmldoc.Truncate(example, 80))
	}

	return result
}

func capStrings(in []string, limit, truncate int) []string {
	out := make([]string, 0, limit)
	for _, s := range in {
		if len(out) >= limit {
			break
		}
		if truncate > 0 {
			s = htmldoc.Truncate(s, truncate)
		}
		out = append(out, s)
	}
	return out
}
