package extract

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

// jsonLDMaxWalkDepth bounds the structured-data walk so adversarial
// nesting cannot exhaust the stack.
const jsonLDMaxWalkDepth = 10

// SchemaAnalysis parses every JSON-LD block leniently and derives type
// flags, author and date fields.
func SchemaAnalysis(doc *htmldoc.Document) model.SchemaAnalysis {
	result := model.SchemaAnalysis{
		JSONLDBlocks: []any{},
		SchemaTypes:  []string{},
	}

	types := map[string]struct{}{}
	dates := map[string]string{}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		content := strings.TrimSpace(sel.Text())
		if content == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(content), &data); err != nil {
			return
		}
		result.JSONLDBlocks = append(result.JSONLDBlocks, data)
		walkJSONLD(data, types, dates, &result)
	})

	for t := range types {
		result.SchemaTypes = append(result.SchemaTypes, t)
	}
	sort.Strings(result.SchemaTypes)

	lower := map[string]struct{}{}
	for t := range types {
		lower[strings.ToLower(t)] = struct{}{}
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := lower[n]; ok {
				return true
			}
		}
		return false
	}
	result.HasFAQSchema = has("faqpage")
	result.HasHowToSchema = has("howto")
	result.HasArticleSchema = has("article", "newsarticle", "blogposting")
	result.HasPersonSchema = has("person")
	result.HasOrgSchema = has("organization")
	result.HasProductSchema = has("product")
	result.HasBreadcrumbSchema = has("breadcrumblist")
	result.HasWebPageSchema = has("webpage")

	result.SchemaDatePublished = optionalFromMap(dates, "datePublished")
	result.SchemaDateModified = optionalFromMap(dates, "dateModified")
	result.SchemaDateCreated = optionalFromMap(dates, "dateCreated")

	return result
}

type jsonLDFrame struct {
	node  any
	depth int
}

// walkJSONLD traverses a decoded JSON-LD document iteratively,
// collecting @type values, the first author and the first occurrence
// of each date field.
func walkJSONLD(data any, types map[string]struct{}, dates map[string]string, result *model.SchemaAnalysis) {
	stack := []jsonLDFrame{{node: data, depth: 0}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if frame.depth > jsonLDMaxWalkDepth {
			continue
		}

		switch node := frame.node.(type) {
		case map[string]any:
			if tv, ok := node["@type"]; ok {
				switch t := tv.(type) {
				case string:
					types[t] = struct{}{}
				case []any:
					for _, item := range t {
						if s, ok := item.(string); ok {
							types[s] = struct{}{}
						}
					}
				}
			}

			if av, ok := node["author"]; ok && result.SchemaAuthor == nil {
				switch author := av.(type) {
				case map[string]any:
					if name, ok := author["name"].(string); ok {
						result.SchemaAuthor = strPtr(name)
					}
				case string:
					result.SchemaAuthor = strPtr(author)
				}
			}

			for _, key := range []string{"datePublished", "dateModified", "dateCreated"} {
				if dv, ok := node[key]; ok {
					if _, seen := dates[key]; !seen {
						if s, ok := dv.(string); ok {
							dates[key] = s
						}
					}
				}
			}

			for _, value := range node {
				stack = append(stack, jsonLDFrame{node: value, depth: frame.depth + 1})
			}
		case []any:
			for _, item := range node {
				stack = append(stack, jsonLDFrame{node: item, depth: frame.depth + 1})
			}
		}
	}
}

func optionalFromMap(m map[string]string, key string) *string {
	if v, ok := m[key]; ok && v != "" {
		return &v
	}
	return nil
}
