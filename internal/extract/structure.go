package extract

import (
	"github.com/PuerkitoBio/goquery"

	"geocrawl/internal/htmldoc"
	"geocrawl/internal/model"
)

// StructureElements inventories lists, tables, blockquotes, code,
// definition lists, accordions and figures.
func StructureElements(doc *htmldoc.Document) model.StructureElements {
	result := model.StructureElements{
		TableDetails:      []model.TableDetail{},
		BlockquoteSamples: []string{},
	}

	result.OrderedListsCount = doc.Find("ol").Length()
	result.UnorderedListsCount = doc.Find("ul").Length()
	result.TotalListItems = doc.Find("li").Length()

	tables := doc.Find("table")
	result.TablesCount = tables.Length()
	tables.EachWithBreak(func(i int, table *goquery.Selection) bool {
		if i >= 10 {
			return false
		}
		detail := model.TableDetail{
			Rows:      table.Find("tr").Length(),
			Cells:     table.Find("td, th").Length(),
			HasHeader: table.Find("thead").Length() > 0 || table.Find("th").Length() > 0,
		}
		if caption := table.Find("caption").First(); caption.Length() > 0 {
			detail.Caption = strPtr(htmldoc.Truncate(htmldoc.Text(caption), 100))
		}
		result.TableDetails = append(result.TableDetails, detail)
		return true
	})

	blockquotes := doc.Find("blockquote")
	result.BlockquotesCount = blockquotes.Length()
	blockquotes.EachWithBreak(func(i int, bq *goquery.Selection) bool {
		if i >= 5 {
			return false
		}
		result.BlockquoteSamples = append(result.BlockquoteSamples, htmldoc.Truncate(htmldoc.Text(bq), 200))
		return true
	})

	result.PreCodeBlocksCount = doc.Find("pre").Length()
	doc.Find("code").Each(func(_ int, code *goquery.Selection) {
		if code.ParentsFiltered("pre").Length() == 0 {
			result.InlineCodeCount++
		}
	})

	result.DefinitionListsCount = doc.Find("dl").Length()
	result.DefinitionTermsCount = doc.Find("dt").Length()
	result.AccordionsCount = doc.Find("details").Length()

	figures := doc.Find("figure")
	result.FiguresCount = figures.Length()
	figures.Each(func(_ int, fig *goquery.Selection) {
		if fig.Find("figcaption").Length() > 0 {
			result.FiguresWithCaption++
		}
	})

	return result
}
