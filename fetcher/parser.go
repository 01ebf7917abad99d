package fetcher

import (
	"io"

	"github.com/PuerkitoBio/goquery"

	"github.com/openengine/crawler/models"
)

// ParsedPage is the in-flight record spec.md §3 describes: it exists only
// in memory, moving from the Fetcher to the Processor through the
// ParsedQueue.
type ParsedPage struct {
	Kind      models.PageKind
	Doc       *goquery.Document
	SourceURL string
}

// WebpageKind is the only PageKind the Fetcher produces today.
const WebpageKind = models.WebpageKind

// ParseHTML parses body as HTML, grounded on the teacher's
// goquery.NewDocumentFromReader call in crawler/fetcher/parser.go.
func ParseHTML(body io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(body)
}

// ExtractHrefs collects every href attribute value on every <a> element in
// doc, in document order, unresolved and uncanonicalized — spec.md §4.2
// step 1. Resolution and canonicalization are the caller's job (package
// urlnorm). It feeds the Fetcher's frontier discovery; the Processor's
// external-link metadata (processor.ExtractExternalLinks) walks the <a>
// elements itself with its own filter (spec.md §9 "link extraction
// asymmetry").
func ExtractHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		hrefs = append(hrefs, href)
	})
	return hrefs
}
