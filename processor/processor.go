// Package processor implements the second pipeline stage of spec.md §4.3:
// drain the ParsedQueue, convert visible text to embeddings, and persist
// both the embeddings and the page's relational metadata.
package processor

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openengine/crawler/coordination"
	"github.com/openengine/crawler/embedding"
	"github.com/openengine/crawler/fetcher"
	"github.com/openengine/crawler/models"
	"github.com/openengine/crawler/store"
	"github.com/openengine/crawler/urlnorm"
	"github.com/openengine/crawler/vectorstore"
)

// MaxSegmentWords is the word-window length spec.md §4.3 fixes segments
// at.
const MaxSegmentWords = 450

// excludedTags are the subtrees spec.md §4.3 discards before extracting
// visible text.
var excludedTags = []string{"script", "style", "meta", "header", "footer", "nav", "noscript"}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Worker is the Processor half of the pipeline.
type Worker struct {
	ParsedQueue   *coordination.Queue[*fetcher.ParsedPage]
	Pause         *coordination.PauseSignal
	End           *coordination.EndSignal
	Messages      *coordination.MessageChannel
	MaxIterations int

	Embeddings   embedding.Client
	VectorStore  vectorstore.Store
	RelStore     store.Store
	Logger       *zap.Logger
	Now          func() time.Time
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Run executes the Processor's loop until End is latched, MaxIterations is
// reached, or the ParsedQueue is closed out from under it.
func (w *Worker) Run(ctx context.Context) {
	completed := 0
	for {
		if w.End.IsSet() {
			return
		}

		w.Pause.Observe(
			func() { w.Messages.Emit("paused") },
			func() { w.Messages.Emit("resumed") },
		)
		if w.End.IsSet() {
			return
		}

		if w.MaxIterations != -1 && completed >= w.MaxIterations {
			return
		}
		completed++

		page, ok := w.ParsedQueue.Dequeue()
		if !ok {
			return
		}
		w.processOne(ctx, page)
	}
}

func (w *Worker) processOne(ctx context.Context, page *fetcher.ParsedPage) {
	visibleText := ExtractVisibleText(page.Doc)
	segments := Segment(visibleText, MaxSegmentWords)

	if len(segments) > 0 {
		vectors, err := w.Embeddings.Encode(ctx, segments)
		if err != nil {
			w.Logger.Warn("embedding error", zap.String("url", page.SourceURL), zap.Error(err))
			w.Messages.Emit("embedding failed for " + page.SourceURL)
		} else {
			records := make([]models.EmbeddingRecord, 0, len(vectors))
			for _, vec := range vectors {
				records = append(records, models.EmbeddingRecord{
					ID:      uuid.NewString(),
					Vector:  vec,
					PageURL: page.SourceURL,
				})
			}
			if err := w.VectorStore.UpsertPage(ctx, records); err != nil {
				w.Logger.Warn("vector store upsert error", zap.String("url", page.SourceURL), zap.Error(err))
				w.Messages.Emit("vector upsert failed for " + page.SourceURL)
			}
		}
	}

	externalLinks := ExtractExternalLinks(page.Doc, page.SourceURL)
	if err := w.RelStore.UpsertCrawledResource(ctx, page.SourceURL, externalLinks, w.now()); err != nil {
		w.Logger.Warn("relational store error", zap.String("url", page.SourceURL), zap.Error(err))
	}
}

// ExtractVisibleText removes every subtree rooted at an excluded tag,
// concatenates the remaining text nodes with single-space separation,
// collapses whitespace runs, and trims — spec.md §4.3.
func ExtractVisibleText(doc *goquery.Document) string {
	clone := cloneDocument(doc)
	clone.Find(strings.Join(excludedTags, ",")).Remove()
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				parts = append(parts, c.Text())
				return
			}
			walk(c)
		})
	}
	walk(clone.Selection)
	text := strings.Join(parts, " ")
	collapsed := whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(collapsed)
}

// cloneDocument reparses the document's outer HTML so Remove() calls here
// never mutate the ParsedPage the Fetcher handed off, keeping visible-text
// extraction and external-link extraction independent passes over the
// same page (spec.md §9 "link extraction asymmetry").
func cloneDocument(doc *goquery.Document) *goquery.Document {
	html, err := doc.Html()
	if err != nil {
		return doc
	}
	clone, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return doc
	}
	return clone
}

// Segment splits text on whitespace into words and groups them into
// consecutive windows of maxWords, rejoining each window with single
// spaces. The final window may be shorter. An empty input yields an empty
// segment sequence.
func Segment(text string, maxWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var segments []string
	for i := 0; i < len(words); i += maxWords {
		end := i + maxWords
		if end > len(words) {
			end = len(words)
		}
		segments = append(segments, strings.Join(words[i:end], " "))
	}
	return segments
}

// ExtractExternalLinks implements spec.md §4.3's outbound-link extraction:
// every <a href> that is non-empty, doesn't start with "#" or "/", and
// doesn't contain the page's own base-site origin, canonicalized, resolved
// and sorted. This is deliberately a different filter than the Fetcher's
// frontier discovery (spec.md §9): it drops fragment, root-relative and
// own-origin absolute hrefs, and feeds CrawledResource.externalLinks, not
// the work queue. Path-relative hrefs (no scheme, no leading "/") pass the
// filter and are resolved against sourceURL, so a same-origin page linked
// that way is included.
func ExtractExternalLinks(doc *goquery.Document, sourceURL string) []string {
	baseSite := urlnorm.BaseSite(sourceURL)

	var external []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" {
			return
		}
		if href[0] == '#' || href[0] == '/' {
			return
		}
		if strings.Contains(href, baseSite) {
			return
		}
		external = append(external, href)
	})

	resolved := make([]string, 0, len(external))
	for _, href := range external {
		resolved = append(resolved, urlnorm.Resolve(href, sourceURL, baseSite))
	}
	cleaned := urlnorm.Dedup(resolved)
	sort.Strings(cleaned)
	return cleaned
}
