package fetcher

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/openengine/crawler/coordination"
	"github.com/openengine/crawler/urlnorm"
)

// Worker is the Fetcher half of the pipeline: it owns the HTTP client and
// runs the per-iteration contract of spec.md §4.2 against the shared
// coordination primitives the Orchestrator wires in.
type Worker struct {
	Client        *HTTPFetcher
	URLQueue      *coordination.Queue[string]
	ParsedQueue   *coordination.Queue[*ParsedPage]
	Seen          *coordination.SeenSet
	Pause         *coordination.PauseSignal
	End           *coordination.EndSignal
	Messages      *coordination.MessageChannel
	Whitelist     []*regexp.Regexp
	MaxIterations int
	Logger        *zap.Logger
}

// Run executes the Fetcher's loop until End is latched, MaxIterations is
// reached (MaxIterations == -1 means unbounded), or the URLQueue is
// closed out from under it.
func (w *Worker) Run() {
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

		url, ok := w.URLQueue.Dequeue()
		if !ok {
			return
		}
		w.fetchOne(url)
	}
}

// fetchOne performs one GET + parse + link-discovery cycle for a single
// URL. Every failure mode here is non-fatal per spec.md §4.2/§7: it is
// logged and the worker moves on to the next iteration.
func (w *Worker) fetchOne(url string) {
	w.Messages.Emit(fmt.Sprintf("fetching %s", url))

	res, err := w.Client.Get(url)
	if err != nil {
		w.Logger.Warn("transient fetch error", zap.String("url", url), zap.Error(err))
		w.Messages.Emit(fmt.Sprintf("skip %s: %v", url, err))
		return
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		w.Logger.Warn("non-200 response", zap.String("url", url), zap.Int("status", res.StatusCode))
		w.Messages.Emit(fmt.Sprintf("skip %s: status %d", url, res.StatusCode))
		return
	}

	doc, err := ParseHTML(res.Body)
	if err != nil {
		w.Logger.Warn("parse error", zap.String("url", url), zap.Error(err))
		return
	}

	w.ParsedQueue.Enqueue(&ParsedPage{Kind: WebpageKind, Doc: doc, SourceURL: url})
	w.discoverLinks(doc, url)
}

// discoverLinks implements spec.md §4.2's link discovery and enqueue
// steps: collect every href, resolve against the current URL and base
// site, canonicalize and dedup, filter through the whitelist, sort for
// determinism, then enqueue every URL not already in Seen.
func (w *Worker) discoverLinks(doc *goquery.Document, currentURL string) {
	hrefs := ExtractHrefs(doc)
	baseSite := urlnorm.BaseSite(currentURL)

	resolved := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if href == "" || href == "None" {
			continue
		}
		resolved = append(resolved, urlnorm.Resolve(href, currentURL, baseSite))
	}

	cleaned := urlnorm.Dedup(resolved)
	filtered := urlnorm.WhitelistFilter(cleaned, w.Whitelist)
	sort.Strings(filtered)

	for _, u := range filtered {
		if w.Seen.InsertIfAbsent(u) {
			w.URLQueue.Enqueue(u)
		}
	}
}
