package processor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/openengine/crawler/coordination"
	"github.com/openengine/crawler/embedding"
	"github.com/openengine/crawler/fetcher"
	"github.com/openengine/crawler/store"
	"github.com/openengine/crawler/vectorstore"
)

func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing test html: %v", err)
	}
	return doc
}

func TestExtractVisibleTextDropsExcludedTags(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<script>var x = 1;</script>
		<nav>Home About</nav>
		<p>Hello   world</p>
		<footer>copyright</footer>
	</body></html>`)
	got := ExtractVisibleText(doc)
	if got != "Hello world" {
		t.Errorf("ExtractVisibleText() = %q, want %q", got, "Hello world")
	}
}

func TestExtractVisibleTextEmptyPage(t *testing.T) {
	doc := mustParse(t, `<html><body><script>x</script></body></html>`)
	if got := ExtractVisibleText(doc); got != "" {
		t.Errorf("expected empty visible text, got %q", got)
	}
}

func TestSegmentEmptyYieldsNoSegments(t *testing.T) {
	if got := Segment("", MaxSegmentWords); got != nil {
		t.Errorf("expected nil segments for empty text, got %v", got)
	}
}

func TestSegmentWindowsAndRemainder(t *testing.T) {
	words := make([]string, 1000)
	for i := range words {
		words[i] = "w"
	}
	text := strings.Join(words, " ")
	segments := Segment(text, MaxSegmentWords)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments (450+450+100), got %d", len(segments))
	}
	if len(strings.Fields(segments[2])) != 100 {
		t.Errorf("expected remainder segment of 100 words, got %d", len(strings.Fields(segments[2])))
	}
}

func TestExtractExternalLinksFiltersInternalAndFragments(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<a href="#section">frag</a>
		<a href="/internal/path">internal</a>
		<a href="https://site.example/own-page">own origin</a>
		<a href="https://external.example/page">external</a>
	</body></html>`)
	got := ExtractExternalLinks(doc, "https://site.example/page.html")
	want := []string{"https://external.example/page"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("ExtractExternalLinks() = %v, want %v", got, want)
	}
}

func TestWorkerEndToEndSinglePageNoLinks(t *testing.T) {
	doc := mustParse(t, `<html><body><a>Example</a></body></html>`)
	page := &fetcher.ParsedPage{Kind: fetcher.WebpageKind, Doc: doc, SourceURL: "http://site/page.html"}

	parsedQueue := coordination.NewQueue[*fetcher.ParsedPage]()
	parsedQueue.Enqueue(page)

	vec := vectorstore.NewMemStore()
	rel := store.NewMemStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	w := &Worker{
		ParsedQueue:   parsedQueue,
		Pause:         coordination.NewPauseSignal(),
		End:           coordination.NewEndSignal(),
		Messages:      coordination.NewMessageChannel(),
		MaxIterations: 1,
		Embeddings:    embedding.Fake{},
		VectorStore:   vec,
		RelStore:      rel,
		Logger:        zap.NewNop(),
		Now:           func() time.Time { return now },
	}
	w.Run(context.Background())

	records := vec.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 embedding record, got %d", len(records))
	}
	if records[0].PageURL != "http://site/page.html" {
		t.Errorf("unexpected embedding payload url: %s", records[0].PageURL)
	}

	resources, _ := rel.CrawledResources(context.Background())
	if len(resources) != 1 {
		t.Fatalf("expected 1 resources row, got %d", len(resources))
	}
	if resources[0].AllVisits != 1 {
		t.Errorf("expected allVisits=1, got %d", resources[0].AllVisits)
	}
	if len(resources[0].ExternalLinks) != 0 {
		t.Errorf("expected no external links, got %v", resources[0].ExternalLinks)
	}
}

func TestVectorRelationalAgreement(t *testing.T) {
	pages := []*fetcher.ParsedPage{
		{Kind: fetcher.WebpageKind, Doc: mustParse(t, `<html><body><p>one</p></body></html>`), SourceURL: "http://site/a"},
		{Kind: fetcher.WebpageKind, Doc: mustParse(t, `<html><body><p>two</p></body></html>`), SourceURL: "http://site/b"},
	}
	parsedQueue := coordination.NewQueue[*fetcher.ParsedPage]()
	for _, p := range pages {
		parsedQueue.Enqueue(p)
	}

	vec := vectorstore.NewMemStore()
	rel := store.NewMemStore()
	w := &Worker{
		ParsedQueue:   parsedQueue,
		Pause:         coordination.NewPauseSignal(),
		End:           coordination.NewEndSignal(),
		Messages:      coordination.NewMessageChannel(),
		MaxIterations: len(pages),
		Embeddings:    embedding.Fake{},
		VectorStore:   vec,
		RelStore:      rel,
		Logger:        zap.NewNop(),
	}
	w.Run(context.Background())

	resources, _ := rel.CrawledResources(context.Background())
	resourceURLs := map[string]bool{}
	for _, r := range resources {
		resourceURLs[r.URL] = true
	}
	embeddingURLs := map[string]bool{}
	for _, rec := range vec.Records() {
		embeddingURLs[rec.PageURL] = true
	}
	if len(resourceURLs) != len(embeddingURLs) {
		t.Fatalf("resource/embedding url sets differ in size: %v vs %v", resourceURLs, embeddingURLs)
	}
	for u := range resourceURLs {
		if !embeddingURLs[u] {
			t.Errorf("resource url %s has no matching embedding", u)
		}
	}
}
