// Package orchestrator implements spec.md §4.1: compose the initial work
// set from persisted state, launch the Fetcher and Processor with shared
// coordination, and wait for both to terminate. It is the Go-native
// reshaping of the teacher's crawler.WebCrawler (crawler/crawler.go),
// replacing depth/robots.txt-driven single-domain recursion with the
// spec's queue+pause+end lifecycle across a whole set of seed sites.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openengine/crawler/coordination"
	"github.com/openengine/crawler/embedding"
	"github.com/openengine/crawler/fetcher"
	"github.com/openengine/crawler/models"
	"github.com/openengine/crawler/processor"
	"github.com/openengine/crawler/store"
	"github.com/openengine/crawler/urlnorm"
	"github.com/openengine/crawler/vectorstore"
)

// defaultRevisitDelta is spec.md §4.1's default revisit age.
const defaultRevisitDelta = 24 * time.Hour

// defaultFetchTimeout is spec.md §4.2's fixed per-request timeout.
const defaultFetchTimeout = 7 * time.Second

// Signals bundles the lifecycle controls the admin surface manipulates.
// Pause is split one-per-worker rather than shared, resolving the open
// question in spec.md §9: a single shared toggle cannot guarantee both
// workers pause/resume in lockstep, since each worker clears and re-waits
// independently. End is latched once for both, since End has no such race
// (it never needs to be cleared).
type Signals struct {
	FetcherPause   *coordination.PauseSignal
	ProcessorPause *coordination.PauseSignal
	End            *coordination.EndSignal
}

// NewSignals creates a fresh, cleared Signals bundle for one crawl run.
func NewSignals() *Signals {
	return &Signals{
		FetcherPause:   coordination.NewPauseSignal(),
		ProcessorPause: coordination.NewPauseSignal(),
		End:            coordination.NewEndSignal(),
	}
}

// TogglePause flips both workers' pause signals. A single admin
// "toggle-crawl" call maps to one Toggle on each, which is the best a
// cooperative, non-centralized pair of workers can offer without adding a
// third coordination round-trip (see DESIGN.md open-question note).
func (s *Signals) TogglePause() {
	s.FetcherPause.Toggle()
	s.ProcessorPause.Toggle()
}

// Config carries every input spec.md §4.1 lists for a single crawl run.
type Config struct {
	RevisitDelta   time.Duration
	FetchTimeout   time.Duration
	MaxIterations  int
	RegexWhitelist []string

	RelStore    store.Store
	VectorStore vectorstore.Store
	Embeddings  embedding.Client

	Signals  *Signals
	Messages *coordination.MessageChannel

	Logger *zap.Logger
}

// Orchestrator owns one crawl run's lifecycle.
type Orchestrator struct {
	cfg Config
}

// New creates an Orchestrator. Zero-value fields in cfg are defaulted:
// RevisitDelta to 24h, MaxIterations to -1 (unbounded), Signals/Messages
// to fresh instances if nil.
func New(cfg Config) *Orchestrator {
	if cfg.RevisitDelta == 0 {
		cfg.RevisitDelta = defaultRevisitDelta
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = -1
	}
	if cfg.Signals == nil {
		cfg.Signals = NewSignals()
	}
	if cfg.Messages == nil {
		cfg.Messages = coordination.NewMessageChannel()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg}
}

// Run seeds the frontier from persisted state, launches the Fetcher and
// Processor, and blocks until both terminate. It may be called again after
// returning (spec.md §4.1 "the crawl may be re-invoked after return").
func (o *Orchestrator) Run(ctx context.Context) error {
	urlQueue := coordination.NewQueue[string]()
	parsedQueue := coordination.NewQueue[*fetcher.ParsedPage]()
	seen := coordination.NewSeenSet()

	whitelistPatterns := o.cfg.RegexWhitelist

	seedSites, err := o.cfg.RelStore.SeedSites(ctx)
	if err != nil {
		return fmt.Errorf("reading seed sites at startup: %w", err)
	}
	if len(whitelistPatterns) == 0 {
		whitelistPatterns = defaultWhitelistFromSeeds(seedSites)
	}
	whitelist := urlnorm.CompileWhitelist(whitelistPatterns)

	resources, err := o.cfg.RelStore.CrawledResources(ctx)
	if err != nil {
		return fmt.Errorf("reading crawled resources at startup: %w", err)
	}

	seedWorkSet(seedSites, resources, o.cfg.RevisitDelta, time.Now(), urlQueue, seen)

	fetchWorker := &fetcher.Worker{
		Client:        fetcher.New("openengine-crawler/1.0", o.cfg.FetchTimeout),
		URLQueue:      urlQueue,
		ParsedQueue:   parsedQueue,
		Seen:          seen,
		Pause:         o.cfg.Signals.FetcherPause,
		End:           o.cfg.Signals.End,
		Messages:      o.cfg.Messages,
		Whitelist:     whitelist,
		MaxIterations: o.cfg.MaxIterations,
		Logger:        o.cfg.Logger.Named("fetcher"),
	}

	processWorker := &processor.Worker{
		ParsedQueue:   parsedQueue,
		Pause:         o.cfg.Signals.ProcessorPause,
		End:           o.cfg.Signals.End,
		Messages:      o.cfg.Messages,
		MaxIterations: o.cfg.MaxIterations,
		Embeddings:    o.cfg.Embeddings,
		VectorStore:   o.cfg.VectorStore,
		RelStore:      o.cfg.RelStore,
		Logger:        o.cfg.Logger.Named("processor"),
	}

	var (
		wg         sync.WaitGroup
		fetchErr   error
		processErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				fetchErr = fmt.Errorf("fetcher worker panicked: %v", r)
			}
		}()
		fetchWorker.Run()
	}()
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				processErr = fmt.Errorf("processor worker panicked: %v", r)
			}
		}()
		processWorker.Run(ctx)
	}()
	wg.Wait()

	if fetchErr != nil && processErr != nil {
		return fmt.Errorf("both workers failed: fetcher: %v, processor: %v", fetchErr, processErr)
	}
	if fetchErr != nil {
		return fmt.Errorf("fetcher worker failed: %w", fetchErr)
	}
	if processErr != nil {
		return fmt.Errorf("processor worker failed: %w", processErr)
	}
	return nil
}

// defaultWhitelistFromSeeds builds the whitelist fallback spec.md §9
// describes: when the admin supplies no regexes, every seed site's base
// origin is used, scoping the crawl to those origins by default.
func defaultWhitelistFromSeeds(seedSites []models.SeedSite) []string {
	var patterns []string
	for _, s := range seedSites {
		patterns = append(patterns, regexp.QuoteMeta(urlnorm.BaseSite(s.URL)))
	}
	return patterns
}

// seedWorkSet implements spec.md §4.1's initial work set:
//
//   - (a) for every SeedSite, enqueue its base URL and every base+suffix
//   - (b) for every CrawledResource whose lastVisited is older than
//     revisitDelta, enqueue it for a revisit
//   - (c) for every CrawledResource not selected for revisit, insert it
//     into SeenSet so the Fetcher never re-discovers and re-enqueues it
func seedWorkSet(
	seedSites []models.SeedSite,
	resources []models.CrawledResource,
	revisitDelta time.Duration,
	now time.Time,
	urlQueue *coordination.Queue[string],
	seen *coordination.SeenSet,
) {
	for _, s := range seedSites {
		if seen.InsertIfAbsent(s.URL) {
			urlQueue.Enqueue(s.URL)
		}
		for _, suffix := range s.Seeds {
			u := s.URL + suffix
			if seen.InsertIfAbsent(u) {
				urlQueue.Enqueue(u)
			}
		}
	}

	for _, r := range resources {
		if now.Sub(r.LastVisited) > revisitDelta {
			if seen.InsertIfAbsent(r.URL) {
				urlQueue.Enqueue(r.URL)
			}
		} else {
			seen.Insert(r.URL)
		}
	}
}
