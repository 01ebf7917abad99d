package admin

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openengine/crawler/coordination"
	"github.com/openengine/crawler/embedding"
	"github.com/openengine/crawler/orchestrator"
	"github.com/openengine/crawler/store"
	"github.com/openengine/crawler/vectorstore"
)

// Config carries the admin surface's own settings, layered on top of the
// crawl pipeline's dependencies (spec.md §6 "Environment").
type Config struct {
	SecretKey string
	Algorithm string
	Dev       bool

	RevisitDelta time.Duration
	FetchTimeout time.Duration
}

// Server is the admin HTTP surface: spec.md §6's route table bound to the
// relational store, vector store, and embedding client shared with the
// crawl pipeline, plus whatever Orchestrator run is currently active.
type Server struct {
	cfg Config

	relStore    store.Store
	vectorStore vectorstore.Store
	embeddings  embedding.Client
	logger      *zap.Logger

	mu      sync.Mutex
	signals *orchestrator.Signals
	cancel  context.CancelFunc
}

// NewServer wires a Server over the given stores and embedding client.
func NewServer(cfg Config, rel store.Store, vec vectorstore.Store, emb embedding.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, relStore: rel, vectorStore: vec, embeddings: emb, logger: logger}
}

// Routes builds the mux spec.md §6 describes. A bare net/http.ServeMux is
// used throughout the pack's admin-facing commands (dillonlara115/
// barracuda's cmd/serve.go), so no router dependency is introduced here.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/set-admin", s.handleSetAdmin)
	mux.HandleFunc("/get-admin", s.requireAuth(s.handleGetAdmin))

	mux.HandleFunc("/add-seed-url", s.requireAuth(s.handleAddSeedURL))
	mux.HandleFunc("/delete-seed-url", s.requireAuth(s.handleDeleteSeedURL))
	mux.HandleFunc("/update-seed-url", s.requireAuth(s.handleUpdateSeedURL))
	mux.HandleFunc("/add-seed-to-url", s.requireAuth(s.handleAddSeed))
	mux.HandleFunc("/delete-seed-from-url", s.requireAuth(s.handleDeleteSeed))
	mux.HandleFunc("/update-seed-url-seed", s.requireAuth(s.handleUpdateSeed))

	mux.HandleFunc("/get-seed-urls", s.requireAuth(s.handleGetSeedURLs))
	mux.HandleFunc("/get-crawled-urls", s.requireAuth(s.handleGetCrawledURLs))
	mux.HandleFunc("/get-potential-urls", s.requireAuth(s.handleGetPotentialURLs))

	mux.HandleFunc("/start-crawl", s.requireAuth(s.handleStartCrawl))
	mux.HandleFunc("/stop-crawl", s.requireAuth(s.handleStopCrawl))
	mux.HandleFunc("/toggle-crawl", s.requireAuth(s.handleToggleCrawl))

	mux.HandleFunc("/search", s.requireAuth(s.handleSearch))

	return mux
}

// startCrawl launches a new Orchestrator run in the background, replacing
// whatever run was previously tracked. It does not wait for the previous
// run to finish; an admin that calls start-crawl twice in a row simply
// loses the ability to stop/toggle the first one, which mirrors spec.md
// §4.1's "may be re-invoked" note rather than trying to serialize runs
// the admin surface itself never promised to serialize.
func (s *Server) startCrawl(regex []string, maxIter int) {
	signals := orchestrator.NewSignals()
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.signals = signals
	s.cancel = cancel
	s.mu.Unlock()

	o := orchestrator.New(orchestrator.Config{
		RevisitDelta:   s.cfg.RevisitDelta,
		FetchTimeout:   s.cfg.FetchTimeout,
		MaxIterations:  maxIter,
		RegexWhitelist: regex,
		RelStore:       s.relStore,
		VectorStore:    s.vectorStore,
		Embeddings:     s.embeddings,
		Signals:        signals,
		Messages:       coordination.NewMessageChannel(),
		Logger:         s.logger,
	})

	go func() {
		if err := o.Run(ctx); err != nil {
			s.logger.Warn("crawl run ended with error", zap.Error(err))
		}
	}()
}

func (s *Server) currentSignals() *orchestrator.Signals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals
}
