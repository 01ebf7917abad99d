package admin

import (
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/openengine/crawler/vectorstore"
)

// defaultSearchLimit bounds how many nearest vectors handleSearch asks the
// vector store for per query, aggregated down to unique page URLs.
const defaultSearchLimit = 20

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResult struct {
	URL   string  `json:"url"`
	Score float32 `json:"score"`
}

// handleSearch is the read-only query surface spec.md's original_source
// exposes alongside the admin CRUD routes: encode the query the same way
// the Processor encodes page segments, search the embeddings collection,
// and aggregate hits down to one summed score per page URL.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil || req.Query == "" {
		message(w, "missing query")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	vectors, err := s.embeddings.Encode(ctx, []string{req.Query})
	if err != nil || len(vectors) == 0 {
		s.logger.Warn("search embedding failed", zap.Error(err))
		message(w, "failed to embed query")
		return
	}

	hits, err := s.vectorStore.Search(ctx, vectors[0], uint64(limit))
	if err != nil {
		s.logger.Warn("search query failed", zap.Error(err))
		message(w, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string][]searchResult{"results": sumPerURL(hits)})
}

// sumPerURL aggregates hits down to one score per page URL by summing each
// segment's cosine score for that URL, grounded on original_source/app/core/
// search.py's urls[url] += match.score accumulation, and returns pages
// ordered by descending aggregate score.
func sumPerURL(hits []vectorstore.SearchHit) []searchResult {
	order := make([]string, 0, len(hits))
	scores := make(map[string]float32, len(hits))
	for _, h := range hits {
		if _, ok := scores[h.URL]; !ok {
			order = append(order, h.URL)
		}
		scores[h.URL] += h.Score
	}

	out := make([]searchResult, 0, len(order))
	for _, url := range order {
		out = append(out, searchResult{URL: url, Score: scores[url]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
