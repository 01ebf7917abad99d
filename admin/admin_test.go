package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/openengine/crawler/embedding"
	"github.com/openengine/crawler/models"
	"github.com/openengine/crawler/store"
	"github.com/openengine/crawler/vectorstore"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(Config{SecretKey: "test-secret", Algorithm: "HS256"}, store.NewMemStore(), vectorstore.NewMemStore(), embedding.Fake{}, zap.NewNop())
	return s, httptest.NewServer(s.Routes())
}

func postJSON(t *testing.T, server *httptest.Server, path, token string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, server.URL+path, bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("performing request: %v", err)
	}
	return res
}

func decodeJSON(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func TestSetAdminBootstrapThenRequiresAuth(t *testing.T) {
	_, server := newTestServer(t)
	defer server.Close()

	res := postJSON(t, server, "/set-admin", "", map[string]string{"username": "root", "password": "hunter2"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected bootstrap set-admin to succeed with no existing admins, got %d", res.StatusCode)
	}

	res2 := postJSON(t, server, "/set-admin", "", map[string]string{"username": "second", "password": "hunter2"})
	if res2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected second set-admin without a token to be unauthorized, got %d", res2.StatusCode)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	_, server := newTestServer(t)
	defer server.Close()

	postJSON(t, server, "/set-admin", "", map[string]string{"username": "root", "password": "hunter2"})

	res := postJSON(t, server, "/login", "", map[string]string{"username": "root", "password": "hunter2"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d", res.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, res, &body)
	if body["token"] == "" || body["type"] != "bearer" {
		t.Fatalf("unexpected login response: %+v", body)
	}

	badRes := postJSON(t, server, "/login", "", map[string]string{"username": "root", "password": "wrong"})
	if badRes.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected wrong password to be unauthorized, got %d", badRes.StatusCode)
	}
}

func TestSeedURLCRUDRequiresToken(t *testing.T) {
	_, server := newTestServer(t)
	defer server.Close()

	postJSON(t, server, "/set-admin", "", map[string]string{"username": "root", "password": "hunter2"})
	loginRes := postJSON(t, server, "/login", "", map[string]string{"username": "root", "password": "hunter2"})
	var loginBody map[string]string
	decodeJSON(t, loginRes, &loginBody)
	token := loginBody["token"]

	noAuth := postJSON(t, server, "/add-seed-url", "", map[string]string{"url": "https://example.com"})
	if noAuth.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected add-seed-url without a token to be unauthorized, got %d", noAuth.StatusCode)
	}

	authed := postJSON(t, server, "/add-seed-url", token, map[string]string{"url": "https://example.com"})
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("expected add-seed-url with a valid token to succeed, got %d", authed.StatusCode)
	}

	getReq, _ := http.NewRequest(http.MethodGet, server.URL+"/get-seed-urls", nil)
	getReq.Header.Set("Authorization", "Bearer "+token)
	listRes, err := http.DefaultClient.Do(getReq)
	if err != nil {
		t.Fatalf("listing seed urls: %v", err)
	}
	var sites []map[string]any
	decodeJSON(t, listRes, &sites)
	if len(sites) != 1 || sites[0]["URL"] != "https://example.com" {
		t.Fatalf("unexpected seed url listing: %+v", sites)
	}
}

func TestDevModeSkipsAuthorization(t *testing.T) {
	s := NewServer(Config{SecretKey: "test-secret", Algorithm: "HS256", Dev: true}, store.NewMemStore(), vectorstore.NewMemStore(), embedding.Fake{}, zap.NewNop())
	server := httptest.NewServer(s.Routes())
	defer server.Close()

	res := postJSON(t, server, "/add-seed-url", "", map[string]string{"url": "https://example.com"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected DEV mode to skip authorization, got %d", res.StatusCode)
	}
}

func TestStartStopToggleCrawlLifecycle(t *testing.T) {
	s, server := newTestServer(t)
	defer server.Close()
	s.cfg.Dev = true

	start := postJSON(t, server, "/start-crawl", "", map[string]any{"max_iter": 1})
	if start.StatusCode != http.StatusOK {
		t.Fatalf("expected start-crawl to succeed, got %d", start.StatusCode)
	}
	if s.currentSignals() == nil {
		t.Fatal("expected signals to be populated after start-crawl")
	}

	toggle := postJSON(t, server, "/toggle-crawl", "", nil)
	if toggle.StatusCode != http.StatusOK {
		t.Fatalf("expected toggle-crawl to succeed, got %d", toggle.StatusCode)
	}
	if !s.currentSignals().FetcherPause.IsSet() {
		t.Error("expected fetcher pause to be set after one toggle")
	}

	stop := postJSON(t, server, "/stop-crawl", "", nil)
	if stop.StatusCode != http.StatusOK {
		t.Fatalf("expected stop-crawl to succeed, got %d", stop.StatusCode)
	}
	if !s.currentSignals().End.IsSet() {
		t.Error("expected end signal to be set after stop-crawl")
	}
}

func TestSearchAggregatesByURL(t *testing.T) {
	s, server := newTestServer(t)
	defer server.Close()
	s.cfg.Dev = true

	res := postJSON(t, server, "/search", "", map[string]any{"query": "golang concurrency", "limit": 5})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected search to succeed, got %d", res.StatusCode)
	}
	var body map[string][]searchResult
	decodeJSON(t, res, &body)
	if body["results"] == nil {
		t.Error("expected a (possibly empty) results array")
	}
}

// TestSearchSumsScoresPerURL pins the aggregation rule: a page matching on
// several segments must rank by the SUM of its per-segment cosine scores,
// not the best single segment, mirroring original_source/app/core/
// search.py's urls[url] += match.score accumulation.
func TestSearchSumsScoresPerURL(t *testing.T) {
	s, server := newTestServer(t)
	defer server.Close()
	s.cfg.Dev = true

	vectors, err := s.embeddings.Encode(context.Background(), []string{"golang concurrency"})
	if err != nil || len(vectors) != 1 {
		t.Fatalf("encoding query: %v", err)
	}
	queryVector := vectors[0]

	mem, ok := s.vectorStore.(*vectorstore.MemStore)
	if !ok {
		t.Fatal("expected test server to use a vectorstore.MemStore")
	}
	if err := mem.UpsertPage(context.Background(), []models.EmbeddingRecord{
		{ID: "multi-1", PageURL: "https://multi.example.com", Vector: queryVector},
		{ID: "multi-2", PageURL: "https://multi.example.com", Vector: queryVector},
		{ID: "single-1", PageURL: "https://single.example.com", Vector: queryVector},
	}); err != nil {
		t.Fatalf("seeding vector store: %v", err)
	}

	res := postJSON(t, server, "/search", "", map[string]any{"query": "golang concurrency", "limit": 5})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected search to succeed, got %d", res.StatusCode)
	}
	var body map[string][]searchResult
	decodeJSON(t, res, &body)
	results := body["results"]
	if len(results) != 2 {
		t.Fatalf("expected 2 aggregated results, got %d: %+v", len(results), results)
	}

	byURL := make(map[string]float32, len(results))
	for _, r := range results {
		byURL[r.URL] = r.Score
	}
	multi, single := byURL["https://multi.example.com"], byURL["https://single.example.com"]
	if multi <= single {
		t.Fatalf("expected multi-segment page score (%v) to exceed single-segment page score (%v)", multi, single)
	}
	if diff := multi - 2*single; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("expected multi-segment score to equal 2x single-segment score (sum of two identical cosine hits), got multi=%v single=%v", multi, single)
	}
	if results[0].URL != "https://multi.example.com" {
		t.Fatalf("expected multi-segment page ranked first, got %+v", results)
	}
}
