package admin

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

//go:embed static/admin.html
var staticFS embed.FS

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func message(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		unauthorized(w)
		return
	}
	admin, err := s.relStore.AdminByUsername(r.Context(), req.Username)
	if err != nil || !verifyPassword(req.Password, admin.PasswordHash) {
		unauthorized(w)
		return
	}
	token, err := s.issueToken(admin.Username)
	if err != nil {
		s.logger.Warn("issuing token", zap.Error(err))
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "type": "bearer"})
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		message(w, "invalid username or password")
		return
	}

	count, err := s.relStore.AdminCount(r.Context())
	if err != nil {
		message(w, "failed to check admin table")
		return
	}
	if count > 0 && !s.authorize(w, r) {
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		message(w, "failed to hash password")
		return
	}
	if err := s.relStore.CreateAdmin(r.Context(), req.Username, hash); err != nil {
		message(w, "admin already exists")
		return
	}
	message(w, "admin created")
}

func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/admin.html")
	if err != nil {
		http.Error(w, "admin page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

type urlRequest struct {
	URL    string `json:"url"`
	OldURL string `json:"old_url"`
}

func (s *Server) handleAddSeedURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeBody(r, &req); err != nil || req.URL == "" {
		message(w, "missing url")
		return
	}
	if err := s.relStore.AddSeedSite(r.Context(), req.URL); err != nil {
		message(w, "failed to add seed url")
		return
	}
	message(w, "seed url added")
}

func (s *Server) handleDeleteSeedURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeBody(r, &req); err != nil || req.URL == "" {
		message(w, "missing url")
		return
	}
	if err := s.relStore.DeleteSeedSite(r.Context(), req.URL); err != nil {
		message(w, "failed to delete seed url")
		return
	}
	message(w, "seed url deleted")
}

func (s *Server) handleUpdateSeedURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeBody(r, &req); err != nil || req.URL == "" || req.OldURL == "" {
		message(w, "missing url or old_url")
		return
	}
	if err := s.relStore.UpdateSeedSite(r.Context(), req.OldURL, req.URL); err != nil {
		message(w, "failed to update seed url")
		return
	}
	message(w, "seed url updated")
}

type seedRequest struct {
	URL     string `json:"url"`
	Seed    string `json:"seed"`
	OldSeed string `json:"old_seed"`
	NewSeed string `json:"new_seed"`
}

func (s *Server) handleAddSeed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := decodeBody(r, &req); err != nil || req.URL == "" || req.Seed == "" {
		message(w, "missing url or seed")
		return
	}
	if err := s.relStore.AddSeed(r.Context(), req.URL, req.Seed); err != nil {
		message(w, "failed to add seed")
		return
	}
	message(w, "seed added")
}

func (s *Server) handleDeleteSeed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := decodeBody(r, &req); err != nil || req.URL == "" || req.Seed == "" {
		message(w, "missing url or seed")
		return
	}
	if err := s.relStore.DeleteSeed(r.Context(), req.URL, req.Seed); err != nil {
		message(w, "failed to delete seed")
		return
	}
	message(w, "seed deleted")
}

func (s *Server) handleUpdateSeed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := decodeBody(r, &req); err != nil || req.URL == "" || req.OldSeed == "" || req.NewSeed == "" {
		message(w, "missing url, old_seed or new_seed")
		return
	}
	if err := s.relStore.UpdateSeed(r.Context(), req.URL, req.OldSeed, req.NewSeed); err != nil {
		message(w, "failed to update seed")
		return
	}
	message(w, "seed updated")
}

func (s *Server) handleGetSeedURLs(w http.ResponseWriter, r *http.Request) {
	sites, err := s.relStore.SeedSites(r.Context())
	if err != nil {
		message(w, "failed to list seed urls")
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) handleGetCrawledURLs(w http.ResponseWriter, r *http.Request) {
	resources, err := s.relStore.CrawledResources(r.Context())
	if err != nil {
		message(w, "failed to list crawled urls")
		return
	}
	writeJSON(w, http.StatusOK, resources)
}

func (s *Server) handleGetPotentialURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := s.relStore.PotentialURLs(r.Context())
	if err != nil {
		message(w, "failed to list potential urls")
		return
	}
	writeJSON(w, http.StatusOK, urls)
}

type startCrawlRequest struct {
	Regex   []string `json:"regex"`
	MaxIter int      `json:"max_iter"`
}

func (s *Server) handleStartCrawl(w http.ResponseWriter, r *http.Request) {
	var req startCrawlRequest
	_ = decodeBody(r, &req)
	maxIter := req.MaxIter
	if maxIter == 0 {
		maxIter = -1
	}
	s.startCrawl(req.Regex, maxIter)
	writeJSON(w, http.StatusOK, map[string]any{"message": "crawl started", "streamToken": nil})
}

func (s *Server) handleStopCrawl(w http.ResponseWriter, r *http.Request) {
	signals := s.currentSignals()
	if signals == nil {
		message(w, "no crawl running")
		return
	}
	signals.End.Set()
	message(w, "crawl stopped")
}

func (s *Server) handleToggleCrawl(w http.ResponseWriter, r *http.Request) {
	signals := s.currentSignals()
	if signals == nil {
		message(w, "no crawl running")
		return
	}
	signals.TogglePause()
	message(w, "crawl toggled")
}

// withTimeout bounds a handler-initiated context, used by routes that call
// out to the vector store.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 10*time.Second)
}
