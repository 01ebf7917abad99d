package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/openengine/crawler/models"
)

// MemStore is an in-memory Store used by processor/orchestrator/admin
// tests without a live Qdrant instance. `crawld crawl` and `crawld serve`
// both dial Qdrant instead.
type MemStore struct {
	mu      sync.Mutex
	records []models.EmbeddingRecord
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) EnsureCollection(ctx context.Context) error { return nil }

func (m *MemStore) UpsertPage(ctx context.Context, records []models.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *MemStore) Search(ctx context.Context, vector []float32, limit uint64) ([]SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hits := make([]SearchHit, 0, len(m.records))
	for _, r := range m.records {
		hits = append(hits, SearchHit{URL: r.PageURL, Score: cosine(vector, r.Vector)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if uint64(len(hits)) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MemStore) Close() error { return nil }

// Records returns a snapshot of every embedding ever upserted, used by
// tests asserting vector/relational agreement (spec.md §8 invariant 8).
func (m *MemStore) Records() []models.EmbeddingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.EmbeddingRecord(nil), m.records...)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
