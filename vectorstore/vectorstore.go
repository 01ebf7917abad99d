// Package vectorstore wraps the Qdrant collection spec.md §6 describes:
// a single "embeddings" collection, dimensionality 384, cosine distance,
// points carrying payload.text.url. There is no vector-store client in the
// retrieved example pack — github.com/qdrant/go-client is Qdrant's own
// official gRPC Go client and is the direct analogue of the teacher's own
// choice to wrap a well-known third-party backend (goquery, rehttp)
// behind a small interface rather than hand-roll the wire protocol.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/openengine/crawler/models"
)

// CollectionName is the single collection spec.md §6 names.
const CollectionName = "embeddings"

// Dimensionality is the fixed vector size D spec.md §6 names.
const Dimensionality = 384

// Store upserts and searches the embeddings collection.
type Store interface {
	EnsureCollection(ctx context.Context) error
	UpsertPage(ctx context.Context, records []models.EmbeddingRecord) error
	Search(ctx context.Context, vector []float32, limit uint64) ([]SearchHit, error)
	Close() error
}

// SearchHit is one result of a similarity search: a point's payload URL
// and its cosine similarity score.
type SearchHit struct {
	URL   string
	Score float32
}

// Qdrant is the Store implementation backed by a live Qdrant instance.
type Qdrant struct {
	conn       *grpc.ClientConn
	points     qdrant.PointsClient
	collection qdrant.CollectionsClient
}

// Dial connects to a Qdrant gRPC endpoint at host:port (spec.md §6's
// QDRANT_URL/QDRANT_PORT).
func Dial(host string, port int) (*Qdrant, error) {
	conn, err := grpc.Dial(
		fmt.Sprintf("%s:%d", host, port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dialing qdrant at %s:%d: %w", host, port, err)
	}
	return &Qdrant{
		conn:       conn,
		points:     qdrant.NewPointsClient(conn),
		collection: qdrant.NewCollectionsClient(conn),
	}, nil
}

// Close releases the gRPC connection.
func (q *Qdrant) Close() error {
	return q.conn.Close()
}

// EnsureCollection creates the embeddings collection with cosine distance
// if it does not already exist. Idempotent.
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	_, err := q.collection.Create(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     Dimensionality,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		// Collection already existing is not a failure; Qdrant reports
		// this as a generic gRPC error with no typed sentinel, so we
		// fall back to a best-effort string match rather than failing
		// every subsequent crawl start.
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("creating %s collection: %w", CollectionName, err)
	}
	return nil
}

// UpsertPage upserts every segment embedding for a single page in one
// call, waiting for acknowledgement, per spec.md §4.3.
func (q *Qdrant) UpsertPage(ctx context.Context, records []models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text": map[string]any{"url": r.PageURL},
			}),
		})
	}
	wait := true
	_, err := q.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: CollectionName,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d embedding records: %w", len(points), err)
	}
	return nil
}

// Search returns the limit nearest points to vector by cosine similarity.
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit uint64) ([]SearchHit, error) {
	res, err := q.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: CollectionName,
		Vector:         vector,
		Limit:          limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("searching embeddings: %w", err)
	}
	hits := make([]SearchHit, 0, len(res.GetResult()))
	for _, p := range res.GetResult() {
		url := extractPayloadURL(p.GetPayload())
		hits = append(hits, SearchHit{URL: url, Score: p.GetScore()})
	}
	return hits, nil
}

func extractPayloadURL(payload map[string]*qdrant.Value) string {
	text, ok := payload["text"]
	if !ok {
		return ""
	}
	fields := text.GetStructValue().GetFields()
	if fields == nil {
		return ""
	}
	return fields["url"].GetStringValue()
}
