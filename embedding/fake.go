package embedding

import (
	"context"
	"hash/fnv"
)

// Fake is a deterministic Client used by processor/orchestrator tests: it
// derives a unit-ish vector from each segment's hash rather than calling a
// real embedding service.
type Fake struct{}

var _ Client = Fake{}

func (Fake) Encode(ctx context.Context, segments []string) ([][]float32, error) {
	out := make([][]float32, len(segments))
	for i, s := range segments {
		out[i] = fakeVector(s)
	}
	return out, nil
}

func fakeVector(s string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	seed := h.Sum32()
	v := make([]float32, 8)
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%1000) / 1000.0
	}
	return v
}
