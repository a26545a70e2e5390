// Package mock provides a deterministic hash-based embedder.
//
// It gives the embedded chromem backend real-looking unit vectors without
// a model dependency: identical text always embeds identically, so
// storage and recall work, though similarity carries no semantics. Tests
// and credential-less local runs use it.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder generates deterministic embeddings from a text hash.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with 384 dimensions.
func New() *Embedder {
	return &Embedder{dimensions: 384}
}

// Embed creates a deterministic embedding from text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		// LCG keyed on the text hash.
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// normalize converts the embedding to a unit vector.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}
	return normalized
}
