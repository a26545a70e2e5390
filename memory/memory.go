package memory

import (
	"context"
)

// Message is one role-tagged entry appended to the store.
// The relay only writes user-authored messages, but the store contract
// accepts any role so Manager implementations can evolve independently.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Manager orchestrates memory operations for the pipeline.
//
// The pipeline is opinionated about WHEN memory is used (retrieve before
// generation, record after the reply is dispatched). The Manager is
// unopinionated about HOW - implementations decide query phrasing,
// truncation, formatting, and failure degradation.
type Manager interface {
	// Snippets returns the fact snippets to inject into the prompt for
	// userID, at most MaxFacts entries in store-returned order. It never
	// returns an error: retrieval failure degrades to a single
	// UnavailableMarker entry, and an empty store yields nil.
	Snippets(ctx context.Context, userID string) []string

	// Record appends text as a user-authored fact under userID.
	Record(ctx context.Context, userID string, text string) error
}

// Store is the fact storage backend interface.
// Implementations: mem0.Client (hosted service), chromem.Store (embedded).
type Store interface {
	// Search retrieves records relevant to query, filtered to userID,
	// ordered by relevance (highest first), at most limit entries.
	Search(ctx context.Context, userID string, query string, limit int) ([]Record, error)

	// Add appends role-tagged messages as facts owned by userID.
	Add(ctx context.Context, userID string, messages []Message) error

	// Close releases resources.
	Close() error
}

// Embedder converts text to vector embeddings. It is an implementation
// detail of embedded Store backends; the hosted service embeds on its
// own side and the pipeline never sees vectors.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
