// Package chromem implements the memory Store on chromem-go, a pure Go
// embedded vector database. It backs credential-less local runs where no
// hosted memory service is configured; facts live in process memory and
// are lost on exit.
package chromem

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/nikku45/roomrelay/memory"
)

// Store wraps chromem-go for fact storage.
type Store struct {
	db          *chromem.DB
	embedder    memory.Embedder
	collections map[string]*chromem.Collection // per-user collections
	mu          sync.RWMutex
}

// New creates a chromem-based store. The embedder supplies vectors for
// both stored facts and search queries.
func New(embedder memory.Embedder) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("chromem: embedder is required")
	}
	return &Store{
		db:          chromem.NewDB(),
		embedder:    embedder,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// getOrCreateCollection returns the collection for a user.
// Each user gets their own collection for namespace isolation.
func (s *Store) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	name := fmt.Sprintf("user_%s", userID)
	if userID == "" {
		name = "anonymous"
	}

	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// Add embeds and stores each message as one fact owned by userID.
func (s *Store) Add(ctx context.Context, userID string, messages []memory.Message) error {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		embedding, err := s.embedder.Embed(ctx, msg.Content)
		if err != nil {
			return fmt.Errorf("embed fact: %w", err)
		}

		doc := chromem.Document{
			ID:        uuid.NewString(),
			Content:   msg.Content,
			Embedding: embedding,
			Metadata: map[string]string{
				"user_id":    userID,
				"role":       msg.Role,
				"created_at": time.Now().UTC().Format(time.RFC3339),
			},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add document: %w", err)
		}
	}
	return nil
}

// Search embeds the query and returns the nearest facts for userID.
func (s *Store) Search(ctx context.Context, userID string, query string, limit int) ([]memory.Record, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	where := map[string]string{"user_id": userID}

	// chromem-go requires nResults <= collection size, so retry with
	// smaller limits until the query fits.
	var results []chromem.Result
	for current := limit; current >= 1; current-- {
		results, err = col.QueryEmbedding(ctx, embedding, current, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if current == 1 {
				log.Printf("[chromem] collection empty for user %s", userID)
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	records := make([]memory.Record, 0, len(results))
	for _, result := range results {
		records = append(records, memory.Record{Structured: true, Content: result.Content})
	}
	return records, nil
}

// Close releases resources. chromem keeps everything in memory.
func (s *Store) Close() error { return nil }

// isInsufficientDocsError checks if error is due to insufficient documents.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
