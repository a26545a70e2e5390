package memory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"
)

// MaxFacts bounds the memory context injected into a prompt, regardless
// of how many records the store returns.
const MaxFacts = 6

// UnavailableMarker is substituted for the memory block when retrieval
// fails, so the prompt shape stays constant.
const UnavailableMarker = "(memory unavailable)"

// StoreManager is the Store-backed Manager implementation.
//
// Retrieval phrases a fixed relevance query about the sender, truncates
// the result to MaxFacts in store order, and normalizes each hit to a
// text snippet. An optional TTL cache short-circuits repeat retrievals
// for the same sender during chat bursts; recording invalidates it.
type StoreManager struct {
	store    Store
	cache    *ristretto.Cache
	cacheTTL time.Duration
}

// Option configures a StoreManager.
type Option func(*StoreManager)

// WithSearchCache enables per-sender caching of search results with the
// given TTL. A non-positive TTL leaves caching disabled.
func WithSearchCache(ttl time.Duration) Option {
	return func(m *StoreManager) {
		if ttl <= 0 {
			return
		}
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 10_000,
			MaxCost:     1 << 20,
			BufferItems: 64,
		})
		if err != nil {
			log.Printf("[memory] search cache disabled: %v", err)
			return
		}
		m.cache = cache
		m.cacheTTL = ttl
	}
}

// NewStoreManager creates a Manager backed by store.
func NewStoreManager(store Store, opts ...Option) *StoreManager {
	m := &StoreManager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snippets retrieves the fact snippets for userID.
// A store failure is logged and degrades to the unavailability marker;
// it never aborts the caller.
func (m *StoreManager) Snippets(ctx context.Context, userID string) []string {
	if m.cache != nil {
		if cached, ok := m.cache.Get(userID); ok {
			if snippets, ok := cached.([]string); ok {
				return snippets
			}
		}
	}

	query := fmt.Sprintf("What do you know about %s?", userID)
	records, err := m.store.Search(ctx, userID, query, MaxFacts)
	if err != nil {
		log.Printf("[memory] search failed for %s: %v", userID, err)
		return []string{UnavailableMarker}
	}

	if len(records) > MaxFacts {
		records = records[:MaxFacts]
	}

	var snippets []string
	for _, rec := range records {
		if s := rec.Snippet(); s != "" {
			snippets = append(snippets, s)
		}
	}

	if m.cache != nil {
		m.cache.SetWithTTL(userID, snippets, int64(len(snippets)+1), m.cacheTTL)
	}
	return snippets
}

// Record appends text as a user-authored fact under userID and drops any
// cached search result for that user so the new fact becomes visible.
func (m *StoreManager) Record(ctx context.Context, userID string, text string) error {
	if err := m.store.Add(ctx, userID, []Message{{Role: "user", Content: text}}); err != nil {
		return fmt.Errorf("add memory: %w", err)
	}
	if m.cache != nil {
		m.cache.Del(userID)
	}
	return nil
}
