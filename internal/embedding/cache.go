package embedding

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// EmbeddingCache holds embeddings keyed by text. Writes are applied asynchronously,
// so a Get immediately after Set may still miss.
type EmbeddingCache struct {
	cache *ristretto.Cache
}

// NewEmbeddingCache creates a cache admitting roughly capacity entries.
func NewEmbeddingCache(capacity int) (*EmbeddingCache, error) {
	if capacity <= 0 {
		capacity = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &EmbeddingCache{cache: c}, nil
}

// Get returns the cached embedding for key if present.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	emb, ok := v.([]float32)
	return emb, ok
}

// Set stores the embedding for key with unit cost.
func (c *EmbeddingCache) Set(key string, value []float32) {
	c.cache.Set(key, value, 1)
}

// Close stops the cache's background goroutines.
func (c *EmbeddingCache) Close() {
	c.cache.Close()
}
