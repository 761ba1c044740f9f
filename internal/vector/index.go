// Package vector stores embedding records and answers nearest-neighbour queries.
package vector

import (
	"context"

	"github.com/hoangv97/memorychat/internal/models"
)

// Store hands out named indexes. It is created once at startup and shared.
type Store interface {
	// Index returns a handle on the named index. Handles are cheap and may be cached.
	Index(ctx context.Context, name string) (Index, error)
	Close() error
}

// Index is one named collection of records.
type Index interface {
	// Upsert writes records, replacing any with the same ID.
	Upsert(ctx context.Context, records []*models.EmbeddingRecord) error
	// Query returns up to topK matches by descending score. A non-empty filter keeps only
	// records whose metadata equals every given key/value.
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]*models.Match, error)
}
