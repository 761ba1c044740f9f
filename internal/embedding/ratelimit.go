package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hoangv97/memorychat/internal/models"
)

// RateLimitedEmbedder sends every embedding call through a single gate so that
// consecutive provider calls start at least minInterval apart, however many
// goroutines are asking.
type RateLimitedEmbedder struct {
	embedder Embedder
	gate     *rate.Limiter
	cache    *EmbeddingCache
	logger   *zap.Logger
}

// Option configures a RateLimitedEmbedder.
type Option func(*RateLimitedEmbedder)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *RateLimitedEmbedder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCache fronts EmbedOne with cache.
func WithCache(cache *EmbeddingCache) Option {
	return func(r *RateLimitedEmbedder) {
		r.cache = cache
	}
}

// NewRateLimitedEmbedder wraps embedder. A non-positive minInterval disables the gate.
func NewRateLimitedEmbedder(embedder Embedder, minInterval time.Duration, opts ...Option) *RateLimitedEmbedder {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	r := &RateLimitedEmbedder{
		embedder: embedder,
		gate:     rate.NewLimiter(limit, 1),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dimensions returns the wrapped embedder's dimension.
func (r *RateLimitedEmbedder) Dimensions() int {
	return r.embedder.Dimensions()
}

// EmbedBatch embeds every chunk concurrently and returns one record per chunk, in chunk order.
// Each record gets a fresh ID and the chunk's metadata. If any call fails the whole batch fails
// and no records are returned.
func (r *RateLimitedEmbedder) EmbedBatch(ctx context.Context, chunks []models.Chunk) ([]*models.EmbeddingRecord, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	records := make([]*models.EmbeddingRecord, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i := range chunks {
		g.Go(func() error {
			vec, err := r.call(gctx, chunks[i].Text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			records[i] = &models.EmbeddingRecord{
				ID:       uuid.New().String(),
				Vector:   vec,
				Metadata: models.MetadataFromChunk(chunks[i]),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dims := len(records[0].Vector)
	for i, rec := range records {
		if len(rec.Vector) != dims {
			return nil, fmt.Errorf("%w: embedding dimension mismatch: chunk %d has %d, chunk 0 has %d",
				models.ErrExternalService, i, len(rec.Vector), dims)
		}
	}
	r.logger.Debug("Embedded chunks", zap.Int("count", len(records)), zap.Int("dimensions", dims))
	return records, nil
}

// EmbedOne embeds a single text, typically a search query. Results are cached by text.
func (r *RateLimitedEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if r.cache != nil {
		if vec, ok := r.cache.Get(text); ok {
			r.logger.Debug("Embedding cache hit")
			return vec, nil
		}
	}
	vec, err := r.call(ctx, text)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(text, vec)
	}
	return vec, nil
}

// Close releases the cache and the wrapped embedder.
func (r *RateLimitedEmbedder) Close() error {
	if r.cache != nil {
		r.cache.Close()
	}
	return r.embedder.Close()
}

// call waits for the gate and then calls the provider.
func (r *RateLimitedEmbedder) call(ctx context.Context, text string) ([]float32, error) {
	if err := r.gate.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for embedding slot: %w", err)
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %w", models.ErrExternalService, err)
	}
	if want := r.embedder.Dimensions(); want > 0 && len(vec) != want {
		return nil, fmt.Errorf("%w: embedding has %d dimensions, want %d", models.ErrExternalService, len(vec), want)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", models.ErrExternalService)
	}
	return vec, nil
}
