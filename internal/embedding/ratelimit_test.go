package embedding

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangv97/memorychat/internal/models"
)

// recordingEmbedder records when each call happened.
type recordingEmbedder struct {
	mu    sync.Mutex
	calls []time.Time
	dims  int
	fail  string
	sizes map[string]int
}

func (e *recordingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, time.Now())
	e.mu.Unlock()
	if e.fail != "" && text == e.fail {
		return nil, errors.New("provider unavailable")
	}
	n := e.dims
	if size, ok := e.sizes[text]; ok {
		n = size
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = float32(len(text) + i)
	}
	return vec, nil
}

func (e *recordingEmbedder) Dimensions() int { return e.dims }
func (e *recordingEmbedder) Close() error    { return nil }

func (e *recordingEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func chunksOf(texts ...string) []models.Chunk {
	out := make([]models.Chunk, len(texts))
	for i, text := range texts {
		out[i] = models.Chunk{Text: text, Metadata: map[string]string{
			models.MetaFullText:  "full",
			models.MetaSourceURL: "memory://exchanges/x",
		}}
	}
	return out
}

func TestRateLimitedEmbedder_spacing(t *testing.T) {
	const interval = 50 * time.Millisecond
	inner := &recordingEmbedder{dims: 4}
	r := NewRateLimitedEmbedder(inner, interval)

	_, err := r.EmbedBatch(context.Background(), chunksOf("a", "b", "c", "d"))
	require.NoError(t, err)
	_, err = r.EmbedOne(context.Background(), "query")
	require.NoError(t, err)

	calls := append([]time.Time(nil), inner.calls...)
	require.Len(t, calls, 5)
	sort.Slice(calls, func(i, j int) bool { return calls[i].Before(calls[j]) })
	for i := 1; i < len(calls); i++ {
		gap := calls[i].Sub(calls[i-1])
		assert.GreaterOrEqual(t, gap, interval-10*time.Millisecond, "gap %d was %v", i, gap)
	}
}

func TestRateLimitedEmbedder_identityMapping(t *testing.T) {
	inner := &recordingEmbedder{dims: 3}
	r := NewRateLimitedEmbedder(inner, 0)
	chunks := chunksOf("one", "three", "fifteen")

	records, err := r.EmbedBatch(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, records, 3)

	ids := map[string]bool{}
	for i, rec := range records {
		assert.Equal(t, chunks[i].Text, rec.Metadata.ChunkText)
		assert.Equal(t, "full", rec.Metadata.FullText)
		assert.Equal(t, "memory://exchanges/x", rec.Metadata.SourceURL)
		assert.Equal(t, float32(len(chunks[i].Text)), rec.Vector[0])
		assert.NotEmpty(t, rec.ID)
		ids[rec.ID] = true
	}
	assert.Len(t, ids, 3, "ids must be unique")
}

func TestRateLimitedEmbedder_failureFailsBatch(t *testing.T) {
	inner := &recordingEmbedder{dims: 3, fail: "bad"}
	r := NewRateLimitedEmbedder(inner, 0)

	records, err := r.EmbedBatch(context.Background(), chunksOf("ok", "bad", "fine"))
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, models.ErrExternalService))
}

func TestRateLimitedEmbedder_dimensionMismatch(t *testing.T) {
	inner := &recordingEmbedder{sizes: map[string]int{"a": 3, "b": 4}}
	r := NewRateLimitedEmbedder(inner, 0)

	_, err := r.EmbedBatch(context.Background(), chunksOf("a", "b"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrExternalService))
}

func TestRateLimitedEmbedder_wrongDimensions(t *testing.T) {
	inner := &recordingEmbedder{dims: 3, sizes: map[string]int{"x": 2}}
	r := NewRateLimitedEmbedder(inner, 0)

	_, err := r.EmbedOne(context.Background(), "x")
	assert.ErrorIs(t, err, models.ErrExternalService)
}

func TestRateLimitedEmbedder_empty(t *testing.T) {
	inner := &recordingEmbedder{dims: 3}
	r := NewRateLimitedEmbedder(inner, time.Hour)

	records, err := r.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, inner.callCount())
}

func TestRateLimitedEmbedder_cancelledContext(t *testing.T) {
	inner := &recordingEmbedder{dims: 3}
	r := NewRateLimitedEmbedder(inner, time.Hour)
	// Consume the only token so the next call has to wait.
	_, err := r.EmbedOne(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.EmbedOne(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, 1, inner.callCount())
}

func TestRateLimitedEmbedder_queryCache(t *testing.T) {
	cache, err := NewEmbeddingCache(10)
	require.NoError(t, err)
	inner := &recordingEmbedder{dims: 3}
	r := NewRateLimitedEmbedder(inner, 0, WithCache(cache))
	defer r.Close()

	first, err := r.EmbedOne(context.Background(), "what is my dog's name?")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok := cache.Get("what is my dog's name?")
		return ok
	}, time.Second, 5*time.Millisecond)

	second, err := r.EmbedOne(context.Background(), "what is my dog's name?")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.callCount())
}

func TestMockEmbedder_deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	a, err := e.Embed(context.Background(), "my dog is Rex")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "my dog is Rex")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}
