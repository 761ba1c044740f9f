package embedding

import (
	"context"
	"math"

	"github.com/hoangv97/memorychat/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. It returns a fixed-dimension
// vector derived from the text's words so that the same text always gets the same embedding
// and texts sharing words point in similar directions.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a bag-of-words embedding: each lowercased word adds a hashed
// unit bump, then the vector is normalized.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	for _, word := range SplitWords(normalizeWord(text)) {
		h := HashString(word)
		emb[h%e.dimensions] += 1
		emb[(h/7)%e.dimensions] += float32(math.Sin(float64(h)) * 0.5)
	}
	// Empty text still gets a non-zero vector.
	emb[0] += 0.01
	utils.NormalizeL2(emb)
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
