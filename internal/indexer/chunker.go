// Package indexer chunks exchanges into token windows and ingests them into the vector index.
package indexer

import (
	"iter"
	"maps"
	"strings"

	"github.com/hoangv97/memorychat/internal/models"
)

// Chunker splits text into overlapping token windows.
type Chunker struct {
	tokenizer    *Tokenizer
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in tokens).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 300
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Chunker{tokenizer: defaultTokenizer(), chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunks yields windows of at most chunkSize tokens in document order. Consecutive windows
// share up to chunkOverlap tokens. Windows never split a rune, and windows that are only
// whitespace are skipped. Each chunk gets its own copy of meta. The sequence can be ranged
// over more than once.
func (c *Chunker) Chunks(text string, meta map[string]string) iter.Seq[models.Chunk] {
	return func(yield func(models.Chunk) bool) {
		spans := c.tokenizer.Spans(text)
		for i := 0; i < len(spans); {
			end, n := i, 0
			// A span wider than the window (only possible below four tokens) goes out alone.
			for end < len(spans) && (end == i || n+spans[end].Tokens <= c.chunkSize) {
				n += spans[end].Tokens
				end++
			}
			window := text[spans[i].Start:spans[end-1].End]
			if strings.TrimSpace(window) != "" {
				if !yield(models.Chunk{Text: window, Metadata: maps.Clone(meta)}) {
					return
				}
			}
			if end >= len(spans) {
				return
			}
			next, shared := end, 0
			for next-1 > i && shared+spans[next-1].Tokens <= c.chunkOverlap {
				shared += spans[next-1].Tokens
				next--
			}
			i = next
		}
	}
}

// Split collects Chunks into a slice.
func (c *Chunker) Split(text string, meta map[string]string) []models.Chunk {
	var out []models.Chunk
	for ch := range c.Chunks(text, meta) {
		out = append(out, ch)
	}
	return out
}
