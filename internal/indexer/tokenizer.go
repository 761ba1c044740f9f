package indexer

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Encoding is the BPE vocabulary chunk sizes are measured in (GPT-2's).
const Encoding = tiktoken.MODEL_R50K_BASE

var loadEncoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	// Ranks are embedded in the binary; nothing is downloaded.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	return tiktoken.GetEncoding(Encoding)
})

var defaultTokenizer = sync.OnceValue(func() *Tokenizer {
	t, err := NewTokenizer()
	if err != nil {
		panic(err)
	}
	return t
})

// Span is a byte range of the source text holding Tokens BPE tokens. Spans start and
// end on rune boundaries.
type Span struct {
	Start, End int
	Tokens     int
}

// Tokenizer measures text in BPE tokens.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer loads the embedded encoding.
func NewTokenizer() (*Tokenizer, error) {
	enc, err := loadEncoding()
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", Encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	return len(t.enc.EncodeOrdinary(text))
}

// Spans returns spans covering text from 0 to len(text) with no gaps. Most spans hold one
// token; a rune whose bytes are split over several tokens becomes one span holding all of them.
func (t *Tokenizer) Spans(text string) []Span {
	ids := t.enc.EncodeOrdinary(text)
	spans := make([]Span, 0, len(ids))
	start, pos, n := 0, 0, 0
	for _, id := range ids {
		pos += len(t.enc.Decode([]int{id}))
		n++
		if pos > len(text) {
			return runeSpans(text)
		}
		if pos == len(text) || utf8.RuneStart(text[pos]) {
			spans = append(spans, Span{Start: start, End: pos, Tokens: n})
			start, n = pos, 0
		}
	}
	if pos != len(text) {
		return runeSpans(text)
	}
	return spans
}

// runeSpans is used when token bytes do not line up with text (invalid UTF-8).
// Byte-level BPE never needs more tokens than bytes, so each rune counts as its width.
func runeSpans(text string) []Span {
	spans := make([]Span, 0, len(text))
	for i, r := range text {
		w := utf8.RuneLen(r)
		if r == utf8.RuneError {
			_, w = utf8.DecodeRuneInString(text[i:])
		}
		spans = append(spans, Span{Start: i, End: i + w, Tokens: w})
	}
	return spans
}
