package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const prose = "The quick brown fox jumps over the lazy dog. It's 2024, and we'll see 42 foxes! " +
	"Überraschung: naïve café owners don't mind.\nSecond line, with   extra   spaces."

func newTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer()
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestTokenizer_SpansTileInput(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		prose,
		"a \n b",
		"emoji 🐶 and 日本語 text",
		"\xff\xfe broken utf8",
	}
	tok := newTokenizer(t)
	for _, in := range inputs {
		spans := tok.Spans(in)
		var b strings.Builder
		pos := 0
		for _, s := range spans {
			if s.Start != pos || s.End <= s.Start || s.Tokens < 1 {
				t.Fatalf("%q: span %+v does not continue at %d", in, s, pos)
			}
			b.WriteString(in[s.Start:s.End])
			pos = s.End
		}
		if b.String() != in {
			t.Errorf("spans of %q rebuild to %q", in, b.String())
		}
	}
}

func TestTokenizer_spansCarryEveryToken(t *testing.T) {
	tok := newTokenizer(t)
	for _, in := range []string{prose, "emoji 🐶 and 日本語 text", strings.Repeat("我的狗叫雷克斯", 20)} {
		total := 0
		for _, s := range tok.Spans(in) {
			if !utf8.ValidString(in[s.Start:s.End]) {
				t.Errorf("%q: span %+v splits a rune", in, s)
			}
			total += s.Tokens
		}
		if want := tok.Count(in); total != want {
			t.Errorf("%q: spans hold %d tokens, Count = %d", in, total, want)
		}
	}
}

func TestTokenizer_contractions(t *testing.T) {
	tok := newTokenizer(t)
	in := "I'm here"
	var got []string
	for _, s := range tok.Spans(in) {
		got = append(got, in[s.Start:s.End])
	}
	want := []string{"I", "'m", " here"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("tokens = %q, want %q", got, want)
	}
}

func TestChunker_noOverlapRebuildsText(t *testing.T) {
	c := NewChunker(5, 0)
	chunks := c.Split(prose, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	var b strings.Builder
	for _, ch := range chunks {
		b.WriteString(ch.Text)
	}
	if b.String() != prose {
		t.Errorf("chunks rebuild to %q", b.String())
	}
}

func TestChunker_sizeBound(t *testing.T) {
	tok := newTokenizer(t)
	for _, tc := range []struct{ size, overlap int }{{1, 0}, {5, 2}, {8, 7}, {300, 20}} {
		c := NewChunker(tc.size, tc.overlap)
		for ch := range c.Chunks(prose, nil) {
			if n := tok.Count(ch.Text); n > tc.size {
				t.Errorf("size=%d overlap=%d: chunk %q has %d tokens", tc.size, tc.overlap, ch.Text, n)
			}
		}
	}
}

func TestChunker_overlap(t *testing.T) {
	chunks := NewChunker(6, 2).Split(prose, nil)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1].Text, chunks[i].Text
		shared := 0
		for k := 1; k <= min(len(prev), len(cur)); k++ {
			if strings.HasSuffix(prev, cur[:k]) {
				shared = k
			}
		}
		if shared == 0 {
			t.Errorf("chunk %d %q shares nothing with %q", i, cur, prev)
		}
	}
}

func TestChunker_cjkAndLongWordsAreBounded(t *testing.T) {
	tok := newTokenizer(t)
	inputs := map[string]string{
		"cjk":       "user: " + strings.Repeat("我的狗叫雷克斯", 200) + "\nassistant: 好名字",
		"long word": strings.Repeat("abcdefghij", 500),
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			chunks := NewChunker(300, 20).Split(in, nil)
			if len(chunks) < 2 {
				t.Fatalf("got %d chunks, want the text split", len(chunks))
			}
			for i, ch := range chunks {
				if !utf8.ValidString(ch.Text) {
					t.Errorf("chunk %d is not valid UTF-8", i)
				}
				if n := tok.Count(ch.Text); n > 300 {
					t.Errorf("chunk %d has %d tokens (%d runes)", i, n, utf8.RuneCountInString(ch.Text))
				}
			}
			if last := chunks[len(chunks)-1].Text; !strings.HasSuffix(in, last) {
				t.Errorf("last chunk %q does not end the text", last)
			}
		})
	}
}

func TestChunker_coversEveryNonBlankByte(t *testing.T) {
	covered := make([]bool, len(prose))
	from := 0
	for _, ch := range NewChunker(4, 1).Split(prose, nil) {
		at := strings.Index(prose[from:], ch.Text)
		if at < 0 {
			t.Fatalf("chunk %q is not in order in the text", ch.Text)
		}
		at += from
		for i := at; i < at+len(ch.Text); i++ {
			covered[i] = true
		}
		from = at + 1
	}
	for i, ok := range covered {
		if !ok && !strings.ContainsRune(" \n\t", rune(prose[i])) {
			t.Errorf("byte %d (%q) is in no chunk", i, prose[i])
		}
	}
}

func TestChunker_skipsWhitespaceWindows(t *testing.T) {
	chunks := NewChunker(1, 0).Split("a \n b", nil)
	if len(chunks) != 2 || strings.TrimSpace(chunks[0].Text) != "a" || strings.TrimSpace(chunks[1].Text) != "b" {
		t.Errorf("chunks = %+v", chunks)
	}
	if got := NewChunker(3, 0).Split("   \n\t ", nil); len(got) != 0 {
		t.Errorf("blank text produced %d chunks", len(got))
	}
	if got := NewChunker(3, 0).Split("", nil); len(got) != 0 {
		t.Errorf("empty text produced %d chunks", len(got))
	}
}

func TestChunker_lazyAndRestartable(t *testing.T) {
	seq := NewChunker(3, 1).Chunks(prose, nil)
	var first string
	for ch := range seq {
		first = ch.Text
		break
	}
	var again []string
	for ch := range seq {
		again = append(again, ch.Text)
	}
	if len(again) < 2 || again[0] != first {
		t.Errorf("second pass = %q, first chunk of first pass = %q", again, first)
	}
}

func TestChunker_metadataCopiedPerChunk(t *testing.T) {
	meta := map[string]string{"url": "memory://exchanges/1"}
	chunks := NewChunker(2, 0).Split("one two three four", meta)
	if len(chunks) < 2 {
		t.Fatalf("expected 2+ chunks, got %d", len(chunks))
	}
	chunks[0].Metadata["url"] = "changed"
	if chunks[1].Metadata["url"] != "memory://exchanges/1" || meta["url"] != "memory://exchanges/1" {
		t.Error("chunk metadata should not be shared")
	}
}

func TestNewChunker_clamps(t *testing.T) {
	c := NewChunker(0, -1)
	if c.chunkSize != 300 || c.chunkOverlap != 0 {
		t.Errorf("got size=%d overlap=%d", c.chunkSize, c.chunkOverlap)
	}
	// overlap >= size still makes progress.
	chunks := NewChunker(2, 5).Split("a b c", nil)
	if len(chunks) == 0 {
		t.Error("expected chunks when overlap exceeds size")
	}
}
