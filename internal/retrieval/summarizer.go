package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hoangv97/memorychat/internal/llm"
	"github.com/hoangv97/memorychat/internal/prompts"
	"github.com/hoangv97/memorychat/pkg/utils"
)

// Summarizer errors.
var (
	ErrSummaryDepthExceeded = errors.New("summary did not fit the budget within the maximum depth")
	ErrSummaryNoProgress    = errors.New("summary pass did not shorten the text")
)

// SummarizerConfig bounds the recursive summarizer. Zero values take defaults.
type SummarizerConfig struct {
	Budget      int // characters; default 4000
	ChunkChars  int // piece size; default Budget - len(summarizer template) - 1
	MaxDepth    int // default 8
	Concurrency int // concurrent model calls per pass; default 4
}

// Summarizer shrinks a document below a character budget by summarizing pieces of it
// with respect to an inquiry, repeating until the result fits.
type Summarizer struct {
	completer llm.Completer
	cfg       SummarizerConfig
	logger    *zap.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(c llm.Completer, cfg SummarizerConfig, logger *zap.Logger) *Summarizer {
	if cfg.Budget <= 0 {
		cfg.Budget = 4000
	}
	if cfg.ChunkChars <= 0 {
		cfg.ChunkChars = max(cfg.Budget-prompts.Summarizer.Len()-1, 1)
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 8
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{completer: c, cfg: cfg, logger: logger}
}

// Budget returns the character budget.
func (s *Summarizer) Budget() int {
	return s.cfg.Budget
}

// Summarize returns document unchanged when it fits the budget; otherwise the summary,
// which is at most Budget characters. An empty result is valid: it means no piece
// was relevant to the inquiry.
func (s *Summarizer) Summarize(ctx context.Context, document, inquiry string) (string, error) {
	text := document
	for depth := 0; utf8.RuneCountInString(text) > s.cfg.Budget; depth++ {
		if depth == s.cfg.MaxDepth {
			return "", fmt.Errorf("%w (depth %d, %d characters left)", ErrSummaryDepthExceeded, depth, utf8.RuneCountInString(text))
		}
		next, err := s.pass(ctx, text, inquiry)
		if err != nil {
			return "", err
		}
		before, after := utf8.RuneCountInString(text), utf8.RuneCountInString(next)
		s.logger.Debug("Summary pass",
			zap.Int("depth", depth),
			zap.Int("before", before),
			zap.Int("after", after))
		if after >= before {
			return "", fmt.Errorf("%w (%d -> %d characters)", ErrSummaryNoProgress, before, after)
		}
		text = next
	}
	return text, nil
}

// pass summarizes every piece of text concurrently and joins the non-empty results in order.
func (s *Summarizer) pass(ctx context.Context, text, inquiry string) (string, error) {
	pieces := utils.SplitRunes(text, s.cfg.ChunkChars)
	results := make([]string, len(pieces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, piece := range pieces {
		g.Go(func() error {
			prompt, err := prompts.Summarizer.Render(map[string]string{
				"inquiry":  inquiry,
				"document": piece,
			})
			if err != nil {
				return err
			}
			out, err := s.completer.Complete(gctx, prompt)
			if err != nil {
				return fmt.Errorf("summarize piece %d: %w", i, err)
			}
			results[i] = strings.TrimSpace(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	kept := results[:0]
	for _, r := range results {
		if r != "" {
			kept = append(kept, r)
		}
	}
	return strings.Join(kept, "\n"), nil
}
