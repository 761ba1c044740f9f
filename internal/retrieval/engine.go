// Package retrieval answers a user prompt with a summary of the most relevant stored exchanges.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hoangv97/memorychat/internal/models"
	"github.com/hoangv97/memorychat/internal/prompts"
	"github.com/hoangv97/memorychat/internal/vector"
)

// Pipeline stages reported by StageError.
const (
	StageReformulate = "reformulate"
	StageEmbed       = "embed"
	StageRetrieve    = "retrieve"
	StageSummarize   = "summarize"
)

// StageError records which step of retrieval failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// QueryEmbedder embeds a search query.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Result is the outcome of a retrieval.
type Result struct {
	Inquiry     string
	Matches     []*models.Match
	Aggregation *models.Aggregation
	Summary     string
}

// Response builds the payload handed to the answer generator for prompt and history.
func (r *Result) Response(prompt, history string) *models.QueryResponse {
	urls := []string{}
	if r.Aggregation != nil {
		urls = r.Aggregation.Sources
	}
	return &models.QueryResponse{
		Summary:             r.Summary,
		URLs:                urls,
		ConversationHistory: history,
		Prompt:              prompt,
		Template:            prompts.Answer.Text,
		Inquiry:             r.Inquiry,
	}
}

// Engine runs reformulate, embed, query, aggregate and summarize.
type Engine struct {
	reformulator *Reformulator
	embedder     QueryEmbedder
	vectors      vector.Store
	indexName    string
	topK         int
	summarizer   *Summarizer
	logger       *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTopK sets how many matches are fetched. Default 3.
func WithTopK(k int) EngineOption {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// NewEngine creates an engine querying the index called indexName.
func NewEngine(r *Reformulator, emb QueryEmbedder, vectors vector.Store, indexName string, s *Summarizer, opts ...EngineOption) *Engine {
	e := &Engine{
		reformulator: r,
		embedder:     emb,
		vectors:      vectors,
		indexName:    indexName,
		topK:         3,
		summarizer:   s,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve runs the pipeline for prompt given the conversation log history.
// On a summarize failure the partial result (with its aggregation) is returned with the error.
func (e *Engine) Retrieve(ctx context.Context, prompt, history string) (*Result, error) {
	if e.indexName == "" {
		return nil, fmt.Errorf("%w: vector index name (vector.index_name or PINECONE_INDEX_NAME)", models.ErrConfigurationMissing)
	}

	inquiry, err := e.reformulator.Reformulate(ctx, prompt, history)
	if err != nil {
		return nil, &StageError{Stage: StageReformulate, Err: err}
	}
	e.logger.Debug("Inquiry", zap.String("inquiry", inquiry))

	vec, err := e.embedder.EmbedOne(ctx, inquiry)
	if err != nil {
		return nil, &StageError{Stage: StageEmbed, Err: err}
	}

	index, err := e.vectors.Index(ctx, e.indexName)
	if err != nil {
		return nil, &StageError{Stage: StageRetrieve, Err: err}
	}
	matches, err := index.Query(ctx, vec, e.topK, nil)
	if err != nil {
		return nil, &StageError{Stage: StageRetrieve, Err: err}
	}

	res := &Result{Inquiry: inquiry, Matches: matches, Aggregation: Aggregate(matches)}
	e.logger.Debug("Retrieved matches",
		zap.Int("matches", len(matches)),
		zap.Strings("sources", res.Aggregation.Sources))

	summary, err := e.summarizer.Summarize(ctx, strings.Join(res.Aggregation.Texts(), "\n"), inquiry)
	if err != nil {
		return res, &StageError{Stage: StageSummarize, Err: err}
	}
	res.Summary = summary
	return res, nil
}
