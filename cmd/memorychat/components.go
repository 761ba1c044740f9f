package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hoangv97/memorychat/internal/config"
	"github.com/hoangv97/memorychat/internal/embedding"
	"github.com/hoangv97/memorychat/internal/indexer"
	"github.com/hoangv97/memorychat/internal/llm"
	"github.com/hoangv97/memorychat/internal/models"
	"github.com/hoangv97/memorychat/internal/retrieval"
	"github.com/hoangv97/memorychat/internal/storage"
	"github.com/hoangv97/memorychat/internal/vector"
)

// Components holds initialized services.
type Components struct {
	Storage  *storage.SQLiteStorage
	Embedder *embedding.RateLimitedEmbedder
	Vectors  vector.Store
	Indexer  *indexer.Indexer
	Engine   *retrieval.Engine
}

// Close releases everything that was opened. Safe on a partially built value.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Vectors != nil {
		_ = c.Vectors.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	c.Storage, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		if cfg.Embedding.Provider != "onnx" {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		logger.Warn("onnx embedder unavailable, falling back to mock embeddings",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	cache, err := embedding.NewEmbeddingCache(cfg.Embedding.CacheSize)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
	}
	c.Embedder = embedding.NewRateLimitedEmbedder(embedder, cfg.Embedding.MinInterval,
		embedding.WithCache(cache),
		embedding.WithLogger(logger),
	)

	c.Vectors, err = vector.NewStore(cfg.Vector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	logger.Info("components initialized",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("vector_provider", cfg.Vector.Provider),
		zap.String("index_name", cfg.Vector.IndexName),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	c.Indexer = indexer.NewIndexer(c.Storage, c.Embedder, c.Vectors, cfg.Vector.IndexName, cfg.Ingest,
		indexer.WithLogger(logger))

	completer := newCompleter(cfg.LLM, logger)
	summarizer := retrieval.NewSummarizer(completer, retrieval.SummarizerConfig{
		Budget:      cfg.Retrieval.SummaryBudget,
		ChunkChars:  cfg.Retrieval.SummaryChunk,
		MaxDepth:    cfg.Retrieval.MaxDepth,
		Concurrency: cfg.Retrieval.Concurrency,
	}, logger)
	c.Engine = retrieval.NewEngine(
		retrieval.NewReformulator(completer),
		c.Embedder,
		c.Vectors,
		cfg.Vector.IndexName,
		summarizer,
		retrieval.WithTopK(cfg.Retrieval.TopK),
		retrieval.WithLogger(logger),
	)
	return c, nil
}

// newCompleter builds the text-generation client. A missing API key does not stop startup;
// ingestion never needs the model, and queries then fail at the reformulate stage.
func newCompleter(cfg config.LLMConfig, logger *zap.Logger) llm.Completer {
	completer, err := llm.NewCompleter(cfg)
	if err == nil {
		return completer
	}
	if !errors.Is(err, models.ErrConfigurationMissing) {
		logger.Error("llm provider unavailable", zap.String("provider", cfg.Provider), zap.Error(err))
	} else {
		logger.Warn("llm api key missing, queries will fail", zap.String("provider", cfg.Provider))
	}
	return llm.CompleterFunc(func(context.Context, string) (string, error) {
		return "", err
	})
}
