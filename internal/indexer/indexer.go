package indexer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hoangv97/memorychat/internal/config"
	"github.com/hoangv97/memorychat/internal/models"
	"github.com/hoangv97/memorychat/internal/storage"
	"github.com/hoangv97/memorychat/internal/vector"
	"github.com/hoangv97/memorychat/pkg/utils"
)

// BatchEmbedder turns chunks into records, one per chunk and in order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, chunks []models.Chunk) ([]*models.EmbeddingRecord, error)
}

// Indexer ingests exchanges: log, chunk, embed, upsert.
type Indexer struct {
	storage   storage.Storage
	embedder  BatchEmbedder
	vectors   vector.Store
	indexName string
	chunker   *Chunker
	config    config.IngestConfig
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// NewIndexer creates an indexer writing to the index called indexName.
// An empty indexName is accepted here and rejected by every Ingest call.
func NewIndexer(
	store storage.Storage,
	embedder BatchEmbedder,
	vectors vector.Store,
	indexName string,
	cfg config.IngestConfig,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		storage:   store,
		embedder:  embedder,
		vectors:   vectors,
		indexName: indexName,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		config:    cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Ready reports a missing index name before any request is looked at.
func (idx *Indexer) Ready() error {
	if idx.indexName == "" {
		return fmt.Errorf("%w: vector index name (vector.index_name or PINECONE_INDEX_NAME)", models.ErrConfigurationMissing)
	}
	return nil
}

// Ingest indexes the first two messages of req as one exchange and returns the stored exchange.
// Nothing external is contacted when the index name is missing or the request is invalid.
// If any later step fails the exchange is removed from the log again; vectors already
// upserted stay in the index.
func (idx *Indexer) Ingest(ctx context.Context, req *models.EmbedRequest) (*models.Exchange, error) {
	if err := idx.Ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	index, err := idx.vectors.Index(ctx, idx.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	id := uuid.New().String()
	ex := &models.Exchange{
		ID:        id,
		SourceURL: idx.config.SourceBaseURL + id,
		Content:   req.ExchangeText(),
		CreatedAt: req.Messages[0].CreatedAt,
	}
	if err := idx.storage.SaveExchange(ctx, ex); err != nil {
		return nil, err
	}

	n, err := idx.index(ctx, index, ex)
	if err != nil {
		if derr := idx.storage.DeleteExchange(context.WithoutCancel(ctx), ex.ID); derr != nil {
			idx.logger.Warn("Failed to roll back exchange", zap.String("id", ex.ID), zap.Error(derr))
		}
		return nil, err
	}
	ex.Chunks = n
	if err := idx.storage.SetChunkCount(ctx, ex.ID, n); err != nil {
		return nil, err
	}

	idx.logger.Debug("Exchange ingested",
		zap.String("id", ex.ID),
		zap.String("source_url", ex.SourceURL),
		zap.Int("chunks", n))
	return ex, nil
}

func (idx *Indexer) index(ctx context.Context, index vector.Index, ex *models.Exchange) (int, error) {
	meta := map[string]string{
		models.MetaFullText:  utils.TruncateBytes(ex.Content, idx.config.FullTextBytes),
		models.MetaSourceURL: ex.SourceURL,
		models.MetaCreatedAt: ex.CreatedAt,
	}
	chunks := idx.chunker.Split(ex.Content, meta)
	if len(chunks) == 0 {
		return 0, nil
	}

	records, err := idx.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if err := vector.UpsertBatches(ctx, index, records, idx.config.UpsertBatchSize); err != nil {
		return 0, fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return len(records), nil
}
