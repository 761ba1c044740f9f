package vector

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/hoangv97/memorychat/internal/models"
)

// ChromemStore keeps indexes in an embedded chromem-go database, optionally persisted to disk.
type ChromemStore struct {
	db      *chromem.DB
	indexes map[string]*chromemIndex
	mu      sync.Mutex
}

// NewChromemStore opens a database. An empty persistPath keeps everything in memory.
func NewChromemStore(persistPath string) (*ChromemStore, error) {
	db := chromem.NewDB()
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("open vector db: %w", err)
		}
	}
	return &ChromemStore{db: db, indexes: make(map[string]*chromemIndex)}, nil
}

// Index returns the collection called name, creating it on first use.
func (s *ChromemStore) Index(ctx context.Context, name string) (Index, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: vector index name", models.ErrConfigurationMissing)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.indexes[name]; ok {
		return idx, nil
	}
	// Embeddings are always supplied, so the collection never needs its own embedding func.
	col, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	idx := &chromemIndex{col: col}
	s.indexes[name] = idx
	return idx, nil
}

// Close is a no-op; persistent databases write through on every add.
func (s *ChromemStore) Close() error {
	return nil
}

type chromemIndex struct {
	col *chromem.Collection
}

func (i *chromemIndex) Upsert(ctx context.Context, records []*models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for n, rec := range records {
		docs[n] = chromem.Document{
			ID:        rec.ID,
			Metadata:  rec.Metadata.Map(),
			Embedding: rec.Vector,
			Content:   rec.Metadata.ChunkText,
		}
		if docs[n].Content == "" {
			docs[n].Content = rec.ID
		}
	}
	if err := i.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (i *chromemIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]*models.Match, error) {
	// chromem-go rejects nResults larger than the collection.
	n := min(topK, i.col.Count())
	if n <= 0 {
		return nil, nil
	}
	if len(filter) == 0 {
		filter = nil
	}
	results, err := i.col.QueryEmbedding(ctx, vector, n, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]*models.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, &models.Match{
			ID:       r.ID,
			Score:    float64(r.Similarity),
			Metadata: models.RecordMetadataFromMap(r.Metadata),
		})
	}
	sort.SliceStable(matches, func(a, b int) bool { return matches[a].Score > matches[b].Score })
	return matches, nil
}
