package vector

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hoangv97/memorychat/internal/models"
)

// UpsertBatches splits records into batches of size and upserts them concurrently.
// It returns the first failure; batches already written are not rolled back.
func UpsertBatches(ctx context.Context, idx Index, records []*models.EmbeddingRecord, size int) error {
	if size <= 0 {
		size = len(records)
	}
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(records); start += size {
		batch := records[start:min(start+size, len(records))]
		g.Go(func() error {
			if err := idx.Upsert(gctx, batch); err != nil {
				return fmt.Errorf("upsert batch at %d: %w", start, err)
			}
			return nil
		})
	}
	return g.Wait()
}
