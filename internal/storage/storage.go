// Package storage persists the exchange log: every ingested exchange, keyed by ID.
package storage

import (
	"context"

	"github.com/hoangv97/memorychat/internal/models"
)

// Storage defines exchange persistence operations.
type Storage interface {
	SaveExchange(ctx context.Context, ex *models.Exchange) error
	GetExchange(ctx context.Context, id string) (*models.Exchange, error)
	SetChunkCount(ctx context.Context, id string, chunks int) error
	DeleteExchange(ctx context.Context, id string) error
	ListExchanges(ctx context.Context, offset, limit int) ([]*models.Exchange, error)
	CountExchanges(ctx context.Context) (int64, error)

	Close() error
}
