package vector

import (
	"fmt"

	"github.com/hoangv97/memorychat/internal/config"
)

// StoreType names a vector store backend.
type StoreType string

const (
	// StoreTypeChromem uses the embedded chromem-go database. Good for local use and tests.
	StoreTypeChromem StoreType = "chromem"
	// StoreTypePinecone uses a hosted Pinecone project.
	StoreTypePinecone StoreType = "pinecone"
)

// NewStore creates the store named in cfg.Provider.
// Supported types: "chromem" (default), "pinecone".
func NewStore(cfg config.VectorConfig) (Store, error) {
	switch StoreType(cfg.Provider) {
	case StoreTypeChromem, "":
		s, err := NewChromemStore(cfg.PersistPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StoreTypePinecone:
		s, err := NewPineconeStore(cfg.APIKey, cfg.ControllerURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown vector provider: %s (supported: chromem, pinecone)", cfg.Provider)
	}
}
