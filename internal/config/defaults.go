package config

import "time"

// DefaultMinInterval is the minimum spacing between embedding calls.
const DefaultMinInterval = 2 * time.Second

// DefaultChunkOverlap is the token overlap between consecutive chunks. Zero is a valid
// setting, so it is seeded before the file is parsed instead of filled in afterwards.
const DefaultChunkOverlap = 20

// NewConfig returns a config holding the defaults that zero cannot stand for.
func NewConfig() *Config {
	return &Config{
		Ingest: IngestConfig{ChunkOverlap: DefaultChunkOverlap},
	}
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 120 * time.Second
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/memorychat.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.MinInterval == 0 {
		cfg.Embedding.MinInterval = DefaultMinInterval
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Vector.Provider == "" {
		cfg.Vector.Provider = "chromem"
	}
	if cfg.Vector.ControllerURL == "" {
		cfg.Vector.ControllerURL = "https://api.pinecone.io"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.Model == "" {
		if cfg.LLM.Provider == "openai" {
			cfg.LLM.Model = "gpt-4o-mini"
		} else {
			cfg.LLM.Model = "claude-3-5-haiku-latest"
		}
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 300
	}
	if cfg.Ingest.FullTextBytes == 0 {
		cfg.Ingest.FullTextBytes = 36000
	}
	if cfg.Ingest.UpsertBatchSize == 0 {
		cfg.Ingest.UpsertBatchSize = 10
	}
	if cfg.Ingest.SourceBaseURL == "" {
		cfg.Ingest.SourceBaseURL = "memory://exchanges/"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.SummaryBudget == 0 {
		cfg.Retrieval.SummaryBudget = 4000
	}
	if cfg.Retrieval.MaxDepth == 0 {
		cfg.Retrieval.MaxDepth = 8
	}
	if cfg.Retrieval.Concurrency == 0 {
		cfg.Retrieval.Concurrency = 4
	}
}

// Validate reports settings that can never work regardless of environment.
// A missing vector index name is not reported here; it surfaces per request.
func (c *Config) Validate() error {
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return errInvalid("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	if c.Ingest.UpsertBatchSize < 1 {
		return errInvalid("ingest.upsert_batch_size must be positive")
	}
	if c.Retrieval.TopK < 1 {
		return errInvalid("retrieval.top_k must be positive")
	}
	if c.Retrieval.SummaryChunk >= c.Retrieval.SummaryBudget {
		return errInvalid("retrieval.summary_chunk_chars must be smaller than retrieval.summary_budget")
	}
	return nil
}

type errInvalid string

func (e errInvalid) Error() string { return "invalid config: " + string(e) }
