// Package config provides configuration loading and structs for the memorychat server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds the exchange log database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"` // openai, onnx, mock
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Dimensions  int           `yaml:"dimensions"`
	MinInterval time.Duration `yaml:"min_interval"`
	CacheSize   int           `yaml:"cache_size"`
	// ONNX only.
	ModelPath string `yaml:"model_path"`
	MaxTokens int    `yaml:"max_tokens"`
}

// VectorConfig selects the vector store and the index used for both ingestion and retrieval.
type VectorConfig struct {
	Provider      string `yaml:"provider"` // chromem, pinecone
	IndexName     string `yaml:"index_name"`
	APIKey        string `yaml:"api_key"`
	ControllerURL string `yaml:"controller_url"`
	PersistPath   string `yaml:"persist_path"`
}

// LLMConfig selects the text-generation provider.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // anthropic, openai
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

// IngestConfig holds chunking and upsert batching settings.
type IngestConfig struct {
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	FullTextBytes   int    `yaml:"full_text_bytes"`
	UpsertBatchSize int    `yaml:"upsert_batch_size"`
	SourceBaseURL   string `yaml:"source_base_url"`
	// InboxDir, when set, is watched by the server for exchange files to ingest.
	InboxDir string `yaml:"inbox_dir"`
}

// RetrievalConfig holds query and summarization settings.
type RetrievalConfig struct {
	TopK          int `yaml:"top_k"`
	SummaryBudget int `yaml:"summary_budget"`
	SummaryChunk  int `yaml:"summary_chunk_chars"`
	MaxDepth      int `yaml:"max_depth"`
	Concurrency   int `yaml:"concurrency"`
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// A .env next to the config file is optional.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	ApplyEnv(cfg)
	ApplyDefaults(cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Vector.PersistPath != "" {
		cfg.Vector.PersistPath = expandPath(cfg.Vector.PersistPath, configDir)
	}
	if cfg.Ingest.InboxDir != "" {
		cfg.Ingest.InboxDir = expandPath(cfg.Ingest.InboxDir, configDir)
	}
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return cfg, nil
}

// Default returns a config built from the environment and defaults only, for running
// without a config file. A .env in the working directory is optional. Relative paths
// stay relative to the working directory.
func Default() *Config {
	_ = godotenv.Load()
	cfg := NewConfig()
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets and deployment settings from the environment.
// Environment values win over the file so that keys never need to be committed.
func ApplyEnv(cfg *Config) {
	setString(&cfg.Vector.IndexName, "PINECONE_INDEX_NAME")
	setString(&cfg.Vector.APIKey, "PINECONE_API_KEY")
	setString(&cfg.Embedding.APIKey, "OPENAI_API_KEY")
	switch cfg.LLM.Provider {
	case "openai":
		setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	default:
		setString(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	}
	if v, ok := os.LookupEnv("MEMORYCHAT_DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
