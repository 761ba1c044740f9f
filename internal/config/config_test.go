package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PINECONE_INDEX_NAME", "PINECONE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "MEMORYCHAT_DEBUG"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
embedding:
  min_interval: 500ms
vector:
  index_name: "memories"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Embedding.MinInterval != 500*time.Millisecond {
		t.Errorf("min_interval = %v, want 500ms", cfg.Embedding.MinInterval)
	}
	if cfg.Vector.IndexName != "memories" {
		t.Errorf("index_name = %q", cfg.Vector.IndexName)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.MinInterval != 2*time.Second {
		t.Errorf("min_interval = %v", cfg.Embedding.MinInterval)
	}
	if cfg.Ingest.ChunkSize != 300 || cfg.Ingest.ChunkOverlap != 20 {
		t.Errorf("chunking = %d/%d", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Ingest.UpsertBatchSize != 10 {
		t.Errorf("upsert_batch_size = %d", cfg.Ingest.UpsertBatchSize)
	}
	if cfg.Ingest.FullTextBytes != 36000 {
		t.Errorf("full_text_bytes = %d", cfg.Ingest.FullTextBytes)
	}
	if cfg.Retrieval.TopK != 3 || cfg.Retrieval.SummaryBudget != 4000 {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Vector.Provider != "chromem" || cfg.LLM.Provider != "anthropic" || cfg.Embedding.Provider != "openai" {
		t.Errorf("providers = %s/%s/%s", cfg.Vector.Provider, cfg.LLM.Provider, cfg.Embedding.Provider)
	}
	if cfg.Vector.IndexName != "" {
		t.Errorf("index_name should stay empty, got %q", cfg.Vector.IndexName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PINECONE_INDEX_NAME", "from-env")
	t.Setenv("PINECONE_API_KEY", "pc-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("ANTHROPIC_API_KEY", "an-key")
	t.Setenv("MEMORYCHAT_DEBUG", "true")
	path := writeConfig(t, `
vector:
  index_name: "from-file"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vector.IndexName != "from-env" {
		t.Errorf("index_name = %q, want from-env", cfg.Vector.IndexName)
	}
	if cfg.Vector.APIKey != "pc-key" || cfg.Embedding.APIKey != "oa-key" || cfg.LLM.APIKey != "an-key" {
		t.Errorf("keys not applied: %+v %+v %+v", cfg.Vector, cfg.Embedding, cfg.LLM)
	}
	if !cfg.Debug {
		t.Error("MEMORYCHAT_DEBUG should enable debug")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  database_path: "./data/memorychat.db"
vector:
  persist_path: "./data/vectors"
ingest:
  inbox_dir: "./inbox"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "memorychat.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "vectors"); cfg.Vector.PersistPath != want {
		t.Errorf("persist_path = %q, want %q", cfg.Vector.PersistPath, want)
	}
	if want := filepath.Join(dir, "inbox"); cfg.Ingest.InboxDir != want {
		t.Errorf("inbox_dir = %q, want %q", cfg.Ingest.InboxDir, want)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [unclosed\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestSave_roundTrip(t *testing.T) {
	clearEnv(t)
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Vector.IndexName = "saved"
	cfg.Storage.DatabasePath = "/tmp/memorychat.db"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Vector.IndexName != "saved" || loaded.Embedding.MinInterval != cfg.Embedding.MinInterval {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Ingest.ChunkOverlap = cfg.Ingest.ChunkSize
	if err := cfg.Validate(); err == nil {
		t.Error("overlap >= size should fail validation")
	}
}

func TestExpandPath(t *testing.T) {
	if got := expandPath("/abs/path", "/cfg"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := expandPath("./x", "/cfg"); got != filepath.Join("/cfg", "x") {
		t.Errorf("dot-slash path = %q", got)
	}
}

func TestLoad_explicitZeroOverlapKept(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "ingest:\n  chunk_overlap: 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ingest.ChunkOverlap != 0 {
		t.Errorf("chunk_overlap = %d, want 0", cfg.Ingest.ChunkOverlap)
	}
	if cfg.Ingest.ChunkSize != 300 {
		t.Errorf("chunk_size = %d, want 300", cfg.Ingest.ChunkSize)
	}
}

func TestDefault_readsDotEnvFromWorkingDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PINECONE_INDEX_NAME=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg := Default()
	if cfg.Vector.IndexName != "from-dotenv" {
		t.Errorf("index_name = %q, want from-dotenv", cfg.Vector.IndexName)
	}
	if cfg.Ingest.ChunkOverlap != DefaultChunkOverlap {
		t.Errorf("chunk_overlap = %d, want %d", cfg.Ingest.ChunkOverlap, DefaultChunkOverlap)
	}
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("PINECONE_INDEX_NAME", "from-env")
	cfg := Default()
	if cfg.Vector.IndexName != "from-env" {
		t.Errorf("index_name = %q, want from-env", cfg.Vector.IndexName)
	}
	if cfg.Storage.DatabasePath != "./data/memorychat.db" {
		t.Errorf("database_path = %q, want relative default", cfg.Storage.DatabasePath)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cfg.Retrieval.TopK)
	}
}
