// Package config resolves the runtime configuration for the pipeline, the
// agent, and the CLI. Precedence is flag > environment > default; a .env
// file in the working directory is loaded into the environment first.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults for the ingestion pipeline.
const (
	DefaultStorePath    = "./index.db"
	DefaultBatchSize    = 50
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 400
	DefaultGroqModel    = "llama-3.3-70b-versatile"
)

// Environment variable names.
const (
	EnvRepoPath     = "CODEAGENT_REPO_PATH"
	EnvStorePath    = "CODEAGENT_DB_PATH"
	EnvBatchSize    = "CODEAGENT_BATCH_SIZE"
	EnvChunkSize    = "CODEAGENT_CHUNK_SIZE"
	EnvChunkOverlap = "CODEAGENT_CHUNK_OVERLAP"
	EnvProvider     = "CODEAGENT_EMBEDDING_PROVIDER"
	EnvGroqAPIKey   = "GROQ_API_KEY"
	EnvGroqModel    = "CODEAGENT_GROQ_MODEL"
)

// Config is the resolved runtime configuration.
type Config struct {
	RepoPath     string
	StorePath    string
	BatchSize    int
	ChunkSize    int
	ChunkOverlap int

	// EmbeddingProvider selects the embedder ("openai", "ollama", "local").
	// Empty means auto-detect from available API keys.
	EmbeddingProvider string

	GroqAPIKey string
	GroqModel  string
}

// Load reads a .env file if present and resolves configuration from the
// environment with defaults applied. A missing .env is not an error.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		RepoPath:          os.Getenv(EnvRepoPath),
		StorePath:         getEnvDefault(EnvStorePath, DefaultStorePath),
		BatchSize:         getEnvInt(EnvBatchSize, DefaultBatchSize),
		ChunkSize:         getEnvInt(EnvChunkSize, DefaultChunkSize),
		ChunkOverlap:      getEnvInt(EnvChunkOverlap, DefaultChunkOverlap),
		EmbeddingProvider: os.Getenv(EnvProvider),
		GroqAPIKey:        os.Getenv(EnvGroqAPIKey),
		GroqModel:         getEnvDefault(EnvGroqModel, DefaultGroqModel),
	}
	cfg.Normalize()
	return cfg
}

// Normalize clamps nonsensical values back to defaults. Overlap must stay
// strictly below chunk size or the splitter cannot make progress.
func (c *Config) Normalize() {
	if c.StorePath == "" {
		c.StorePath = DefaultStorePath
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 10
	}
	if c.GroqModel == "" {
		c.GroqModel = DefaultGroqModel
	}
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
