package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds explicit embedder configuration. The embedder is constructed
// once per run and passed by reference to the pipeline and searcher; there
// is no process-global instance.
type Config struct {
	Provider  string
	APIKey    string // OpenAI only
	BaseURL   string // Ollama only
	CacheSize int
}

// New creates an embedder with explicit configuration.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on the environment.
// Priority:
//  1. Explicit provider name (pass the configured value, or empty).
//  2. OPENAI_API_KEY present -> openai.
//  3. OLLAMA_HOST present -> ollama.
//  4. Fallback to local.
func NewFromEnv(provider string) (Embedder, error) {
	cache := NewCache(10000)

	if provider != "" {
		switch strings.ToLower(provider) {
		case ProviderOpenAI:
			return NewOpenAIProvider("", cache)
		case ProviderOllama:
			return NewOllamaProvider("", cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, provider)
		}
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return NewOpenAIProvider("", cache)
	}
	if os.Getenv(EnvOllamaBaseURL) != "" {
		return NewOllamaProvider("", cache)
	}
	return NewLocalProvider(cache)
}

// DetectProvider returns the provider NewFromEnv would choose.
func DetectProvider(provider string) string {
	if provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvOllamaBaseURL) != "" {
		return ProviderOllama
	}
	return ProviderLocal
}
