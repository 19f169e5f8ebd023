package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"

	// Default models
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultOllamaModel = "nomic-embed-text"

	// Dimensions
	OpenAIDimension = 1536
	OllamaDimension = 768
	LocalDimension  = 384

	// API endpoints
	openAIEndpoint       = "https://api.openai.com/v1/embeddings"
	defaultOllamaBaseURL = "http://localhost:11434"

	// Environment variables
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOllamaBaseURL = "OLLAMA_HOST"

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// OpenAIProvider implements Embedder using the OpenAI embeddings API.
type OpenAIProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
	cache      *Cache
}

// NewOpenAIProvider creates an OpenAI embedder. The key falls back to the
// OPENAI_API_KEY environment variable.
func NewOpenAIProvider(apiKey string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}

	return &OpenAIProvider{
		apiKey: apiKey,
		model:  DefaultOpenAIModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}, nil
}

func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}

	vectors, misses := lookupCache(o.cache, texts)
	if len(misses) > 0 {
		config := DefaultRetryConfig()
		fetched, err := retryWithBackoff(ctx, config, func() ([][]float32, error) {
			return o.callAPI(ctx, missTexts(texts, misses))
		})
		if err != nil {
			return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, config.MaxAttempts, err)
		}
		fillCache(o.cache, texts, vectors, misses, fetched)
	}

	return vectors, nil
}

func (o *OpenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": o.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", openAIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Data))
	}

	vectors := make([][]float32, len(apiResp.Data))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}

func (o *OpenAIProvider) Dimension() int   { return OpenAIDimension }
func (o *OpenAIProvider) Provider() string { return ProviderOpenAI }

// Release drops idle connections pinned by the last batch.
func (o *OpenAIProvider) Release() {
	o.httpClient.CloseIdleConnections()
}

func (o *OpenAIProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// OllamaProvider implements Embedder against a local Ollama server. This is
// the local-model path: slow, CPU-bound, and the reason the pipeline
// releases embedding resources between batches.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	cache      *Cache
}

// NewOllamaProvider creates an Ollama embedder. The base URL falls back to
// OLLAMA_HOST, then to localhost.
func NewOllamaProvider(baseURL string, cache *Cache) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = os.Getenv(EnvOllamaBaseURL)
	}
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	return &OllamaProvider{
		baseURL: baseURL,
		model:   DefaultOllamaModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		cache: cache,
	}, nil
}

func (l *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}

	vectors, misses := lookupCache(l.cache, texts)
	if len(misses) > 0 {
		config := DefaultRetryConfig()
		fetched, err := retryWithBackoff(ctx, config, func() ([][]float32, error) {
			return l.callAPI(ctx, missTexts(texts, misses))
		})
		if err != nil {
			return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, config.MaxAttempts, err)
		}
		fillCache(l.cache, texts, vectors, misses, fetched)
	}

	return vectors, nil
}

func (l *OllamaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	vectors, err := l.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (l *OllamaProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model": l.model,
		"input": texts,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Embeddings))
	}

	return apiResp.Embeddings, nil
}

func (l *OllamaProvider) Dimension() int   { return OllamaDimension }
func (l *OllamaProvider) Provider() string { return ProviderOllama }

// Release drops idle connections to the model server so it can unload
// per-batch state.
func (l *OllamaProvider) Release() {
	l.httpClient.CloseIdleConnections()
}

func (l *OllamaProvider) Close() error {
	l.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider produces deterministic hash-derived vectors. It exists for
// tests and fully offline runs; vectors carry no semantic signal.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates the offline embedder.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{cache: cache}, nil
}

func (p *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		hash := ComputeHash(text)
		if p.cache != nil {
			if v, ok := p.cache.Get(hash); ok {
				vectors[i] = v
				continue
			}
		}
		v := hashVector(text)
		if p.cache != nil {
			p.cache.Set(hash, v)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (p *LocalProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *LocalProvider) Dimension() int   { return LocalDimension }
func (p *LocalProvider) Provider() string { return ProviderLocal }

// Release is a no-op: nothing is pinned between batches.
func (p *LocalProvider) Release() {}

func (p *LocalProvider) Close() error { return nil }

// hashVector expands the text's SHA-256 into a unit-length vector.
func hashVector(text string) []float32 {
	seed := sha256.Sum256([]byte(text))

	vector := make([]float32, LocalDimension)
	block := seed
	for i := 0; i < LocalDimension; i += 8 {
		block = sha256.Sum256(block[:])
		for j := 0; j < 8 && i+j < LocalDimension; j++ {
			bits := binary.BigEndian.Uint32(block[j*4 : j*4+4])
			vector[i+j] = float32(bits)/float32(math.MaxUint32) - 0.5
		}
	}
	return NormalizeVector(vector)
}

// NormalizeVector normalizes a vector to unit length for cosine similarity.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}
	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}
	return result
}

// lookupCache fills vectors for cache hits and returns the indices of the
// misses.
func lookupCache(cache *Cache, texts []string) ([][]float32, []int) {
	vectors := make([][]float32, len(texts))
	var misses []int
	for i, text := range texts {
		if cache != nil {
			if v, ok := cache.Get(ComputeHash(text)); ok {
				vectors[i] = v
				continue
			}
		}
		misses = append(misses, i)
	}
	return vectors, misses
}

// missTexts extracts the texts at the given indices.
func missTexts(texts []string, misses []int) []string {
	out := make([]string, len(misses))
	for i, idx := range misses {
		out[i] = texts[idx]
	}
	return out
}

// fillCache slots fetched vectors back into place and caches them.
func fillCache(cache *Cache, texts []string, vectors [][]float32, misses []int, fetched [][]float32) {
	for i, idx := range misses {
		vectors[idx] = fetched[i]
		if cache != nil {
			cache.Set(ComputeHash(texts[idx]), fetched[i])
		}
	}
}
