// Package embedder generates vector embeddings for text chunks and
// queries.
//
// Three providers are available: openai (hosted API), ollama (local model
// server), and local (deterministic hash vectors for tests and offline
// use). Providers share an LRU content cache and retry transient API
// failures with exponential backoff; retries never cross a provider call
// boundary, so the pipeline's no-batch-retry policy is unaffected.
//
// Every provider implements Release, the pipeline's post-batch resource
// reclamation hook. For HTTP providers this drops idle connections; for
// the local provider it is a no-op.
package embedder
