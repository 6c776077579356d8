// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingModel is a loaded sentence-embedding model.
// The embedding engine owns exactly one instance per process and applies
// query/passage prefixes before calling it, so implementations embed text verbatim.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI-compatible inference servers hosting intfloat/e5-base-v2
type EmbeddingModel interface {
	// EmbedBatch generates one embedding per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// ModelLoader loads an embedding model.
// Load is called at most once per engine; it should verify the model is
// usable (for remote backends, a lightweight test request) and fail otherwise.
type ModelLoader interface {
	Load(ctx context.Context) (EmbeddingModel, error)
}

// ModelLoaderFunc adapts a function to the ModelLoader interface.
type ModelLoaderFunc func(ctx context.Context) (EmbeddingModel, error)

// Load calls f(ctx).
func (f ModelLoaderFunc) Load(ctx context.Context) (EmbeddingModel, error) {
	return f(ctx)
}
