// Package langchain adapts langchaingo embedders to the embedding model port.
// It backs the OpenAI cloud embedding backend.
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.EmbeddingModel = (*Model)(nil)

// DefaultBatchSize bounds the number of texts per upstream request.
const DefaultBatchSize = 256

// Config holds configuration for an OpenAI embedder built on langchaingo.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
}

// Model wraps a langchaingo embedder.
type Model struct {
	embedder   embeddings.Embedder
	name       string
	dimensions int
}

// NewModel wraps an existing embedder.
func NewModel(embedder embeddings.Embedder, name string, dimensions int) *Model {
	return &Model{embedder: embedder, name: name, dimensions: dimensions}
}

// NewOpenAI creates an embedder backed by the OpenAI embeddings API.
// Newlines are kept so passages are embedded verbatim.
func NewOpenAI(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("langchain: API key is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(false),
		embeddings.WithBatchSize(cfg.BatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return NewModel(embedder, cfg.Model, cfg.Dimensions), nil
}

// Loader returns a driven.ModelLoader that builds the OpenAI embedder and
// verifies the key with a one-text request.
func Loader(cfg Config) driven.ModelLoader {
	return driven.ModelLoaderFunc(func(ctx context.Context) (driven.EmbeddingModel, error) {
		m, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		if err := m.probe(ctx); err != nil {
			return nil, err
		}
		return m, nil
	})
}

func (m *Model) probe(ctx context.Context) error {
	vec, err := m.embedder.EmbedQuery(ctx, "ping")
	if err != nil {
		return fmt.Errorf("probe %s: %w", m.name, err)
	}
	if m.dimensions == 0 {
		m.dimensions = len(vec)
	}
	return nil
}

// EmbedBatch embeds texts in input order.
func (m *Model) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (m *Model) Dimensions() int {
	return m.dimensions
}

// ModelName returns the name of the embedding model being used.
func (m *Model) ModelName() string {
	return m.name
}

// Close releases resources.
func (m *Model) Close() error {
	return nil
}
