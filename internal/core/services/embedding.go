package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// Prefixes are the textual markers prepended before embedding.
type Prefixes struct {
	Query   string
	Passage string
}

// PrefixPolicy returns the prefixes a model was trained with.
// Catalogued models use their recorded prefixes; any other e5 family model
// gets the e5 markers. Everything else is embedded without a prefix.
func PrefixPolicy(modelID string) Prefixes {
	if info, ok := domain.LookupEmbeddingModel(modelID); ok {
		return Prefixes{Query: info.QueryPrefix, Passage: info.PassagePrefix}
	}
	name := strings.ToLower(modelID)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if strings.HasPrefix(name, "e5-") || strings.HasPrefix(name, "multilingual-e5") {
		return Prefixes{Query: domain.E5QueryPrefix, Passage: domain.E5PassagePrefix}
	}
	return Prefixes{}
}

// applyPrefix prepends prefix unless text already carries it.
func applyPrefix(prefix, text string) string {
	if prefix == "" || strings.HasPrefix(text, prefix) {
		return text
	}
	return prefix + text
}

// EmbeddingEngine turns text into vectors with a lazily loaded model.
// The model is loaded on first use, exactly once per engine. A failed load
// is remembered and every later call fails with domain.ErrModelUnavailable.
type EmbeddingEngine struct {
	loader   driven.ModelLoader
	modelID  string
	prefixes Prefixes

	mu      sync.Mutex
	loaded  bool
	model   driven.EmbeddingModel
	loadErr error
}

// NewEmbeddingEngine creates an engine for modelID. Nothing is loaded until
// the first embedding call.
func NewEmbeddingEngine(loader driven.ModelLoader, modelID string) *EmbeddingEngine {
	return &EmbeddingEngine{
		loader:   loader,
		modelID:  modelID,
		prefixes: PrefixPolicy(modelID),
	}
}

// ModelID returns the configured model identifier.
func (e *EmbeddingEngine) ModelID() string {
	return e.modelID
}

// load returns the model, loading it on the first call.
func (e *EmbeddingEngine) load(ctx context.Context) (driven.EmbeddingModel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return e.model, e.loadErr
	}
	if e.loader == nil {
		e.loaded = true
		e.loadErr = fmt.Errorf("%w: no loader configured for %s", domain.ErrModelUnavailable, e.modelID)
		return nil, e.loadErr
	}

	logger.Debug("Loading embedding model %s", e.modelID)
	model, err := e.loader.Load(ctx)
	if err != nil {
		// A cancelled caller says nothing about the model, so the next caller retries.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.loaded = true
		e.loadErr = fmt.Errorf("%w: load %s: %w", domain.ErrModelUnavailable, e.modelID, err)
		logger.Warn("Embedding model %s unavailable: %v", e.modelID, err)
		return nil, e.loadErr
	}

	e.loaded = true
	e.model = model
	logger.Debug("Embedding model %s loaded (dimensions=%d)", model.ModelName(), model.Dimensions())
	return model, nil
}

// Embed embeds a single query. It shares the batch path, so
// Embed(t) equals EmbedBatch([t])[0].
func (e *EmbeddingEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds queries, applying the model's query prefix.
func (e *EmbeddingEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, e.prefixes.Query)
}

// EmbedDocuments embeds passages, applying the model's passage prefix.
func (e *EmbeddingEngine) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, e.prefixes.Passage)
}

func (e *EmbeddingEngine) embed(ctx context.Context, texts []string, prefix string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	model, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = applyPrefix(prefix, t)
	}

	vecs, err := model.EmbedBatch(ctx, inputs)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: %s returned %d vectors for %d texts",
			domain.ErrModelUnavailable, model.ModelName(), len(vecs), len(texts))
	}

	if dims := model.Dimensions(); dims > 0 {
		for i, v := range vecs {
			if len(v) != dims {
				return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
					domain.ErrModelUnavailable, i, len(v), dims)
			}
		}
	}
	return vecs, nil
}

// Dimensions returns the vector size, loading the model if needed.
func (e *EmbeddingEngine) Dimensions(ctx context.Context) (int, error) {
	model, err := e.load(ctx)
	if err != nil {
		return 0, err
	}
	return model.Dimensions(), nil
}

// Close releases the model if it was loaded.
func (e *EmbeddingEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	err := e.model.Close()
	e.model = nil
	e.loaded = false
	return err
}
