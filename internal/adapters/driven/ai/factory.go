// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/embedding/hash"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/embedding/langchain"
	ollamaembed "github.com/custodia-labs/caselaw/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/caselaw/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/caselaw/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/llm/dummy"
	ollamallm "github.com/custodia-labs/caselaw/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/caselaw/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/rerank/cohere"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/rerank/lexical"
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/core/services"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// Providers holds the provider registry built from settings.
type Providers struct {
	// Registry is what generation resolves providers from.
	Registry *services.ProviderRegistry

	// Warnings lists providers that could not be configured.
	Warnings []string

	raw map[domain.ProviderID]driven.LLMProvider
}

// NewProviders creates every known provider from settings.
// A provider that cannot be built (usually a missing API key) is still
// registered, but each call fails with an auth ProviderError so the user
// sees which credential is missing rather than an unknown provider.
func NewProviders(settings domain.LLMSettings) *Providers {
	p := &Providers{raw: make(map[domain.ProviderID]driven.LLMProvider)}

	var guarded []driven.LLMProvider
	for _, id := range domain.AllProviders() {
		ps := settings.Provider(id)
		provider, err := createProvider(id, ps)
		if err != nil {
			logger.Debug("Provider %s not configured: %v", id, err)
			p.Warnings = append(p.Warnings, fmt.Sprintf("%s: %v", id, err))
			provider = &unconfigured{id: id, err: err}
		}
		p.raw[id] = provider
		guarded = append(guarded, services.GuardProvider(provider, ps.Timeout, ps.RequestsPerMinute))
	}

	p.Registry = services.NewProviderRegistry(guarded...)
	return p
}

// Configured reports whether id was built without errors.
func (p *Providers) Configured(id domain.ProviderID) bool {
	provider, ok := p.raw[id]
	if !ok {
		return false
	}
	_, missing := provider.(*unconfigured)
	return !missing
}

// createProvider builds a single provider.
func createProvider(id domain.ProviderID, ps domain.ProviderSettings) (driven.LLMProvider, error) {
	switch id {
	case domain.ProviderOpenAI, domain.ProviderDeepSeek:
		return openaillm.New(openaillm.Config{
			ID:      id,
			APIKey:  ps.APIKey,
			BaseURL: ps.BaseURL,
			Model:   ps.Model,
			Timeout: ps.Timeout,
		})

	case domain.ProviderAnthropic:
		return anthropicllm.New(anthropicllm.Config{
			APIKey:  ps.APIKey,
			BaseURL: ps.BaseURL,
			Model:   ps.Model,
			Timeout: ps.Timeout,
		})

	case domain.ProviderOllama:
		return ollamallm.New(ollamallm.Config{
			BaseURL: ps.BaseURL,
			Model:   ps.Model,
			Timeout: ps.Timeout,
		}), nil

	case domain.ProviderDummy:
		return dummy.New(ps.Model), nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, id)
	}
}

// unconfigured stands in for a provider whose construction failed.
type unconfigured struct {
	id  domain.ProviderID
	err error
}

func (u *unconfigured) ID() domain.ProviderID {
	return u.id
}

func (u *unconfigured) DefaultModel() string {
	return ""
}

func (u *unconfigured) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return "", domain.NewProviderError(u.id, domain.ProviderErrorAuth, 0, u.err)
}

// NewModelLoader creates the embedding model loader for the configured backend.
// Known model identifiers are resolved to their full name and dimensions.
// The OpenAI backend falls back to the OpenAI provider key.
func NewModelLoader(settings *domain.Settings) (driven.ModelLoader, error) {
	emb := settings.Embedding
	name, dimensions := emb.Model, 0
	if info, ok := domain.LookupEmbeddingModel(emb.Model); ok {
		name, dimensions = info.Name, info.Dimensions
	}

	switch emb.Backend {
	case domain.EmbeddingBackendOllama:
		// Ollama addresses models by its own tag, not the hub name.
		return ollamaembed.Loader(ollamaembed.Config{
			BaseURL:    emb.BaseURL,
			Model:      emb.Model,
			Dimensions: dimensions,
		}), nil

	case domain.EmbeddingBackendOpenAI:
		apiKey := emb.APIKey
		if apiKey == "" {
			apiKey = settings.LLM.Provider(domain.ProviderOpenAI).APIKey
		}
		return langchain.Loader(langchain.Config{
			APIKey:     apiKey,
			BaseURL:    emb.BaseURL,
			Model:      name,
			Dimensions: dimensions,
		}), nil

	case domain.EmbeddingBackendCompatible:
		return openaiembed.Loader(openaiembed.Config{
			APIKey:     emb.APIKey,
			BaseURL:    emb.BaseURL,
			Model:      name,
			Dimensions: dimensions,
		}), nil

	case domain.EmbeddingBackendHash:
		return hash.Loader(dimensions), nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding backend %q", domain.ErrInvalidInput, emb.Backend)
	}
}

// EmbeddingDimensions returns the vector size of the configured model,
// or zero when it is only known after loading.
func EmbeddingDimensions(emb domain.EmbeddingSettings) int {
	if emb.Backend == domain.EmbeddingBackendHash {
		if info, ok := domain.LookupEmbeddingModel(emb.Model); ok {
			return info.Dimensions
		}
		return hash.DefaultDimensions
	}
	if info, ok := domain.LookupEmbeddingModel(emb.Model); ok {
		return info.Dimensions
	}
	return 0
}

// NewReranker creates the configured second-pass scorer.
// Returns nil for RerankerNone.
func NewReranker(settings domain.RetrievalSettings) (driven.Reranker, error) {
	switch settings.Reranker {
	case domain.RerankerNone, "":
		return nil, nil

	case domain.RerankerLexical:
		return lexical.New(), nil

	case domain.RerankerCohere:
		r, err := cohere.New(cohere.Config{
			APIKey:  settings.CohereAPIKey,
			BaseURL: settings.CohereBaseURL,
			Model:   settings.CohereModel,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		return r, nil

	default:
		return nil, fmt.Errorf("%w: unknown reranker %q", domain.ErrInvalidInput, settings.Reranker)
	}
}
