package driven

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// LLMProvider is a text-generation backend.
// Implementations translate GenerateOptions into their request shape and
// backend failures into *domain.ProviderError. They hold no mutable state
// and are safe for concurrent use.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible APIs (DeepSeek)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMProvider interface {
	// ID returns the registry key of the provider.
	ID() domain.ProviderID

	// DefaultModel returns the model used when options leave it empty.
	DefaultModel() string

	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// Model overrides the provider default.
	Model string

	// System is an optional system instruction.
	System string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
