// Package dummy provides an offline LLM provider that returns canned text.
package dummy

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.LLMProvider = (*Provider)(nil)

// DefaultModel is reported when no model is configured.
const DefaultModel = "dummy"

// Provider echoes a short summary of the prompt.
type Provider struct {
	model string
}

// New creates a dummy provider.
func New(model string) *Provider {
	if model == "" {
		model = DefaultModel
	}
	return &Provider{model: model}
}

// ID returns the registry key.
func (p *Provider) ID() domain.ProviderID {
	return domain.ProviderDummy
}

// DefaultModel returns the configured model.
func (p *Provider) DefaultModel() string {
	return p.model
}

// Generate returns a deterministic response naming the model and the
// last non-empty line of the prompt.
func (p *Provider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	model := opts.Model
	if model == "" {
		model = p.model
	}
	return fmt.Sprintf("[%s] Offline response to: %s", model, lastLine(prompt)), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return "(empty prompt)"
}
