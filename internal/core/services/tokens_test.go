package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func TestEstimateTokens(t *testing.T) {
	tenWords := "one two three four five six seven eight nine ten"

	assert.Equal(t, 13, EstimateTokens(domain.ProviderAnthropic, "claude-3-7-sonnet", tenWords))
	assert.Equal(t, 13, EstimateTokens(domain.ProviderAnthropic, "", tenWords))
	assert.Equal(t, 12, EstimateTokens(domain.ProviderDeepSeek, "deepseek-reasoner", tenWords))
	assert.Equal(t, 10, EstimateTokens(domain.ProviderOllama, "llama3.2", strings.Repeat("a", 40)))
	assert.Equal(t, 0, EstimateTokens(domain.ProviderOllama, "llama3.2", ""))
}

func TestContextWindow(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"claude-3-7-sonnet", 200_000},
		{"gpt-4o", 128_000},
		{"gpt-4o-mini", 128_000},
		{"gpt-4.1", 128_000},
		{"o3-mini", 128_000},
		{"deepseek-reasoner", 64_000},
		{"gpt-4", 8_192},
		{"llama3.2", 32_000},
		{"", 32_000},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextWindow(tt.model))
		})
	}
}
