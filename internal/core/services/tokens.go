package services

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// fallbackEncoding is used for OpenAI models tiktoken does not know yet.
const fallbackEncoding = "cl100k_base"

var encoders sync.Map // model name -> *tiktoken.Tiktoken

// EstimateTokens approximates the token count of text for a model.
// GPT models are counted with tiktoken. Claude and DeepSeek use word counts
// scaled by 1.3 and 1.2. Anything else is estimated at four characters per token.
func EstimateTokens(provider domain.ProviderID, model, text string) int {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "gpt"):
		if enc := encoderFor(m); enc != nil {
			return len(enc.Encode(text, nil, nil))
		}
	case strings.Contains(m, "claude"), provider == domain.ProviderAnthropic:
		return int(float64(len(strings.Fields(text))) * 1.3)
	case strings.Contains(m, "deepseek"), provider == domain.ProviderDeepSeek:
		return int(float64(len(strings.Fields(text))) * 1.2)
	}
	return len(text) / 4
}

func encoderFor(model string) *tiktoken.Tiktoken {
	if enc, ok := encoders.Load(model); ok {
		return enc.(*tiktoken.Tiktoken)
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			logger.Debug("No tokenizer for %s: %v", model, err)
			return nil
		}
	}
	encoders.Store(model, enc)
	return enc
}

// ContextWindow returns the prompt budget in tokens for a model family.
func ContextWindow(model string) int {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude-"):
		return 200_000
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "gpt-4.1"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"):
		return 128_000
	case strings.HasPrefix(m, "deepseek-"):
		return 64_000
	case strings.HasPrefix(m, "gpt-4"):
		return 8_192
	default:
		return 32_000
	}
}
