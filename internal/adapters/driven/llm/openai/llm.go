// Package openai provides an LLM provider for the OpenAI chat completions
// API and OpenAI-compatible services such as DeepSeek.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.LLMProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"

	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	DeepSeekModel   = "deepseek-reasoner"

	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the provider.
type Config struct {
	// ID is the registry key (default: openai).
	ID domain.ProviderID

	// APIKey is the bearer token (required).
	APIKey string

	// BaseURL is the API base URL. Defaults depend on ID.
	BaseURL string

	// Model is the default model. Defaults depend on ID.
	Model string

	// Timeout is the HTTP client timeout (default: 120s).
	Timeout time.Duration
}

// Provider generates text with an OpenAI-compatible API.
type Provider struct {
	id      domain.ProviderID
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model           string              `json:"model"`
	Messages        []chatCompletionMsg `json:"messages"`
	MaxTokens       int                 `json:"max_tokens,omitempty"`
	Temperature     *float64            `json:"temperature,omitempty"`
	ReasoningEffort string              `json:"reasoning_effort,omitempty"`
}

// chatCompletionMsg is the chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// New creates a provider.
func New(cfg Config) (*Provider, error) {
	if cfg.ID == "" {
		cfg.ID = domain.ProviderOpenAI
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.ID)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
		if cfg.ID == domain.ProviderDeepSeek {
			cfg.BaseURL = DeepSeekBaseURL
		}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
		if cfg.ID == domain.ProviderDeepSeek {
			cfg.Model = DeepSeekModel
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		id: cfg.ID,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// ID returns the registry key.
func (p *Provider) ID() domain.ProviderID {
	return p.id
}

// DefaultModel returns the configured model.
func (p *Provider) DefaultModel() string {
	return p.model
}

// Generate sends a single-turn chat completion.
func (p *Provider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	var messages []chatCompletionMsg
	if opts.System != "" {
		messages = append(messages, chatCompletionMsg{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatCompletionMsg{Role: "user", Content: prompt})

	reqBody := chatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: opts.MaxTokens,
	}
	// Reasoning models reject sampling parameters.
	if isReasoningModel(model) {
		if strings.HasPrefix(model, "o3") {
			reqBody.ReasoningEffort = "medium"
		}
	} else {
		t := opts.Temperature
		reqBody.Temperature = &t
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", p.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.transportError(err)
	}

	var chatResp chatCompletionResponse
	decodeErr := json.Unmarshal(body, &chatResp)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && chatResp.Error != nil {
			msg = chatResp.Error.Message
		}
		return "", domain.NewProviderError(p.id, domain.KindForStatus(resp.StatusCode), resp.StatusCode, errors.New(msg))
	}
	if decodeErr != nil {
		return "", domain.NewProviderError(p.id, domain.ProviderErrorMalformed, resp.StatusCode, fmt.Errorf("decode response: %w", decodeErr))
	}
	if chatResp.Error != nil {
		return "", domain.NewProviderError(p.id, domain.ProviderErrorUnavailable, resp.StatusCode, errors.New(chatResp.Error.Message))
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", domain.NewProviderError(p.id, domain.ProviderErrorMalformed, resp.StatusCode, errors.New("no content in response"))
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (p *Provider) transportError(err error) error {
	kind := domain.ProviderErrorUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = domain.ProviderErrorTimeout
	}
	return domain.NewProviderError(p.id, kind, 0, err)
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || m == "deepseek-reasoner"
}

// Ping validates the API key by listing models.
func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create ping request: %w", p.id, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return p.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.NewProviderError(p.id, domain.KindForStatus(resp.StatusCode), resp.StatusCode, errors.New(strings.TrimSpace(string(body))))
	}
	return nil
}
