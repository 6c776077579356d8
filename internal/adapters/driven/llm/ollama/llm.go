// Package ollama provides an LLM provider using a local Ollama instance.
package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the Ollama provider.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the default model (default: llama3.2).
	Model string

	// Timeout is the HTTP client timeout (default: 300s). Local models are slow.
	Timeout time.Duration
}

// Provider generates text with Ollama's chat endpoint.
type Provider struct {
	client  *http.Client
	baseURL string
	model   string
}

// options are Ollama sampling options.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// New creates a new Ollama provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// ID returns the registry key.
func (p *Provider) ID() domain.ProviderID {
	return domain.ProviderOllama
}

// DefaultModel returns the configured model.
func (p *Provider) DefaultModel() string {
	return p.model
}

// Generate runs a non-streaming chat request.
func (p *Provider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	var messages []chatMessage
	if opts.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", p.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.transportError(err)
	}

	var chatResp chatResponse
	decodeErr := json.Unmarshal(body, &chatResp)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && chatResp.Error != "" {
			msg = chatResp.Error
		}
		return "", domain.NewProviderError(domain.ProviderOllama, domain.KindForStatus(resp.StatusCode), resp.StatusCode, errors.New(msg))
	}
	if decodeErr != nil {
		return "", domain.NewProviderError(domain.ProviderOllama, domain.ProviderErrorMalformed, resp.StatusCode, fmt.Errorf("decode response: %w", decodeErr))
	}
	if strings.TrimSpace(chatResp.Message.Content) == "" {
		return "", domain.NewProviderError(domain.ProviderOllama, domain.ProviderErrorMalformed, resp.StatusCode, errors.New("empty message in response"))
	}
	return chatResp.Message.Content, nil
}

func (p *Provider) transportError(err error) error {
	kind := domain.ProviderErrorUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = domain.ProviderErrorTimeout
	}
	return domain.NewProviderError(domain.ProviderOllama, kind, 0, err)
}

// Ping checks that Ollama is running.
func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return p.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewProviderError(domain.ProviderOllama, domain.KindForStatus(resp.StatusCode), resp.StatusCode, fmt.Errorf("ollama returned status %d", resp.StatusCode))
	}
	return nil
}
