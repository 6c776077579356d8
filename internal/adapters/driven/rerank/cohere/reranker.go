// Package cohere provides a cross-encoder reranker using Cohere's rerank API.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cohere.ai/v1"
	DefaultModel   = "rerank-english-v3.0"
	DefaultTimeout = 30 * time.Second

	// maxDocs is Cohere's per-request document limit.
	maxDocs = 1000
)

// Config holds configuration for the Cohere reranker.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Reranker scores candidates with a hosted cross-encoder.
type Reranker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// New creates a Cohere reranker.
func New(cfg Config) (*Reranker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Reranker{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name identifies the reranker in logs.
func (r *Reranker) Name() string {
	return "cohere/" + r.model
}

// Rerank scores candidates and returns them by relevance descending.
// Candidates beyond the API limit are dropped.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []domain.RetrievalCandidate) ([]domain.RankedResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > maxDocs {
		candidates = candidates[:maxDocs]
	}

	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = c.Chunk.Content
	}

	jsonData, err := json.Marshal(rerankRequest{Query: query, Documents: documents, Model: r.model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]domain.RankedResult, 0, len(rerankResp.Results))
	seen := make(map[int]bool, len(rerankResp.Results))
	for _, res := range rerankResp.Results {
		if res.Index < 0 || res.Index >= len(candidates) || seen[res.Index] {
			return nil, fmt.Errorf("cohere returned invalid index %d", res.Index)
		}
		seen[res.Index] = true
		c := candidates[res.Index]
		results = append(results, domain.RankedResult{
			Chunk:      c.Chunk,
			Score:      res.RelevanceScore,
			Similarity: domain.DistanceScore(c.Distance),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
