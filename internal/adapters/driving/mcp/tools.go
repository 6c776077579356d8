package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// defaultTopK is used when a tool call leaves top_k unset.
const defaultTopK = 5

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query    string `json:"query" jsonschema:"the legal question or phrase to find passages for"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	Topic    string `json:"topic,omitempty" jsonschema:"restrict results to one legal topic"`
	NoRerank bool   `json:"no_rerank,omitempty" jsonschema:"skip the second-pass reranker"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	Rank       int     `json:"rank"`
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	Topic      string  `json:"topic,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query          string `json:"query" jsonschema:"the research question"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"continue an earlier conversation"`
	Provider       string `json:"provider,omitempty" jsonschema:"LLM provider: openai, deepseek, anthropic, ollama or dummy"`
	Model          string `json:"model,omitempty" jsonschema:"model override"`
	Mode           string `json:"mode,omitempty" jsonschema:"single-call or multi-step"`
	Topic          string `json:"topic,omitempty" jsonschema:"restrict grounding passages to one legal topic"`
	TopK           int    `json:"top_k,omitempty" jsonschema:"number of grounding passages"`
}

// ArgumentsInput is the input schema for the build_arguments tool.
type ArgumentsInput struct {
	CaseTitle      string `json:"case_title,omitempty" jsonschema:"short name of the matter"`
	CaseTopic      string `json:"case_topic,omitempty" jsonschema:"legal topic of the matter"`
	CaseContent    string `json:"case_content,omitempty" jsonschema:"facts and issues of the matter"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"continue an earlier conversation"`
	Provider       string `json:"provider,omitempty" jsonschema:"LLM provider"`
	Model          string `json:"model,omitempty" jsonschema:"model override"`
	SingleCall     bool   `json:"single_call,omitempty" jsonschema:"draft in one call instead of the reasoning chain"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the case passages most relevant to a legal question",
	}, s.handleRetrieve)

	if s.ports.Generation == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a legal research question grounded in retrieved case passages",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_arguments",
		Description: "Draft legal arguments for a matter using related cases",
	}, s.handleBuildArguments)
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	opts := domain.SearchOptions{TopK: topK, Topic: input.Topic, NoRerank: input.NoRerank}
	results, err := s.ports.Retrieval.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: make([]PassageOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		c := results[i].Chunk
		output.Results[i] = PassageOutput{
			Rank:       results[i].Rank,
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Title:      c.MetaString(domain.MetaTitle),
			Topic:      c.Topic,
			Score:      results[i].Score,
			Content:    c.Content,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, domain.GenerationResponse, error) {
	resp, err := s.ports.Generation.GenerateAnswer(ctx, domain.GenerationRequest{
		Query:          input.Query,
		ConversationID: input.ConversationID,
		Provider:       domain.ProviderID(input.Provider),
		Model:          input.Model,
		Mode:           domain.GenerationMode(input.Mode),
		Topic:          input.Topic,
		TopK:           input.TopK,
	})
	if err != nil {
		return nil, domain.GenerationResponse{}, err
	}
	return nil, *resp, nil
}

// handleBuildArguments handles the build_arguments tool invocation.
func (s *Server) handleBuildArguments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ArgumentsInput,
) (*mcp.CallToolResult, domain.GenerationResponse, error) {
	resp, err := s.ports.Generation.BuildArguments(ctx, domain.ArgumentsRequest{
		CaseTitle:      input.CaseTitle,
		CaseTopic:      input.CaseTopic,
		CaseContent:    input.CaseContent,
		Provider:       domain.ProviderID(input.Provider),
		Model:          input.Model,
		ConversationID: input.ConversationID,
		SingleCall:     input.SingleCall,
	})
	if err != nil {
		return nil, domain.GenerationResponse{}, err
	}
	return nil, *resp, nil
}
