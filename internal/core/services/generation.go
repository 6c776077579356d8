package services

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driving.GenerationService = (*GenerationService)(nil)

// NoContextMessage is the grounding context when no passage qualifies.
const NoContextMessage = "No relevant documents found."

// Limits applied when rendering sources and argument queries.
const (
	excerptLength     = 300
	caseQueryLength   = 1000
	defaultChunksTopK = 5
)

// GenerationConfig holds the generation defaults resolved from settings.
type GenerationConfig struct {
	ChatProvider      domain.ProviderID
	ChatModel         string
	ArgumentsProvider domain.ProviderID
	ArgumentsModel    string
	Temperature       float64
	MaxTokens         int
	ChunksLimit       int
	DocumentsLimit    int
	Threshold         float64
	HistoryLimit      int
	DefaultMode       domain.GenerationMode
}

// GenerationConfigFromSettings extracts the generation defaults.
func GenerationConfigFromSettings(s *domain.Settings) GenerationConfig {
	return GenerationConfig{
		ChatProvider:      s.LLM.ChatProvider,
		ChatModel:         s.LLM.ChatModel,
		ArgumentsProvider: s.LLM.ArgumentsProvider,
		ArgumentsModel:    s.LLM.ArgumentsModel,
		Temperature:       s.LLM.Temperature,
		MaxTokens:         s.LLM.MaxTokens,
		ChunksLimit:       s.Retrieval.ChunksLimit,
		DocumentsLimit:    s.Retrieval.DocumentsLimit,
		Threshold:         s.Retrieval.EffectiveThreshold(),
		HistoryLimit:      s.Generation.HistoryLimit,
		DefaultMode:       s.Generation.DefaultMode,
	}
}

// GenerationService answers research questions and drafts arguments
// grounded in retrieved case passages.
type GenerationService struct {
	retrieval     driving.RetrievalService
	providers     *ProviderRegistry
	conversations driven.ConversationStore
	prompts       driven.PromptStore
	cfg           GenerationConfig
}

// NewGenerationService creates a new generation service.
// The conversation store is optional; without it nothing is remembered.
func NewGenerationService(
	retrieval driving.RetrievalService,
	providers *ProviderRegistry,
	conversations driven.ConversationStore,
	prompts driven.PromptStore,
	cfg GenerationConfig,
) *GenerationService {
	if cfg.ChunksLimit <= 0 {
		cfg.ChunksLimit = defaultChunksTopK
	}
	if !cfg.DefaultMode.IsValid() {
		cfg.DefaultMode = domain.ModeSingleCall
	}
	return &GenerationService{
		retrieval:     retrieval,
		providers:     providers,
		conversations: conversations,
		prompts:       prompts,
		cfg:           cfg,
	}
}

// promptData is the template input for every prompt.
type promptData struct {
	Query      string
	Case       *domain.CaseContext
	Topic      string
	Context    string
	History    string
	Guidance   string
	Step       domain.StepDefinition
	StepNumber int
	StepCount  int
	Previous   []domain.StepRecord
}

// generation is the per-request state shared by the generation modes.
type generation struct {
	provider driven.LLMProvider
	model    string
	opts     driven.GenerateOptions
	history  string
	results  []domain.RankedResult
	sources  []domain.Source
}

// GenerateAnswer answers a research question grounded in retrieved passages.
func (s *GenerationService) GenerateAnswer(
	ctx context.Context, req domain.GenerationRequest,
) (*domain.GenerationResponse, error) {
	return s.generate(ctx, req, s.cfg.ChatProvider, s.cfg.ChatModel)
}

// BuildArguments drafts arguments for a case. It runs the reasoning chain
// unless SingleCall is set, and attaches related cases and a disclaimer.
func (s *GenerationService) BuildArguments(
	ctx context.Context, req domain.ArgumentsRequest,
) (*domain.GenerationResponse, error) {
	title := strings.TrimSpace(req.CaseTitle)
	content := strings.TrimSpace(req.CaseContent)
	if title == "" && content == "" {
		return nil, fmt.Errorf("%w: case title or content is required", domain.ErrInvalidInput)
	}

	mode := domain.ModeMultiStep
	if req.SingleCall {
		mode = domain.ModeSingleCall
	}

	resp, err := s.generate(ctx, domain.GenerationRequest{
		Query:          CaseQuery(title, content),
		ConversationID: req.ConversationID,
		Provider:       req.Provider,
		Model:          req.Model,
		Mode:           mode,
		Topic:          req.CaseTopic,
		Case: &domain.CaseContext{
			Title:   title,
			Topic:   req.CaseTopic,
			Content: content,
		},
	}, s.cfg.ArgumentsProvider, s.cfg.ArgumentsModel)
	if err != nil {
		return nil, err
	}

	resp.Disclaimer = domain.ArgumentsDisclaimer(resp.Model)
	resp.RelatedCases = RelatedCases(resp.Sources, s.cfg.DocumentsLimit)
	return resp, nil
}

// CaseQuery derives a retrieval query from a case title and content.
// Content is cut to its first thousand characters.
func CaseQuery(title, content string) string {
	content = truncateRunes(content, caseQueryLength)
	switch {
	case title == "":
		return content
	case content == "":
		return title
	default:
		return title + "\n\n" + content
	}
}

func (s *GenerationService) generate(
	ctx context.Context, req domain.GenerationRequest, defaultProvider domain.ProviderID, defaultModel string,
) (*domain.GenerationResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}

	mode := req.Mode
	if mode == "" {
		mode = s.cfg.DefaultMode
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown generation mode %q", domain.ErrInvalidInput, mode)
	}

	logger.Section("Generation")

	provider, model, err := s.resolveProvider(req.Provider, req.Model, defaultProvider, defaultModel)
	if err != nil {
		return nil, err
	}
	logger.Debug("Provider: %s, model: %s, mode: %s", provider.ID(), model, mode)

	conversationID, history, err := s.resolveConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.ChunksLimit
	}
	ranked, err := s.retrieval.Search(ctx, query, domain.SearchOptions{TopK: topK, Topic: req.Topic})
	if err != nil {
		return nil, fmt.Errorf("retrieve grounding passages: %w", err)
	}

	results := filterBySimilarity(ranked, s.cfg.Threshold)
	logger.Debug("%d of %d passages meet the relevance threshold %.2f", len(results), len(ranked), s.cfg.Threshold)

	system, err := s.prompts.Load(driven.PromptSystem)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}

	g := &generation{
		provider: provider,
		model:    model,
		opts: driven.GenerateOptions{
			Model:       model,
			System:      system,
			MaxTokens:   s.cfg.MaxTokens,
			Temperature: s.cfg.Temperature,
		},
		history: FormatHistory(history),
		results: results,
	}

	resp := &domain.GenerationResponse{
		ConversationID: conversationID,
		Mode:           mode,
		Provider:       provider.ID(),
		Model:          model,
	}

	switch mode {
	case domain.ModeMultiStep:
		steps, err := s.runSteps(ctx, g, query, req.Case, req.Topic)
		if err != nil {
			return nil, err
		}
		resp.Steps = steps
		resp.Answer = steps[len(steps)-1].Output
	default:
		answer, classification, err := s.singleCall(ctx, g, query, req.Case, req.Topic)
		if err != nil {
			return nil, err
		}
		resp.Answer = answer
		resp.QueryType = classification
	}
	resp.Sources = g.sources

	s.record(ctx, conversationID, query, resp)
	return resp, nil
}

// resolveProvider picks the provider and model for a request. An explicit
// provider wins, then one inferred from the model name, then the default.
func (s *GenerationService) resolveProvider(
	id domain.ProviderID, model string, defaultID domain.ProviderID, defaultModel string,
) (driven.LLMProvider, string, error) {
	if id == "" && model != "" {
		if inferred, ok := domain.ProviderForModel(model); ok {
			id = inferred
		}
	}
	if id == "" {
		id = defaultID
	}

	provider, err := s.providers.Resolve(id)
	if err != nil {
		return nil, "", err
	}

	if model == "" {
		if id == defaultID && defaultModel != "" {
			model = defaultModel
		} else {
			model = provider.DefaultModel()
		}
	}
	return provider, model, nil
}

// resolveConversation returns the conversation ID and its recent turns.
// An empty ID starts a new conversation.
func (s *GenerationService) resolveConversation(ctx context.Context, id string) (string, []domain.Turn, error) {
	if id == "" {
		id = uuid.NewString()
		logger.Debug("New conversation %s", id)
		return id, nil, nil
	}
	if s.conversations == nil {
		return id, nil, nil
	}
	turns, err := s.conversations.LoadTurns(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("load conversation %s: %w", id, err)
	}
	turns = domain.RecentTurns(turns, s.cfg.HistoryLimit)
	logger.Debug("Conversation %s: %d turns of history", id, len(turns))
	return id, turns, nil
}

func (s *GenerationService) singleCall(
	ctx context.Context, g *generation, query string, c *domain.CaseContext, topic string,
) (string, *domain.QueryClassification, error) {
	data := promptData{Query: query, Case: c, Topic: topic, History: g.history}

	name := driven.PromptAnswer
	var classification *domain.QueryClassification
	if c != nil {
		name = driven.PromptArguments
	} else {
		cls := ClassifyQuery(query)
		classification = &cls
		logger.Debug("Query classified as %s (confidence %.2f)", cls.Type, cls.Confidence)

		guidanceName := driven.PromptGeneral
		if cls.Type == domain.QueryTypeCaseSpecific {
			guidanceName = driven.PromptCaseSpecific
		}
		guidance, err := s.prompts.Load(guidanceName)
		if err != nil {
			return "", nil, fmt.Errorf("load %s guidance: %w", guidanceName, err)
		}
		data.Guidance = guidance
	}

	prompt, err := s.fitPrompt(g, name, data)
	if err != nil {
		return "", nil, err
	}

	logger.Debug("Prompt tokens (estimated): %d", EstimateTokens(g.provider.ID(), g.model, prompt))
	answer, err := g.provider.Generate(ctx, prompt, g.opts)
	if err != nil {
		return "", nil, fmt.Errorf("generate answer: %w", err)
	}
	return answer, classification, nil
}

// runSteps executes the reasoning chain in order. Cancellation is checked
// before each step; a failed step ends the chain with a *domain.StepFailure.
func (s *GenerationService) runSteps(
	ctx context.Context, g *generation, query string, c *domain.CaseContext, topic string,
) ([]domain.StepRecord, error) {
	chain, err := s.prompts.Steps()
	if err != nil {
		return nil, fmt.Errorf("load reasoning chain: %w", err)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: reasoning chain is empty", domain.ErrInvalidInput)
	}

	base := promptData{Query: query, Case: c, Topic: topic, History: g.history, StepCount: len(chain)}

	// The context is sized against the first step; later steps add prior outputs.
	first := base
	first.Step = chain[0]
	first.StepNumber = 1
	if _, err := s.fitPrompt(g, driven.PromptStep, first); err != nil {
		return nil, err
	}
	base.Context = FormatContext(g.results)

	records := make([]domain.StepRecord, 0, len(chain))
	for i, step := range chain {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled before step %d (%s): %w", i+1, step.Name, err)
		}

		logger.Section(fmt.Sprintf("Step %d/%d: %s", i+1, len(chain), step.Name))

		data := base
		data.Step = step
		data.StepNumber = i + 1
		data.Previous = records

		prompt, err := s.render(driven.PromptStep, data)
		if err != nil {
			return nil, &domain.StepFailure{Step: i + 1, Name: step.Name, Err: err}
		}
		logger.Debug("Prompt tokens (estimated): %d", EstimateTokens(g.provider.ID(), g.model, prompt))

		start := time.Now()
		out, err := g.provider.Generate(ctx, prompt, g.opts)
		if err != nil {
			logger.Warn("Step %d (%s) failed: %v", i+1, step.Name, err)
			return nil, &domain.StepFailure{Step: i + 1, Name: step.Name, Err: err}
		}
		logger.Debug("Step %d completed in %s", i+1, time.Since(start).Round(time.Millisecond))

		records = append(records, domain.StepRecord{
			Number: i + 1,
			Name:   step.Name,
			Prompt: prompt,
			Output: out,
		})
	}
	return records, nil
}

// fitPrompt renders a prompt, dropping the lowest ranked passages until it
// fits the model's context window. It settles g.results and g.sources.
func (s *GenerationService) fitPrompt(g *generation, name string, data promptData) (string, error) {
	budget := ContextWindow(g.model) - g.opts.MaxTokens
	results := g.results

	for {
		data.Context = FormatContext(results)
		prompt, err := s.render(name, data)
		if err != nil {
			return "", err
		}
		if len(results) == 0 || EstimateTokens(g.provider.ID(), g.model, prompt) <= budget {
			g.results = results
			g.sources = BuildSources(results)
			return prompt, nil
		}
		results = results[:len(results)-1]
		logger.Debug("Prompt exceeds %d tokens, keeping %d passages", budget, len(results))
	}
}

func (s *GenerationService) render(name string, data promptData) (string, error) {
	text, err := s.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load %s prompt: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s prompt: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return b.String(), nil
}

// record appends the user and assistant turns. Failures are logged, since
// the answer has already been produced.
func (s *GenerationService) record(ctx context.Context, id, query string, resp *domain.GenerationResponse) {
	if s.conversations == nil {
		return
	}
	now := time.Now()
	turns := []domain.Turn{
		{Role: domain.RoleUser, Content: query, CreatedAt: now},
		{Role: domain.RoleAssistant, Content: resp.Answer, CreatedAt: now, Steps: resp.Steps, Sources: resp.Sources},
	}
	for _, t := range turns {
		if err := s.conversations.AppendTurn(ctx, id, t); err != nil {
			logger.Warn("Failed to record %s turn in conversation %s: %v", t.Role, id, err)
			return
		}
	}
}

// filterBySimilarity keeps results whose retrieval similarity reaches
// threshold and renumbers them. Reranker scores are not comparable to it.
func filterBySimilarity(results []domain.RankedResult, threshold float64) []domain.RankedResult {
	out := make([]domain.RankedResult, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			r.Rank = len(out) + 1
			out = append(out, r)
		}
	}
	return out
}

// BuildSources renders ranked results as citations numbered from 1.
func BuildSources(results []domain.RankedResult) []domain.Source {
	sources := make([]domain.Source, len(results))
	for i, r := range results {
		c := r.Chunk
		sources[i] = domain.Source{
			Number:     i + 1,
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Title:      c.MetaString(domain.MetaTitle),
			URL:        c.MetaString(domain.MetaURL),
			Citation:   c.MetaString(domain.MetaCitation),
			Topic:      c.Topic,
			Position:   c.Position,
			Excerpt:    truncateRunes(c.Content, excerptLength),
			Score:      r.Score,
			Similarity: r.Similarity,
		}
	}
	return sources
}

// FormatContext renders passages for a prompt, numbered in presentation order.
func FormatContext(results []domain.RankedResult) string {
	if len(results) == 0 {
		return NoContextMessage
	}
	var b strings.Builder
	for i, r := range results {
		c := r.Chunk
		fmt.Fprintf(&b, "CHUNK %d [Similarity: %.2f]:\n", i+1, r.Similarity)
		fmt.Fprintf(&b, "From case: %s\n", orDefault(c.MetaString(domain.MetaTitle), "Unknown"))
		fmt.Fprintf(&b, "Citation: %s\n", orDefault(c.MetaString(domain.MetaCitation), "N/A"))
		fmt.Fprintf(&b, "Case URL: %s\n", orDefault(c.MetaString(domain.MetaURL), "#"))
		fmt.Fprintf(&b, "Text: %s\n\n", c.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHistory renders turns as "Role: content" lines.
func FormatHistory(turns []domain.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		role := string(t.Role)
		if role != "" {
			role = strings.ToUpper(role[:1]) + role[1:]
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RelatedCases lists the distinct documents behind sources, best first,
// capped at limit. A non-positive limit means no cap.
func RelatedCases(sources []domain.Source, limit int) []domain.RelatedCase {
	seen := make(map[string]bool)
	var out []domain.RelatedCase
	for _, src := range sources {
		if seen[src.DocumentID] {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		seen[src.DocumentID] = true
		out = append(out, domain.RelatedCase{
			Title:          orDefault(src.Title, src.DocumentID),
			URL:            src.URL,
			Citation:       src.Citation,
			Summary:        src.Excerpt,
			Similarity:     src.Similarity,
			CitationNumber: src.Number,
		})
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
