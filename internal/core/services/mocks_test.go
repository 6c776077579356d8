package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockModel implements driven.EmbeddingModel. Texts listed in vectors get
// that vector; anything else gets fallback.
type mockModel struct {
	dims     int
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	// wrongCount returns one vector too few when set.
	wrongCount bool

	mu     sync.Mutex
	inputs [][]string
	closed bool
}

func (m *mockModel) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if v, ok := m.vectors[t]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, m.fallback)
	}
	if m.wrongCount {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockModel) Dimensions() int {
	return m.dims
}

func (m *mockModel) ModelName() string {
	return "mock-model"
}

func (m *mockModel) Close() error {
	m.closed = true
	return nil
}

func (m *mockModel) lastInputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[len(m.inputs)-1]
}

// mockLoader implements driven.ModelLoader and counts loads.
type mockLoader struct {
	model   driven.EmbeddingModel
	err     error
	delay   time.Duration
	loads   atomic.Int32
	blockOn chan struct{}
}

func (l *mockLoader) Load(ctx context.Context) (driven.EmbeddingModel, error) {
	l.loads.Add(1)
	if l.blockOn != nil {
		select {
		case <-l.blockOn:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.model, nil
}

// newTestEngine returns an engine over a 2-dimensional mock model.
func newTestEngine(vectors map[string][]float32) (*EmbeddingEngine, *mockModel) {
	model := &mockModel{dims: 2, vectors: vectors, fallback: []float32{0, 0}}
	return NewEmbeddingEngine(&mockLoader{model: model}, "mock-model"), model
}

// mockLLM implements driven.LLMProvider.
type mockLLM struct {
	id           domain.ProviderID
	defaultModel string
	// respond produces the output for the n-th call (1-based).
	respond func(ctx context.Context, n int, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLM) ID() domain.ProviderID {
	return m.id
}

func (m *mockLLM) DefaultModel() string {
	return m.defaultModel
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	n := len(m.prompts)
	m.mu.Unlock()

	if m.respond != nil {
		return m.respond(ctx, n, prompt)
	}
	return fmt.Sprintf("answer %d", n), nil
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockPromptStore implements driven.PromptStore with small templates.
type mockPromptStore struct {
	prompts map[string]string
	steps   []domain.StepDefinition
	loadErr error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{
		prompts: map[string]string{
			driven.PromptSystem:       "You are a legal research assistant.",
			driven.PromptAnswer:       "GUIDANCE: {{.Guidance}}\nHISTORY: {{.History}}\nCONTEXT:\n{{.Context}}\nQUESTION: {{.Query}}",
			driven.PromptArguments:    "CASE: {{.Case.Title}}\nTOPIC: {{.Topic}}\nCONTEXT:\n{{.Context}}",
			driven.PromptStep:         "STEP {{.StepNumber}}/{{.StepCount}} {{.Step.Name}}\n{{range .Previous}}PREV {{.Number}}: {{.Output}}\n{{end}}CONTEXT:\n{{.Context}}\nQUERY: {{.Query}}",
			driven.PromptCaseSpecific: "case guidance",
			driven.PromptGeneral:      "general guidance",
		},
		steps: []domain.StepDefinition{
			{Name: "facts", Instructions: "Identify the material facts."},
			{Name: "issues", Instructions: "Frame the legal issues."},
			{Name: "arguments", Instructions: "Draft the arguments."},
		},
	}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("%w: prompt %s", domain.ErrNotFound, name)
	}
	return p, nil
}

func (m *mockPromptStore) Steps() ([]domain.StepDefinition, error) {
	return m.steps, nil
}

func (m *mockPromptStore) Reload() {}

// mockReranker implements driven.Reranker by scoring chunks from a table.
type mockReranker struct {
	scores map[string]float64
	err    error
	seen   int
}

func (m *mockReranker) Name() string {
	return "mock"
}

func (m *mockReranker) Rerank(
	_ context.Context, _ string, candidates []domain.RetrievalCandidate,
) ([]domain.RankedResult, error) {
	m.seen = len(candidates)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.RankedResult, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RankedResult{Chunk: c.Chunk, Score: m.scores[c.Chunk.ID]}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// faultyChunkStore wraps the memory store with injectable failures.
type faultyChunkStore struct {
	*memory.ChunkStore
	replaceErr error
	// partial stores this many chunks before failing ReplaceDocumentChunks.
	partial   int
	deleteErr error
	deletes   int
}

func (s *faultyChunkStore) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if s.replaceErr != nil {
		n := s.partial
		if n > len(chunks) {
			n = len(chunks)
		}
		if err := s.ChunkStore.UpsertChunks(ctx, chunks[:n]); err != nil {
			return err
		}
		return s.replaceErr
	}
	return s.ChunkStore.ReplaceDocumentChunks(ctx, documentID, chunks)
}

func (s *faultyChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.ChunkStore.DeleteByDocument(ctx, documentID)
}

// faultyDocumentStore fails SaveDocument with saveErr.
type faultyDocumentStore struct {
	*memory.DocumentStore
	saveErr error
}

func (s *faultyDocumentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.DocumentStore.SaveDocument(ctx, doc)
}

// staticRetrieval implements driving.RetrievalService with fixed results.
type staticRetrieval struct {
	results []domain.RankedResult
	err     error
	last    domain.SearchOptions
	query   string
}

func (r *staticRetrieval) Retrieve(context.Context, string, int, string) ([]domain.RetrievalCandidate, error) {
	return nil, errors.New("not used")
}

func (r *staticRetrieval) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.RankedResult, error) {
	r.last = opts
	r.query = query
	if r.err != nil {
		return nil, r.err
	}
	out := r.results
	if len(out) > opts.TopK {
		out = out[:opts.TopK]
	}
	return append([]domain.RankedResult(nil), out...), nil
}

// result builds a ranked result for a case passage.
func result(docID string, position int, score float64, content string) domain.RankedResult {
	return domain.RankedResult{
		Chunk: domain.Chunk{
			ID:         domain.ChunkID(docID, position),
			DocumentID: docID,
			Topic:      "Commercial Tenancy",
			Content:    content,
			Position:   position,
			Metadata: map[string]any{
				domain.MetaTitle:    strings.ToUpper(docID[:1]) + docID[1:],
				domain.MetaURL:      "https://example.org/" + docID,
				domain.MetaCitation: "[2023] WASAT " + fmt.Sprint(position+1),
			},
		},
		Score:      score,
		Similarity: score,
	}
}
