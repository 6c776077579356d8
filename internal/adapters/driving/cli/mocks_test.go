package cli

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/services"
	"github.com/custodia-labs/caselaw/internal/normalisers"
	"github.com/custodia-labs/caselaw/internal/normalisers/markdown"
	"github.com/custodia-labs/caselaw/internal/normalisers/plaintext"
)

type mockIngestService struct {
	mu        sync.Mutex
	processed []domain.Document
	opts      []domain.ChunkOptions
	removed   []string
	err       error
}

func (m *mockIngestService) ProcessDocument(
	_ context.Context, doc domain.Document, opts domain.ChunkOptions,
) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.processed = append(m.processed, doc)
	m.opts = append(m.opts, opts)
	return []string{domain.ChunkID(doc.ID, 0), domain.ChunkID(doc.ID, 1)}, nil
}

func (m *mockIngestService) RemoveDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if documentID == "missing" {
		return domain.ErrNotFound
	}
	m.removed = append(m.removed, documentID)
	return nil
}

type mockRetrievalService struct {
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context, _ string, _ int, _ string,
) ([]domain.RetrievalCandidate, error) {
	return nil, nil
}

func (m *mockRetrievalService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.RankedResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if query == "nothing" {
		return nil, nil
	}
	return []domain.RankedResult{
		{
			Rank:  1,
			Score: 0.91,
			Chunk: domain.Chunk{
				ID:         "smith-v-jones_0",
				DocumentID: "smith-v-jones",
				Topic:      "Contract Law",
				Content:    "The lessee must give notice before  terminating\nthe lease.",
				Metadata: map[string]any{
					domain.MetaTitle:    "Smith v Jones",
					domain.MetaCitation: "[2023] WASAT 12",
				},
			},
		},
	}, nil
}

type mockGenerationService struct {
	lastAnswer    domain.GenerationRequest
	lastArguments domain.ArgumentsRequest
}

func (m *mockGenerationService) GenerateAnswer(
	_ context.Context, req domain.GenerationRequest,
) (*domain.GenerationResponse, error) {
	m.lastAnswer = req
	return &domain.GenerationResponse{
		Answer:         "Notice is required [1].",
		ConversationID: "conv-1",
		Mode:           domain.ModeMultiStep,
		Provider:       domain.ProviderDummy,
		Model:          "dummy",
		Sources: []domain.Source{
			{Number: 1, Title: "Smith v Jones", Citation: "[2023] WASAT 12", Score: 0.91},
		},
		Steps: []domain.StepRecord{
			{Number: 1, Name: "Identify the issues", Output: "Termination notice."},
		},
		QueryType: &domain.QueryClassification{Type: domain.QueryTypeGeneral, Confidence: 0.6},
	}, nil
}

func (m *mockGenerationService) BuildArguments(
	_ context.Context, req domain.ArgumentsRequest,
) (*domain.GenerationResponse, error) {
	m.lastArguments = req
	return &domain.GenerationResponse{
		Answer:         "The tenant should argue waiver [1].",
		ConversationID: "conv-2",
		Mode:           domain.ModeSingleCall,
		Provider:       domain.ProviderDummy,
		Model:          "dummy",
		Disclaimer:     domain.ArgumentsDisclaimer("dummy"),
		RelatedCases: []domain.RelatedCase{
			{Title: "Smith v Jones", Citation: "[2023] WASAT 12", Similarity: 0.91, CitationNumber: 1},
		},
	}, nil
}

type mockDocumentService struct{}

func (m *mockDocumentService) List(_ context.Context, topic string) ([]domain.Document, error) {
	docs := []domain.Document{
		{ID: "smith-v-jones", Title: "Smith v Jones", Topic: "Contract Law", URL: "https://example.org/2023wasat12"},
		{ID: "r-v-brown", Title: "R v Brown", Topic: "Criminal Law"},
	}
	if topic == "" {
		return docs, nil
	}
	var out []domain.Document
	for _, d := range docs {
		if d.Topic == topic {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDocumentService) Get(_ context.Context, documentID string) (*domain.Document, error) {
	if documentID != "smith-v-jones" {
		return nil, domain.ErrNotFound
	}
	return &domain.Document{
		ID:       "smith-v-jones",
		Title:    "Smith v Jones",
		Topic:    "Contract Law",
		Content:  "Full text of Smith v Jones.",
		Metadata: map[string]any{domain.MetaCitation: "[2023] WASAT 12"},
	}, nil
}

func (m *mockDocumentService) Chunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	if documentID != "smith-v-jones" {
		return nil, nil
	}
	return []domain.Chunk{
		{ID: "smith-v-jones_0", DocumentID: documentID, Position: 0, Content: "Full text"},
		{ID: "smith-v-jones_1", DocumentID: documentID, Position: 1, Content: "of Smith v Jones."},
	}, nil
}

func (m *mockDocumentService) ChunkCount(_ context.Context) (int, error) {
	return 2, nil
}

// testServices exposes the mocks installed by setupTestServices.
type testServices struct {
	ingest     *mockIngestService
	retrieval  *mockRetrievalService
	generation *mockGenerationService
	config     *memory.ConfigStore
}

// setupTestServices installs mock services and returns a cleanup function
// that restores the previous services and resets every flag.
func setupTestServices() (*testServices, func()) {
	origSettings := settingsService
	origIngest := ingestService
	origRetrieval := retrievalService
	origGeneration := generationService
	origDocument := documentService
	origNormaliser := normaliser
	origChecker := providerChecker
	origBuilder := builder

	ts := &testServices{
		ingest:     &mockIngestService{},
		retrieval:  &mockRetrievalService{},
		generation: &mockGenerationService{},
		config:     memory.NewConfigStore(),
	}

	settingsService = services.NewSettingsService(ts.config, nil)
	ingestService = ts.ingest
	retrievalService = ts.retrieval
	generationService = ts.generation
	documentService = &mockDocumentService{}
	normaliser = normalisers.NewRegistry(plaintext.New(), markdown.New())
	providerChecker = func(_ context.Context, ping bool) []ProviderStatus {
		statuses := []ProviderStatus{
			{ID: domain.ProviderOpenAI, Configured: false, Err: domain.ErrInvalidInput},
			{ID: domain.ProviderDummy, Configured: true},
		}
		if ping {
			statuses = append(statuses, ProviderStatus{ID: domain.ProviderOllama, Configured: true})
		}
		return statuses
	}
	builder = nil

	return ts, func() {
		settingsService = origSettings
		ingestService = origIngest
		retrievalService = origRetrieval
		generationService = origGeneration
		documentService = origDocument
		normaliser = origNormaliser
		providerChecker = origChecker
		builder = origBuilder
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
	}
}

// resetFlags restores every flag under cmd to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	var buf strings.Builder
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// safeBuffer is a writer shared between a running command and a test.
type safeBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
