package mcp

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results  []domain.RankedResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, _ int, _ string) ([]domain.RetrievalCandidate, error) {
	return nil, m.err
}

func (m *mockRetrievalService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.RankedResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockGenerationService is a mock implementation of driving.GenerationService.
type mockGenerationService struct {
	response    *domain.GenerationResponse
	err         error
	lastAnswer  domain.GenerationRequest
	lastArgsReq domain.ArgumentsRequest
}

func (m *mockGenerationService) GenerateAnswer(_ context.Context, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	m.lastAnswer = req
	return m.response, m.err
}

func (m *mockGenerationService) BuildArguments(_ context.Context, req domain.ArgumentsRequest) (*domain.GenerationResponse, error) {
	m.lastArgsReq = req
	return m.response, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	chunks    []domain.Chunk
	err       error
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) ChunkCount(_ context.Context) (int, error) {
	return len(m.chunks), m.err
}
