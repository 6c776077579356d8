package services

import (
	"context"
	"sort"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService gives read access to ingested cases and their chunks.
type DocumentService struct {
	docStore driven.DocumentStore
	chunks   driven.ChunkStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore, chunks driven.ChunkStore) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		chunks:   chunks,
	}
}

// List returns documents sorted by title, optionally restricted to a topic.
func (s *DocumentService) List(ctx context.Context, topic string) ([]domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx, topic)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Title != docs[j].Title {
			return docs[i].Title < docs[j].Title
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// Chunks returns the stored chunks of a document sorted by position.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	// Verify document exists
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	chunks, err := s.chunks.GetChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})
	return chunks, nil
}

// ChunkCount returns the number of stored chunks across all documents.
func (s *DocumentService) ChunkCount(ctx context.Context) (int, error) {
	return s.chunks.Count(ctx)
}
