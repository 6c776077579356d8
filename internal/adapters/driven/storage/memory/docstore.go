package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps case records in a map. Attach a ChunkStore with
// WithChunks to have DeleteDocument remove the case's passages as well.
type DocumentStore struct {
	mu     sync.RWMutex
	cases  map[string]domain.Document
	chunks *ChunkStore
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{cases: make(map[string]domain.Document)}
}

func (s *DocumentStore) WithChunks(chunks *ChunkStore) *DocumentStore {
	s.chunks = chunks
	return s
}

// SaveDocument inserts or replaces doc, keyed by its ID.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	s.cases[doc.ID] = *doc
	s.mu.Unlock()
	return nil
}

func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.cases[id]; ok {
		return &doc, nil
	}
	return nil, domain.ErrNotFound
}

func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.cases, id)
	s.mu.Unlock()
	if s.chunks == nil {
		return nil
	}
	return s.chunks.DeleteByDocument(ctx, id)
}

// ListDocuments returns the cases labelled topic, or all cases when topic
// is empty, ordered by ID.
func (s *DocumentStore) ListDocuments(_ context.Context, topic string) ([]domain.Document, error) {
	s.mu.RLock()
	out := make([]domain.Document, 0, len(s.cases))
	for _, doc := range s.cases {
		if topic == "" || doc.Topic == topic {
			out = append(out, doc)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
