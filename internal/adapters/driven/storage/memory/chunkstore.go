package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
// Nearest is an exact brute-force scan.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string]domain.Chunk),
	}
}

// UpsertChunks inserts or replaces chunks keyed by ID.
func (s *ChunkStore) UpsertChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

// ReplaceDocumentChunks swaps a document's chunks under one lock.
func (s *ChunkStore) ReplaceDocumentChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(documentID)
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

// Nearest returns the k chunks closest to vector by squared L2 distance.
func (s *ChunkStore) Nearest(
	_ context.Context, vector []float32, k int, filter domain.ChunkFilter,
) ([]domain.RetrievalCandidate, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	candidates := make([]domain.RetrievalCandidate, 0, len(s.chunks))
	for _, c := range s.chunks {
		if filter.Topic != "" && c.Topic != filter.Topic {
			continue
		}
		candidates = append(candidates, domain.RetrievalCandidate{
			Chunk:    c,
			Distance: domain.SquaredL2(vector, c.Embedding),
		})
	}
	s.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Chunk.ID < candidates[j].Chunk.ID
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// DeleteByDocument removes every chunk of a document.
func (s *ChunkStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(documentID)
	return nil
}

func (s *ChunkStore) deleteLocked(documentID string) {
	for id, c := range s.chunks {
		if c.DocumentID == documentID {
			delete(s.chunks, id)
		}
	}
}

// GetChunks returns a document's chunks ordered by position.
func (s *ChunkStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}
