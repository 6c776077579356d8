package driven

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// ChunkStore persists embedded chunks and answers nearest-neighbour queries.
type ChunkStore interface {
	// UpsertChunks inserts or replaces chunks keyed by chunk ID.
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// ReplaceDocumentChunks removes every stored chunk of documentID and
	// stores chunks in its place. Implementations make this atomic where the
	// backend allows it.
	ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// Nearest returns up to k chunks ordered by squared L2 distance to vector
	// ascending, ties broken by chunk ID ascending.
	Nearest(ctx context.Context, vector []float32, k int, filter domain.ChunkFilter) ([]domain.RetrievalCandidate, error)

	// DeleteByDocument removes every chunk of a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// GetChunks returns a document's chunks ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}
