package driving

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// DocumentService gives read access to the ingested corpus.
type DocumentService interface {
	// List returns documents, optionally restricted to a topic.
	List(ctx context.Context, topic string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns a document's stored chunks in position order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ChunkCount returns the number of stored chunks across all documents.
	ChunkCount(ctx context.Context) (int, error)
}
