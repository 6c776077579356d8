package driving

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// IngestService splits, embeds and stores case documents.
type IngestService interface {
	// ProcessDocument replaces the document's chunks and returns their IDs in order.
	// Re-processing with the same options yields the same IDs.
	ProcessDocument(ctx context.Context, doc domain.Document, opts domain.ChunkOptions) ([]string, error)

	// RemoveDocument deletes a document and its chunks.
	RemoveDocument(ctx context.Context, documentID string) error
}
