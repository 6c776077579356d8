package driven

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// DocumentStore persists case documents.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document. Implementations that also hold
	// chunks cascade the delete to them.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents, optionally restricted to a topic.
	ListDocuments(ctx context.Context, topic string) ([]domain.Document, error)
}
