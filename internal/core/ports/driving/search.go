package driving

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// RetrievalService finds grounding passages for a query.
type RetrievalService interface {
	// Retrieve returns up to topK candidates by ascending L2 distance.
	Retrieve(ctx context.Context, query string, topK int, topic string) ([]domain.RetrievalCandidate, error)

	// Search runs retrieval and, when configured, reranking.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RankedResult, error)
}
