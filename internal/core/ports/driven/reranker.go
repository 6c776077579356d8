package driven

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// Reranker re-scores retrieval candidates against the query.
// Output is sorted by score descending with ties kept in input order,
// and never has more entries than candidates.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.RetrievalCandidate) ([]domain.RankedResult, error)

	// Name identifies the reranker in logs.
	Name() string
}
