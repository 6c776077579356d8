// Package lexical provides a term-overlap reranker that needs no network.
package lexical

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Reranker scores a passage by the fraction of distinct query terms it
// contains. The distance score breaks ties so equally matching passages
// keep their vector order.
type Reranker struct{}

// New creates a lexical reranker.
func New() *Reranker {
	return &Reranker{}
}

// Name identifies the reranker in logs.
func (r *Reranker) Name() string {
	return "lexical"
}

// Rerank scores candidates against the query.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []domain.RetrievalCandidate) ([]domain.RankedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	queryTerms := Terms(query)
	results := make([]domain.RankedResult, len(candidates))
	for i, c := range candidates {
		overlap := 0.0
		if len(queryTerms) > 0 {
			docTerms := Terms(c.Chunk.Content)
			matches := 0
			for term := range queryTerms {
				if _, ok := docTerms[term]; ok {
					matches++
				}
			}
			overlap = float64(matches) / float64(len(queryTerms))
		}
		// Overlap dominates; the distance score lies in (0, 1] and is
		// scaled below the smallest possible overlap step.
		tiebreak := domain.DistanceScore(c.Distance) / float64(len(queryTerms)+1) / 2
		results[i] = domain.RankedResult{
			Chunk:      c.Chunk,
			Score:      overlap + tiebreak,
			Similarity: domain.DistanceScore(c.Distance),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// Terms returns the distinct lowercased terms of at least two characters.
func Terms(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		if len([]rune(w)) >= 2 {
			terms[w] = struct{}{}
		}
	}
	return terms
}
