package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func candidate(id, content string, distance float64) domain.RetrievalCandidate {
	return domain.RetrievalCandidate{Chunk: domain.Chunk{ID: id, Content: content}, Distance: distance}
}

func TestReranker_Rerank(t *testing.T) {
	r := New()
	assert.Equal(t, "lexical", r.Name())

	candidates := []domain.RetrievalCandidate{
		candidate("a", "The tribunal discussed strata levies.", 0.1),
		candidate("b", "The security bond was withheld by the landlord.", 0.4),
		candidate("c", "Bond refund ordered after landlord failed to lodge a claim.", 0.9),
	}

	ranked, err := r.Rerank(context.Background(), "landlord withheld bond", candidates)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "b", ranked[0].Chunk.ID)
	assert.Equal(t, "c", ranked[1].Chunk.ID)
	assert.Equal(t, "a", ranked[2].Chunk.ID)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	assert.InDelta(t, domain.DistanceScore(0.4), ranked[0].Similarity, 1e-9)
	assert.InDelta(t, domain.DistanceScore(0.1), ranked[2].Similarity, 1e-9)
}

func TestReranker_TiesKeepVectorOrder(t *testing.T) {
	candidates := []domain.RetrievalCandidate{
		candidate("near", "unrelated", 0.1),
		candidate("far", "unrelated", 0.8),
	}
	ranked, err := New().Rerank(context.Background(), "bond", candidates)
	require.NoError(t, err)
	assert.Equal(t, "near", ranked[0].Chunk.ID)
	assert.Equal(t, "far", ranked[1].Chunk.ID)
}

func TestReranker_Empty(t *testing.T) {
	ranked, err := New().Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestReranker_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Rerank(ctx, "q", []domain.RetrievalCandidate{candidate("a", "x", 0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTerms(t *testing.T) {
	terms := Terms("The Landlord's bond, a [2023] WASAT 12 claim.")
	for _, want := range []string{"the", "landlord", "bond", "2023", "wasat", "12", "claim"} {
		assert.Contains(t, terms, want)
	}
	assert.NotContains(t, terms, "a")
	assert.NotContains(t, terms, "s")
}
