package chromem

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	return s
}

func TestStore_UpsertAndGetChunks(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
		storetest.Chunk("doc-1", "Contract Law", 1, 0, 1),
		storetest.Chunk("doc-1", "Contract Law", 0, 1, 0),
		storetest.Chunk("doc-2", "Tort Law", 0, 0, 1),
	}))

	got, err := s.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doc-1:0", got[0].ID)
	assert.Equal(t, "doc-1:1", got[1].ID)
	assert.Equal(t, "Contract Law", got[0].Topic)
	assert.Equal(t, "doc-1", got[0].Metadata[domain.MetaTitle])

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_Nearest_UnitVectors(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	diag := float32(1 / math.Sqrt2)
	require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
		storetest.Chunk("a", "Contract Law", 0, 1, 0),
		storetest.Chunk("b", "Contract Law", 0, diag, diag),
		storetest.Chunk("c", "Tort Law", 0, 0, 1),
	}))

	got, err := s.Nearest(ctx, []float32{1, 0}, 10, domain.ChunkFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a:0", got[0].Chunk.ID)
	assert.Equal(t, "b:0", got[1].Chunk.ID)
	assert.Equal(t, "c:0", got[2].Chunk.ID)

	// Squared L2 between unit vectors.
	assert.InDelta(t, 0, got[0].Distance, 1e-5)
	assert.InDelta(t, 2-math.Sqrt2, got[1].Distance, 1e-5)
	assert.InDelta(t, 2, got[2].Distance, 1e-5)
}

func TestStore_Nearest_TopicFilterAndLimit(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
		storetest.Chunk("a", "Contract Law", 0, 1, 0),
		storetest.Chunk("b", "Contract Law", 0, 0, 1),
		storetest.Chunk("c", "Tort Law", 0, 1, 0),
	}))

	got, err := s.Nearest(ctx, []float32{1, 0}, 10, domain.ChunkFilter{Topic: "Contract Law"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, "Contract Law", c.Chunk.Topic)
	}

	got, err = s.Nearest(ctx, []float32{1, 0}, 1, domain.ChunkFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = s.Nearest(ctx, []float32{1, 0}, 5, domain.ChunkFilter{Topic: "Property Law"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Nearest_TiesByID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
		storetest.Chunk("z", "", 0, 0, 1),
		storetest.Chunk("m", "", 0, 0, 1),
		storetest.Chunk("a", "", 0, 0, 1),
	}))

	got, err := s.Nearest(ctx, []float32{0, 1}, 3, domain.ChunkFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a:0", got[0].Chunk.ID)
	assert.Equal(t, "m:0", got[1].Chunk.ID)
	assert.Equal(t, "z:0", got[2].Chunk.ID)
}

func TestStore_Nearest_TiesAtLimitPickLowestIDs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	ids := []string{"t", "k", "x", "b", "q", "e", "w", "c"}
	chunks := []domain.Chunk{storetest.Chunk("far", "", 0, 1, 0)}
	for _, id := range ids {
		chunks = append(chunks, storetest.Chunk(id, "", 0, 0, 1))
	}
	require.NoError(t, s.UpsertChunks(ctx, chunks))

	for range 5 {
		got, err := s.Nearest(ctx, []float32{0, 1}, 2, domain.ChunkFilter{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "b:0", got[0].Chunk.ID)
		assert.Equal(t, "c:0", got[1].Chunk.ID)
	}
}

func TestStore_Nearest_EmptyStore(t *testing.T) {
	s := newStore(t)
	got, err := s.Nearest(context.Background(), []float32{1, 0}, 5, domain.ChunkFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Nearest(context.Background(), []float32{1, 0}, 0, domain.ChunkFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ReplaceDocumentChunks(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
		storetest.Chunk("doc", "", 0, 1, 0),
		storetest.Chunk("doc", "", 1, 1, 0),
		storetest.Chunk("doc", "", 2, 1, 0),
		storetest.Chunk("other", "", 0, 0, 1),
	}))

	require.NoError(t, s.ReplaceDocumentChunks(ctx, "doc", []domain.Chunk{
		storetest.Chunk("doc", "", 0, 0, 1),
	}))

	got, err := s.GetChunks(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, got, 1)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.ReplaceDocumentChunks(ctx, "doc", nil))
	got, err = s.GetChunks(ctx, "doc")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
		storetest.Chunk("doc", "", 0, 1, 0),
		storetest.Chunk("other", "", 0, 0, 1),
	}))
	require.NoError(t, s.DeleteByDocument(ctx, "doc"))
	require.NoError(t, s.DeleteByDocument(ctx, "missing"))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{storetest.Chunk("doc", "Tort Law", 0, 1, 0)}))

	reopened, err := Open(dir)
	require.NoError(t, err)
	got, err := reopened.GetChunks(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tort Law", got[0].Topic)
}

func TestCosineToSquaredL2(t *testing.T) {
	assert.InDelta(t, 0, CosineToSquaredL2(1), 1e-9)
	assert.InDelta(t, 2, CosineToSquaredL2(0), 1e-9)
	assert.InDelta(t, 4, CosineToSquaredL2(-1), 1e-9)
	assert.Equal(t, 0.0, CosineToSquaredL2(1.0000001))
}
