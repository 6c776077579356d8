// Package storetest holds behaviour checks shared by every storage backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Chunk builds a chunk with a deterministic ID for documentID at position.
func Chunk(documentID, topic string, position int, vec ...float32) domain.Chunk {
	return domain.Chunk{
		ID:         domain.ChunkID(documentID, position),
		DocumentID: documentID,
		Topic:      topic,
		Content:    fmt.Sprintf("%s passage %d", documentID, position),
		Position:   position,
		Embedding:  vec,
		Metadata:   map[string]any{domain.MetaTitle: documentID},
	}
}

// RunChunkStore exercises the driven.ChunkStore contract against a fresh store
// returned by open for each subtest.
func RunChunkStore(t *testing.T, open func(t *testing.T) driven.ChunkStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("nearest orders by distance", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
			Chunk("far", "Tort Law", 0, 1, 0, 0),
			Chunk("near", "Tort Law", 0, 0, 0.1, 0),
			Chunk("mid", "Tort Law", 0, 0, 0.5, 0.5),
		}))

		got, err := s.Nearest(ctx, []float32{0, 0, 0}, 3, domain.ChunkFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "near:0", got[0].Chunk.ID)
		assert.Equal(t, "mid:0", got[1].Chunk.ID)
		assert.Equal(t, "far:0", got[2].Chunk.ID)
		assert.InDelta(t, 0.01, got[0].Distance, 1e-4)
		assert.InDelta(t, 1.0, got[2].Distance, 1e-4)
	})

	t.Run("nearest respects k", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
			Chunk("a", "", 0, 0, 1),
			Chunk("a", "", 1, 0, 2),
			Chunk("a", "", 2, 0, 3),
		}))

		got, err := s.Nearest(ctx, []float32{0, 0}, 2, domain.ChunkFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = s.Nearest(ctx, []float32{0, 0}, 10, domain.ChunkFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("ties break by chunk id", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
			Chunk("b", "", 0, 0, 1),
			Chunk("a", "", 0, 1, 0),
		}))

		got, err := s.Nearest(ctx, []float32{0, 0}, 2, domain.ChunkFilter{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a:0", got[0].Chunk.ID)
		assert.Equal(t, "b:0", got[1].Chunk.ID)
	})

	t.Run("topic filter", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
			Chunk("lease", "Commercial Tenancy", 0, 0, 1),
			Chunk("crash", "Tort Law", 0, 0, 0.5),
		}))

		got, err := s.Nearest(ctx, []float32{0, 0}, 5, domain.ChunkFilter{Topic: "Commercial Tenancy"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "lease:0", got[0].Chunk.ID)
		assert.Equal(t, "Commercial Tenancy", got[0].Chunk.Topic)
	})

	t.Run("empty store", func(t *testing.T) {
		s := open(t)
		got, err := s.Nearest(ctx, []float32{1, 0}, 5, domain.ChunkFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("replace document chunks", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
			Chunk("doc", "", 0, 1, 0),
			Chunk("doc", "", 1, 1, 1),
			Chunk("doc", "", 2, 1, 2),
			Chunk("other", "", 0, 5, 5),
		}))

		require.NoError(t, s.ReplaceDocumentChunks(ctx, "doc", []domain.Chunk{
			Chunk("doc", "", 0, 2, 0),
		}))

		chunks, err := s.GetChunks(ctx, "doc")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "doc:0", chunks[0].ID)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("get chunks ordered by position", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
			Chunk("doc", "", 2, 1),
			Chunk("doc", "", 0, 1),
			Chunk("doc", "", 1, 1),
		}))

		chunks, err := s.GetChunks(ctx, "doc")
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for i, c := range chunks {
			assert.Equal(t, i, c.Position)
			assert.Equal(t, "doc", c.DocumentID)
			assert.Equal(t, fmt.Sprintf("doc passage %d", i), c.Content)
		}
		assert.Equal(t, "doc", chunks[0].MetaString(domain.MetaTitle))
	})

	t.Run("delete by document", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{
			Chunk("doc", "", 0, 1),
			Chunk("doc", "", 1, 1),
			Chunk("keep", "", 0, 1),
		}))

		require.NoError(t, s.DeleteByDocument(ctx, "doc"))
		require.NoError(t, s.DeleteByDocument(ctx, "missing"))

		chunks, err := s.GetChunks(ctx, "doc")
		require.NoError(t, err)
		assert.Empty(t, chunks)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		s := open(t)
		c := Chunk("doc", "", 0, 1, 1)
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{c}))
		c.Content = "revised"
		require.NoError(t, s.UpsertChunks(ctx, []domain.Chunk{c}))

		chunks, err := s.GetChunks(ctx, "doc")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "revised", chunks[0].Content)
	})
}

// RunDocumentStore exercises the driven.DocumentStore contract.
func RunDocumentStore(t *testing.T, open func(t *testing.T) driven.DocumentStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("save and get", func(t *testing.T) {
		s := open(t)
		doc := &domain.Document{
			ID:        "2023 WASAT 12",
			Title:     "Smith v Jones",
			URL:       "https://example.org/2023-wasat-12",
			Topic:     "Commercial Tenancy",
			Content:   "The tribunal held the lease was terminated.",
			Metadata:  map[string]any{domain.MetaCitation: "[2023] WASAT 12"},
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, s.SaveDocument(ctx, doc))

		got, err := s.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.Title, got.Title)
		assert.Equal(t, doc.URL, got.URL)
		assert.Equal(t, doc.Topic, got.Topic)
		assert.Equal(t, doc.Content, got.Content)
		assert.Equal(t, "[2023] WASAT 12", got.Metadata[domain.MetaCitation])
		assert.True(t, now.Equal(got.CreatedAt))
	})

	t.Run("save overwrites", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "d", Title: "Old"}))
		require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "d", Title: "New"}))

		got, err := s.GetDocument(ctx, "d")
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
	})

	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		_, err := s.GetDocument(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list by topic", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "a", Topic: "Tort Law"}))
		require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "b", Topic: "Contract Law"}))
		require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "c", Topic: "Tort Law"}))

		all, err := s.ListDocuments(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		torts, err := s.ListDocuments(ctx, "Tort Law")
		require.NoError(t, err)
		assert.Len(t, torts, 2)
		for _, d := range torts {
			assert.Equal(t, "Tort Law", d.Topic)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "d"}))
		require.NoError(t, s.DeleteDocument(ctx, "d"))

		_, err := s.GetDocument(ctx, "d")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// RunConversationStore exercises the driven.ConversationStore contract.
func RunConversationStore(t *testing.T, open func(t *testing.T) driven.ConversationStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("append preserves order", func(t *testing.T) {
		s := open(t)
		at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, s.AppendTurn(ctx, "c1", domain.Turn{Role: domain.RoleUser, Content: "q", CreatedAt: at}))
		require.NoError(t, s.AppendTurn(ctx, "c1", domain.Turn{
			Role:      domain.RoleAssistant,
			Content:   "a",
			CreatedAt: at.Add(time.Second),
			Sources:   []domain.Source{{Number: 1, ChunkID: "d:0", DocumentID: "d", Title: "Smith v Jones"}},
		}))
		require.NoError(t, s.AppendTurn(ctx, "c2", domain.Turn{Role: domain.RoleUser, Content: "other"}))

		turns, err := s.LoadTurns(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, domain.RoleUser, turns[0].Role)
		assert.Equal(t, "a", turns[1].Content)
		require.Len(t, turns[1].Sources, 1)
		assert.Equal(t, "Smith v Jones", turns[1].Sources[0].Title)
	})

	t.Run("unknown conversation is empty", func(t *testing.T) {
		s := open(t)
		turns, err := s.LoadTurns(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("concurrent appends", func(t *testing.T) {
		s := open(t)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.AppendTurn(ctx, "c", domain.Turn{Role: domain.RoleUser, Content: fmt.Sprint(i)}))
			}(i)
		}
		wg.Wait()

		turns, err := s.LoadTurns(ctx, "c")
		require.NoError(t, err)
		assert.Len(t, turns, 10)
	})
}
