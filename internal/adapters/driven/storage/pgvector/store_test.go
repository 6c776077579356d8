package pgvector

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// offlineStore builds queries without connecting; sql.OpenDB is lazy.
func offlineStore(t *testing.T, dims int) *Store {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN("postgres://caselaw@127.0.0.1:1/caselaw?sslmode=disable")))
	s := New(sqldb, dims)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNearestQuery(t *testing.T) {
	s := offlineStore(t, 3)
	var dest []chunkModel

	sqlText := nearestQuery(s.db, &dest, []float32{1, 0, 0.5}, 4, domain.ChunkFilter{}).String()
	assert.Contains(t, sqlText, `c.embedding <-> '[1,0,0.5]' AS distance`)
	assert.Contains(t, sqlText, "ORDER BY distance ASC, c.id ASC")
	assert.Contains(t, sqlText, "LIMIT 4")
	assert.NotContains(t, sqlText, "WHERE")

	sqlText = nearestQuery(s.db, &dest, []float32{1}, 2, domain.ChunkFilter{Topic: "Tort Law"}).String()
	assert.Contains(t, sqlText, `WHERE (c.topic = 'Tort Law')`)
}

func TestUpsertQuery(t *testing.T) {
	s := offlineStore(t, 0)
	chunks := []domain.Chunk{storetest.Chunk("doc", "Tort Law", 0, 0.25, 1)}

	sqlText := upsertQuery(s.db, toChunkModels(chunks)).String()
	assert.Contains(t, sqlText, `INSERT INTO "caselaw_chunks"`)
	assert.Contains(t, sqlText, `'[0.25,1]'`)
	assert.Contains(t, sqlText, "ON CONFLICT (id) DO UPDATE")
	assert.Contains(t, sqlText, "embedding = EXCLUDED.embedding")
	assert.NotContains(t, sqlText, `"distance"`)
}

func TestSchema(t *testing.T) {
	sized := strings.Join(offlineStore(t, 768).schema(), "\n")
	assert.Contains(t, sized, "CREATE EXTENSION IF NOT EXISTS vector")
	assert.Contains(t, sized, "embedding vector(768)")
	assert.Contains(t, sized, "USING hnsw (embedding vector_l2_ops)")

	unsized := strings.Join(offlineStore(t, 0).schema(), "\n")
	assert.Contains(t, unsized, "embedding vector,")
	assert.NotContains(t, unsized, "hnsw")
}

func TestModelMapping(t *testing.T) {
	c := storetest.Chunk("doc", "Tort Law", 2, 0.5, -1)
	models := toChunkModels([]domain.Chunk{c})
	require.Len(t, models, 1)
	back := models[0].toDomain()
	assert.Equal(t, c.ID, back.ID)
	assert.Equal(t, c.Embedding, back.Embedding)
	assert.Equal(t, c.Position, back.Position)
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

// liveStore connects to CASELAW_TEST_DATABASE_URL and resets the tables.
func liveStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("CASELAW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CASELAW_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, "TRUNCATE caselaw_chunks, caselaw_documents")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestChunkStore_Contract(t *testing.T) {
	storetest.RunChunkStore(t, func(t *testing.T) driven.ChunkStore {
		return liveStore(t).ChunkStore()
	})
}

func TestDocumentStore_Contract(t *testing.T) {
	storetest.RunDocumentStore(t, func(t *testing.T) driven.DocumentStore {
		return liveStore(t).DocumentStore()
	})
}
