// Package pgvector provides document and chunk stores on PostgreSQL with
// the pgvector extension, using bun as the query builder.
//
// Chunk distances come from the <-> operator, which returns Euclidean
// distance; Nearest squares it so scores match the other backends.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// Config holds connection settings.
type Config struct {
	// DSN is the Postgres connection string.
	DSN string

	// Dimensions fixes the vector column size and enables the HNSW index.
	// Zero leaves the column unsized and unindexed.
	Dimensions int
}

type documentModel struct {
	bun.BaseModel `bun:"table:caselaw_documents,alias:d"`

	ID        string         `bun:"id,pk"`
	Title     string         `bun:"title"`
	URL       string         `bun:"url"`
	Topic     string         `bun:"topic"`
	Summary   string         `bun:"summary"`
	Content   string         `bun:"content"`
	Metadata  map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt time.Time      `bun:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at"`
}

type chunkModel struct {
	bun.BaseModel `bun:"table:caselaw_chunks,alias:c"`

	ID         string          `bun:"id,pk"`
	DocumentID string          `bun:"document_id"`
	Topic      string          `bun:"topic"`
	Content    string          `bun:"content"`
	Position   int             `bun:"position"`
	Embedding  pgvector.Vector `bun:"embedding,type:vector"`
	Metadata   map[string]any  `bun:"metadata,type:jsonb"`
	Distance   float64         `bun:"distance,scanonly"`
}

// Store holds the bun database handle.
type Store struct {
	db         *bun.DB
	dimensions int
}

// Open connects to Postgres and creates the schema if needed.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrStorageUnavailable)
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	s := New(sqldb, cfg.Dimensions)
	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if err := s.Migrate(ctx); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection without touching the schema.
func New(sqldb *sql.DB, dimensions int) *Store {
	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(logger.IsVerbose()),
		bundebug.WithVerbose(true),
		bundebug.WithWriter(logger.Writer()),
	))
	return &Store{db: db, dimensions: dimensions}
}

// Migrate creates the extension, tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) schema() []string {
	vectorType := "vector"
	if s.dimensions > 0 {
		vectorType = fmt.Sprintf("vector(%d)", s.dimensions)
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS caselaw_documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			topic TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS caselaw_documents_topic_idx ON caselaw_documents (topic)`,
		`CREATE TABLE IF NOT EXISTS caselaw_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			position INTEGER NOT NULL,
			embedding ` + vectorType + `,
			metadata JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS caselaw_chunks_document_idx ON caselaw_chunks (document_id, position)`,
		`CREATE INDEX IF NOT EXISTS caselaw_chunks_topic_idx ON caselaw_chunks (topic)`,
	}
	if s.dimensions > 0 {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS caselaw_chunks_embedding_idx ON caselaw_chunks USING hnsw (embedding vector_l2_ops)`)
	}
	return stmts
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DocumentStore returns the document store. Deletes cascade to chunks.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{db: s.db}
}

// ChunkStore returns the chunk store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{db: s.db}
}

// ==================== Document Store ====================

type documentStore struct {
	db *bun.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	m := toDocumentModel(doc)
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("url = EXCLUDED.url").
		Set("topic = EXCLUDED.topic").
		Set("summary = EXCLUDED.summary").
		Set("content = EXCLUDED.content").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var m documentModel
	err := s.db.NewSelect().Model(&m).Where("d.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return m.toDomain(), nil
}

func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*chunkModel)(nil)).Where("document_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
		if _, err := tx.NewDelete().Model((*documentModel)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		return nil
	})
}

func (s *documentStore) ListDocuments(ctx context.Context, topic string) ([]domain.Document, error) {
	var models []documentModel
	q := s.db.NewSelect().Model(&models).Order("d.id")
	if topic != "" {
		q = q.Where("d.topic = ?", topic)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	docs := make([]domain.Document, len(models))
	for i := range models {
		docs[i] = *models[i].toDomain()
	}
	return docs, nil
}

// ==================== Chunk Store ====================

type chunkStore struct {
	db *bun.DB
}

var _ driven.ChunkStore = (*chunkStore)(nil)

func (s *chunkStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if _, err := upsertQuery(s.db, toChunkModels(chunks)).Exec(ctx); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}
	return nil
}

func (s *chunkStore) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*chunkModel)(nil)).Where("document_id = ?", documentID).Exec(ctx); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if _, err := upsertQuery(tx, toChunkModels(chunks)).Exec(ctx); err != nil {
			return fmt.Errorf("saving chunks: %w", err)
		}
		return nil
	})
}

func upsertQuery(db bun.IDB, models []chunkModel) *bun.InsertQuery {
	return db.NewInsert().Model(&models).
		On("CONFLICT (id) DO UPDATE").
		Set("document_id = EXCLUDED.document_id").
		Set("topic = EXCLUDED.topic").
		Set("content = EXCLUDED.content").
		Set("position = EXCLUDED.position").
		Set("embedding = EXCLUDED.embedding").
		Set("metadata = EXCLUDED.metadata")
}

func (s *chunkStore) Nearest(ctx context.Context, vector []float32, k int, filter domain.ChunkFilter) ([]domain.RetrievalCandidate, error) {
	if k <= 0 {
		return nil, nil
	}
	var models []chunkModel
	if err := nearestQuery(s.db, &models, vector, k, filter).Scan(ctx); err != nil {
		return nil, fmt.Errorf("nearest chunks: %w", err)
	}
	out := make([]domain.RetrievalCandidate, len(models))
	for i := range models {
		d := models[i].Distance
		out[i] = domain.RetrievalCandidate{Chunk: models[i].toDomain(), Distance: d * d}
	}
	return out, nil
}

func nearestQuery(db bun.IDB, dest *[]chunkModel, vector []float32, k int, filter domain.ChunkFilter) *bun.SelectQuery {
	q := db.NewSelect().Model(dest).
		ColumnExpr("c.id, c.document_id, c.topic, c.content, c.position, c.embedding, c.metadata").
		ColumnExpr("c.embedding <-> ? AS distance", pgvector.NewVector(vector)).
		OrderExpr("distance ASC, c.id ASC").
		Limit(k)
	if filter.Topic != "" {
		q = q.Where("c.topic = ?", filter.Topic)
	}
	return q
}

func (s *chunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.NewDelete().Model((*chunkModel)(nil)).Where("document_id = ?", documentID).Exec(ctx); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func (s *chunkStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	var models []chunkModel
	err := s.db.NewSelect().Model(&models).
		Where("c.document_id = ?", documentID).
		Order("c.position").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting chunks: %w", err)
	}
	chunks := make([]domain.Chunk, len(models))
	for i := range models {
		chunks[i] = models[i].toDomain()
	}
	return chunks, nil
}

func (s *chunkStore) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*chunkModel)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ==================== Mapping ====================

func toDocumentModel(doc *domain.Document) *documentModel {
	return &documentModel{
		ID:        doc.ID,
		Title:     doc.Title,
		URL:       doc.URL,
		Topic:     doc.Topic,
		Summary:   doc.Summary,
		Content:   doc.Content,
		Metadata:  doc.Metadata,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}

func (m *documentModel) toDomain() *domain.Document {
	return &domain.Document{
		ID:        m.ID,
		Title:     m.Title,
		URL:       m.URL,
		Topic:     m.Topic,
		Summary:   m.Summary,
		Content:   m.Content,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toChunkModels(chunks []domain.Chunk) []chunkModel {
	models := make([]chunkModel, len(chunks))
	for i, c := range chunks {
		models[i] = chunkModel{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			Topic:      c.Topic,
			Content:    c.Content,
			Position:   c.Position,
			Embedding:  pgvector.NewVector(c.Embedding),
			Metadata:   c.Metadata,
		}
	}
	return models
}

func (m *chunkModel) toDomain() domain.Chunk {
	return domain.Chunk{
		ID:         m.ID,
		DocumentID: m.DocumentID,
		Topic:      m.Topic,
		Content:    m.Content,
		Position:   m.Position,
		Embedding:  m.Embedding.Slice(),
		Metadata:   m.Metadata,
	}
}
