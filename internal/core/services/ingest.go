package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService splits case documents into chunks, embeds them and stores them.
type IngestService struct {
	engine    *EmbeddingEngine
	docStore  driven.DocumentStore
	chunks    driven.ChunkStore
	pipelines driven.PipelineBuilder
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	engine *EmbeddingEngine,
	docStore driven.DocumentStore,
	chunks driven.ChunkStore,
	pipelines driven.PipelineBuilder,
) *IngestService {
	return &IngestService{
		engine:    engine,
		docStore:  docStore,
		chunks:    chunks,
		pipelines: pipelines,
	}
}

// ProcessDocument chunks, embeds and stores doc, replacing any chunks a
// previous run stored for it. All chunks are embedded before anything is
// written, so an embedding failure leaves storage untouched. Chunks are
// stored before the document record; if either write fails the previous
// run's chunks are restored and the error is a *domain.PartialIngestFailure.
func (s *IngestService) ProcessDocument(
	ctx context.Context, doc domain.Document, opts domain.ChunkOptions,
) ([]string, error) {
	logger.Section("Ingest")
	logger.Debug("Document: %s (%q), size=%d overlap=%d unit=%s",
		doc.ID, doc.Title, opts.Size, opts.Overlap, opts.Unit)

	if strings.TrimSpace(doc.ID) == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	pipeline, err := s.pipelines.Build(opts)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	chunks, err := pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("split document %s: %w", doc.ID, err)
	}
	logger.Debug("Split %s into %d chunks", doc.ID, len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vecs, err := s.engine.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks of %s: %w", doc.ID, err)
	}

	ids := make([]string, len(chunks))
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
		ids[i] = chunks[i].ID
	}

	now := time.Now()
	if existing, err := s.docStore.GetDocument(ctx, doc.ID); err == nil {
		doc.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load document %s: %w", doc.ID, err)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	previous, err := s.chunks.GetChunks(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("load chunks of %s: %w", doc.ID, err)
	}

	if err := s.chunks.ReplaceDocumentChunks(ctx, doc.ID, chunks); err != nil {
		return nil, s.rollback(doc.ID, previous, err)
	}
	if err := s.docStore.SaveDocument(ctx, &doc); err != nil {
		return nil, s.rollback(doc.ID, previous, fmt.Errorf("save document %s: %w", doc.ID, err))
	}

	logger.Info("Ingested %s: %d chunks", doc.ID, len(ids))
	return ids, nil
}

// rollback puts back the chunks stored before this run, dropping anything
// the run wrote. It runs on a fresh context so a cancelled request can
// still clean up.
func (s *IngestService) rollback(docID string, previous []domain.Chunk, cause error) error {
	logger.Warn("Storing %s failed, restoring %d previous chunks: %v", docID, len(previous), cause)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failure := &domain.PartialIngestFailure{DocumentID: docID, Err: cause}
	err := s.chunks.DeleteByDocument(ctx, docID)
	if err == nil && len(previous) > 0 {
		err = s.chunks.UpsertChunks(ctx, previous)
	}
	if err != nil {
		logger.Warn("Rollback of %s failed: %v", docID, err)
		if stored, getErr := s.chunks.GetChunks(ctx, docID); getErr == nil {
			for _, c := range stored {
				failure.Succeeded = append(failure.Succeeded, c.ID)
			}
		}
		return failure
	}
	failure.RolledBack = true
	return failure
}

// RemoveDocument deletes a document and every chunk derived from it.
func (s *IngestService) RemoveDocument(ctx context.Context, documentID string) error {
	logger.Section("Remove")
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return fmt.Errorf("get document %s: %w", documentID, err)
	}
	if err := s.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete chunks of %s: %w", documentID, err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	logger.Info("Removed %s", documentID)
	return nil
}
