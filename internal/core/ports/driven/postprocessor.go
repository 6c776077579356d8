package driven

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// PostProcessor is one ingest stage. The first stage receives nil and
// splits the case into passages; later stages rewrite the passages they
// are given, for example to attach citation metadata.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs every stage over a case and returns the
// passages the last stage produced.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// PipelineBuilder assembles the ingest stages for a chunking configuration.
type PipelineBuilder interface {
	// Build fails with domain.ErrInvalidChunkConfig when opts are unusable.
	Build(opts domain.ChunkOptions) (PostProcessorPipeline, error)
}
