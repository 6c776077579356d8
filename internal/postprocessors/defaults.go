package postprocessors

import (
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/postprocessors/annotate"
	"github.com/custodia-labs/caselaw/internal/postprocessors/chunker"
)

// RegisterDefaults registers the ingest stages: chunking, then annotation.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", func(opts domain.ChunkOptions) (driven.PostProcessor, error) {
		return chunker.New(
			chunker.WithChunkSize(opts.Size),
			chunker.WithOverlap(opts.Overlap),
			chunker.WithUnit(opts.Unit),
		)
	})
	r.Register("annotate", func(domain.ChunkOptions) (driven.PostProcessor, error) {
		return annotate.New(), nil
	})
}

var _ driven.PipelineBuilder = (*PipelineBuilder)(nil)

// PipelineBuilder builds ingest pipelines from the default stages.
type PipelineBuilder struct {
	registry *Registry
}

// NewPipelineBuilder creates a builder backed by the default stages.
func NewPipelineBuilder() *PipelineBuilder {
	r := NewRegistry()
	RegisterDefaults(r)
	return &PipelineBuilder{registry: r}
}

// Build returns the ingest pipeline for opts.
func (b *PipelineBuilder) Build(opts domain.ChunkOptions) (driven.PostProcessorPipeline, error) {
	return b.registry.Build(opts)
}
