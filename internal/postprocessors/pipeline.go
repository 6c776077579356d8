// Package postprocessors turns ingested documents into chunks ready for embedding.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order. The first stage creates chunks from
// the document text; later stages rewrite or annotate them.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline from stages in execution order.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks doc. A document that yields no chunks returns nil
// without running the remaining stages. Every chunk must belong to doc.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil: %w", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
		if len(out) == 0 {
			logger.Debug("Processor %s produced no chunks for %s", stage.Name(), doc.ID)
			return nil, nil
		}
		for _, c := range out {
			if c.DocumentID != doc.ID {
				return nil, fmt.Errorf("processor %s: chunk %s belongs to %q, not %q",
					stage.Name(), c.ID, c.DocumentID, doc.ID)
			}
		}
		logger.Debug("Processor %s: %d chunks for %s", stage.Name(), len(out), doc.ID)
		chunks = out
	}
	return chunks, nil
}

// Stages returns the processor names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
