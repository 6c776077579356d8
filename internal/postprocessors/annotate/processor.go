// Package annotate copies document level metadata onto chunks.
package annotate

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// Processor stamps each chunk with the chunk count and the document's
// title, URL and citation, so sources can be rendered from a chunk alone.
type Processor struct{}

// New creates an annotation processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "annotate"
}

// Process annotates chunks in place and returns them.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any)
		}
		chunks[i].Metadata[domain.MetaTotalChunks] = len(chunks)
		if doc.Title != "" {
			chunks[i].Metadata[domain.MetaTitle] = doc.Title
		}
		if doc.URL != "" {
			chunks[i].Metadata[domain.MetaURL] = doc.URL
		}
		if citation, ok := doc.Metadata[domain.MetaCitation].(string); ok && citation != "" {
			chunks[i].Metadata[domain.MetaCitation] = citation
		}
		if chunks[i].Topic == "" {
			chunks[i].Topic = doc.Topic
		}
	}
	return chunks, nil
}
