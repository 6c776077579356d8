// Package chunker provides an overlapping window chunking processor.
package chunker

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// DefaultChunkSize is the default number of units per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping units.
const DefaultChunkOverlap = 100

// sentencePattern matches a run of text ending in sentence punctuation.
var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Processor splits document content into overlapping windows.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	unit      domain.ChunkUnit
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the number of units per chunk.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the number of units shared by adjacent chunks.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithUnit sets the unit size and overlap are measured in.
func WithUnit(unit domain.ChunkUnit) Option {
	return func(p *Processor) {
		if unit != "" {
			p.unit = unit
		}
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrInvalidChunkConfig when overlap is not less than size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		unit:      domain.ChunkUnitCharacters,
	}

	for _, opt := range opts {
		opt(p)
	}

	cfg := domain.ChunkOptions{Size: p.chunkSize, Overlap: p.overlap, Unit: p.unit}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Chunk IDs are derived from the document ID and position, so the same
// document and options always produce the same IDs.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	units, sep := p.split(doc.Content)
	windows := Windows(len(units), p.chunkSize, p.overlap)
	chunks := make([]domain.Chunk, 0, len(windows))

	for position, w := range windows {
		content := strings.Join(units[w[0]:w[1]], sep)
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Topic:      doc.Topic,
			Content:    content,
			Position:   position,
			Metadata: map[string]any{
				domain.MetaPosition: position,
				domain.MetaChars:    len([]rune(content)),
				domain.MetaUnit:     p.unit.String(),
			},
		})
	}

	return chunks, nil
}

// split breaks content into units and returns the separator used to rejoin them.
func (p *Processor) split(content string) ([]string, string) {
	switch p.unit {
	case domain.ChunkUnitWords:
		return strings.Fields(content), " "
	case domain.ChunkUnitSentences:
		return Sentences(content), " "
	default:
		runes := []rune(content)
		units := make([]string, len(runes))
		for i, r := range runes {
			units[i] = string(r)
		}
		return units, ""
	}
}

// Sentences splits text into trimmed sentences. Trailing text without
// closing punctuation is kept as a final sentence.
func Sentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// Windows returns [start, end) unit ranges for n units.
// Each window has size units except possibly the last, adjacent windows
// share overlap units, and the last window always ends at n.
func Windows(n, size, overlap int) [][2]int {
	if n == 0 || size <= 0 || overlap >= size {
		return nil
	}
	var out [][2]int
	for start := 0; ; start += size - overlap {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
		if end == n {
			return out
		}
	}
}
