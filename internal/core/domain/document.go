package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document represents a case in the research corpus.
// It is the parent of the chunks produced at ingestion time.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the case name used when citing it.
	Title string

	// URL is where the decision was published, if known.
	URL string

	// Topic is the legal topic label used for retrieval filtering.
	Topic string

	// Summary is an optional short description of the case.
	Summary string

	// Content is the full text of the decision before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// Chunk is an embedded passage of a document.
// Chunks are immutable once stored and are removed with their parent.
type Chunk struct {
	// ID is derived from the document ID and ordinal, see ChunkID.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Topic is copied from the parent document for filtering.
	Topic string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document, starting at 0.
	Position int

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs
	// (position, total_chunks, chars, and citation fields).
	Metadata map[string]any
}

// Chunk metadata keys.
const (
	MetaPosition    = "position"
	MetaTotalChunks = "total_chunks"
	MetaChars       = "chars"
	MetaUnit        = "unit"
	MetaTitle       = "title"
	MetaURL         = "url"
	MetaCitation    = "citation"
)

// ChunkID returns the deterministic chunk identifier for a document ordinal.
// Re-processing a document therefore replaces its chunks instead of adding to them.
func ChunkID(documentID string, position int) string {
	return documentID + ":" + strconv.Itoa(position)
}

// ParseChunkID splits a chunk identifier into document ID and ordinal.
func ParseChunkID(id string) (string, int, error) {
	i := strings.LastIndex(id, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: chunk id %q", ErrInvalidInput, id)
	}
	pos, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: chunk id %q", ErrInvalidInput, id)
	}
	return id[:i], pos, nil
}

// MetaString returns a string metadata value or "".
func (c *Chunk) MetaString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	s, _ := c.Metadata[key].(string)
	return s
}

// ChunkUnit is the unit chunk size and overlap are measured in.
type ChunkUnit string

// Supported chunk units.
const (
	ChunkUnitCharacters ChunkUnit = "characters"
	ChunkUnitWords      ChunkUnit = "words"
	ChunkUnitSentences  ChunkUnit = "sentences"
)

// IsValid returns true if the unit is recognised.
func (u ChunkUnit) IsValid() bool {
	switch u {
	case ChunkUnitCharacters, ChunkUnitWords, ChunkUnitSentences:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (u ChunkUnit) String() string {
	return string(u)
}

// ChunkOptions controls how a document is split.
type ChunkOptions struct {
	// Size is the number of units per chunk.
	Size int

	// Overlap is the number of units shared by adjacent chunks.
	Overlap int

	// Unit defaults to characters when empty.
	Unit ChunkUnit
}

// Validate checks the size/overlap invariant.
func (o ChunkOptions) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidChunkConfig, o.Size)
	}
	if o.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidChunkConfig, o.Overlap)
	}
	if o.Overlap >= o.Size {
		return fmt.Errorf("%w: overlap %d must be less than size %d", ErrInvalidChunkConfig, o.Overlap, o.Size)
	}
	if o.Unit != "" && !o.Unit.IsValid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidChunkConfig, o.Unit)
	}
	return nil
}
