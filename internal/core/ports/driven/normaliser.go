package driven

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// Normaliser turns a case file of one or more MIME types into a Document
// with its text in Content.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority ranks normalisers sharing a MIME type; the highest wins.
	// Format readers use 50 to 89, text fallbacks 1 to 9.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the normalised case. Splitting into passages is
// left to the PostProcessor stages.
type NormaliseResult struct {
	Document domain.Document
}
