package driven

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// NormaliserRegistry dispatches a case file to the best Normaliser for
// its MIME type.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
	Register(normaliser Normaliser)

	// SupportedMIMETypes lists every MIME type some normaliser accepts.
	SupportedMIMETypes() []string
}
