// Package pdf provides a Normaliser for PDF decisions using ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/logger"
	"github.com/custodia-labs/caselaw/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MetaPages records the page count of a PDF.
const MetaPages = "pages"

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 60
}

// Normalise extracts the text of every page, separated by blank lines.
// Pages whose text cannot be decoded are skipped; a file with no
// readable text is an error.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, raw.URI, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("Skipping page %d of %s: %v", i, raw.URI, err)
			continue
		}
		if text = normalisers.CleanLines(text); text != "" {
			pages = append(pages, text)
		}
	}

	content := strings.Join(pages, "\n\n")
	if content == "" {
		return nil, fmt.Errorf("%w: %s has no extractable text", domain.ErrInvalidInput, raw.URI)
	}

	doc := normalisers.NewDocument(raw, infoTitle(reader), content, "pdf")
	doc.Metadata[MetaPages] = numPages

	return &driven.NormaliseResult{Document: doc}, nil
}

// infoTitle reads the Title entry of the document information dictionary.
func infoTitle(r *pdf.Reader) string {
	title := r.Trailer().Key("Info").Key("Title")
	if title.IsNull() {
		return ""
	}
	return strings.TrimSpace(title.Text())
}
