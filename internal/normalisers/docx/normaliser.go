// Package docx provides a Normaliser for Word decisions.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads the body text, one line per paragraph. The title comes
// from the core properties when the author set one.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r, err := docx.ReadDocxFromMemory(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, raw.URI, err)
	}
	defer r.Close()

	content, err := parseDocumentXML(r.Editable().GetContent())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, raw.URI, err)
	}

	doc := normalisers.NewDocument(raw, coreTitle(raw.Content), content, "docx")
	return &driven.NormaliseResult{Document: doc}, nil
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []struct {
			Rows []struct {
				Cells []struct {
					Paragraphs []paragraph `xml:"p"`
				} `xml:"tc"`
			} `xml:"tr"`
		} `xml:"tbl"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
		Tabs []struct{} `xml:"tab"`
	} `xml:"r"`
}

func (p paragraph) text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
		if len(r.Tabs) > 0 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// parseDocumentXML returns body paragraphs, then table rows with cells
// joined by spaces.
func parseDocumentXML(content string) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return "", err
	}

	var lines []string
	for _, p := range doc.Body.Paragraphs {
		lines = append(lines, p.text())
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			var cells []string
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs {
					cells = append(cells, p.text())
				}
			}
			lines = append(lines, strings.Join(cells, " "))
		}
	}
	return normalisers.CleanLines(strings.Join(lines, "\n")), nil
}

// coreTitle reads dc:title from docProps/core.xml, which the docx library
// does not expose.
func coreTitle(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ""
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return ""
		}
		var core struct {
			Title string `xml:"title"`
		}
		if xml.Unmarshal(body, &core) != nil {
			return ""
		}
		return strings.TrimSpace(core.Title)
	}
	return ""
}
