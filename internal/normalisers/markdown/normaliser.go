// Package markdown provides a Normaliser for Markdown case notes.
// The document is parsed with goldmark and its text is read off the AST,
// so emphasis, links and list markers do not reach the embeddings.
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser with GitHub-flavoured extensions.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts Markdown to plain text. The first level-one heading
// is the title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := raw.Content
	root := n.md.Parser().Parse(text.NewReader(source))
	title, content := extract(root, source)

	doc := normalisers.NewDocument(raw, title, content, "markdown")
	return &driven.NormaliseResult{Document: doc}, nil
}

// extract walks the AST and returns the first H1 and the document text,
// one line per block.
func extract(root ast.Node, source []byte) (string, string) {
	var (
		b     strings.Builder
		title string
	)

	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch {
			case node.Kind() == extast.KindTableCell:
				b.WriteByte(' ')
			case node.Type() == ast.TypeBlock && node.Kind() != ast.KindDocument:
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			if n.Level == 1 && title == "" {
				title = inlineText(n, source)
			}
		case *ast.Text:
			b.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(n.Value)
		case *ast.AutoLink:
			b.Write(n.Label(source))
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			writeLines(&b, node, source)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return title, normalisers.CleanLines(b.String())
}

func inlineText(node ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func writeLines(b *strings.Builder, node ast.Node, source []byte) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
}
