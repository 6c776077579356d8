package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

const note = "# Smith and Jones [2023] WASAT 12\n\n" +
	"**Catchwords:** residential tenancy, *bond* refund.\n\n" +
	"## Orders\n\n" +
	"- The application is [dismissed](https://example.org/orders).\n" +
	"- No order as to costs.\n\n" +
	"| Party | Role |\n|---|---|\n| Smith | Applicant |\n\n" +
	"```\nRTA s 75\n```\n"

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Contains(t, n.SupportedMIMETypes(), "text/markdown")
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_CaseNote(t *testing.T) {
	raw := &domain.RawDocument{URI: "notes/smith-jones.md", MIMEType: "text/markdown", Content: []byte(note)}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "smith-jones", doc.ID)
	assert.Equal(t, "Smith and Jones [2023] WASAT 12", doc.Title)
	assert.Equal(t, "[2023] WASAT 12", doc.Metadata[domain.MetaCitation])
	assert.Equal(t, "markdown", doc.Metadata["format"])

	assert.Contains(t, doc.Content, "Catchwords: residential tenancy, bond refund.")
	assert.Contains(t, doc.Content, "The application is dismissed.")
	assert.Contains(t, doc.Content, "Smith Applicant")
	assert.Contains(t, doc.Content, "RTA s 75")
	assert.NotContains(t, doc.Content, "**")
	assert.NotContains(t, doc.Content, "](")
	assert.NotContains(t, doc.Content, "|")
}

func TestNormalise_NoHeading(t *testing.T) {
	raw := &domain.RawDocument{URI: "notes/bond_refund.md", Content: []byte("Just a paragraph\nacross lines.")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "bond refund", result.Document.Title)
	assert.Equal(t, "Just a paragraph across lines.", result.Document.Content)
}
