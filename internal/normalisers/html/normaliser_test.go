package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

const decision = `<!DOCTYPE html>
<html>
<head>
  <title>Smith and Jones [2023] WASAT 12 (3 March 2023)</title>
  <link rel="canonical" href="https://www.austlii.edu.au/cgi-bin/viewdoc/au/cases/wa/WASAT/2023/12.html">
  <style>body { color: red; }</style>
</head>
<body>
  <nav><a href="/">Home</a></nav>
  <h1>Smith and Jones</h1>
  <p>CATCHWORDS: Residential tenancy &ndash; termination &amp; bond</p>
  <script>track();</script>
  <table><tr><td>Member</td><td>Senior Member Brown</td></tr></table>
  <p>The&nbsp;application is   dismissed.<br>Orders accordingly.</p>
  <!-- footer -->
</body>
</html>`

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"text/html", "application/xhtml+xml"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_Decision(t *testing.T) {
	raw := &domain.RawDocument{URI: "cases/2023-12.html", MIMEType: "text/html", Content: []byte(decision)}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "2023-12", doc.ID)
	assert.Equal(t, "Smith and Jones [2023] WASAT 12 (3 March 2023)", doc.Title)
	assert.Equal(t, "https://www.austlii.edu.au/cgi-bin/viewdoc/au/cases/wa/WASAT/2023/12.html", doc.URL)
	assert.Equal(t, "[2023] WASAT 12", doc.Metadata[domain.MetaCitation])
	assert.Equal(t, "Smith and Jones\n"+
		"CATCHWORDS: Residential tenancy – termination & bond\n"+
		"Member Senior Member Brown\n"+
		"The application is dismissed.\n"+
		"Orders accordingly.", doc.Content)
	assert.NotContains(t, doc.Content, "track()")
	assert.NotContains(t, doc.Content, "Home")
}

func TestNormalise_LoaderURLWins(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "cases/x.html",
		Content:  []byte(decision),
		Metadata: map[string]any{domain.MetaURL: "https://example.org/x"},
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/x", result.Document.URL)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"title tag", "<title> A &amp; B </title>", "A & B"},
		{"h1 fallback", "<body><h1><b>Heading</b></h1></body>", "Heading"},
		{"empty title uses h1", "<title> </title><h1>H</h1>", "H"},
		{"none", "<p>text</p>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTitle(tt.content))
		})
	}
}

func TestNormalise_TitleFallsBackToFileName(t *testing.T) {
	raw := &domain.RawDocument{URI: "cases/strata_levy.html", Content: []byte("<p>Body</p>")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "strata levy", result.Document.Title)
	assert.Equal(t, "Body", result.Document.Content)
}
