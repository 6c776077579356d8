package annotate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func TestProcessor_Process(t *testing.T) {
	doc := &domain.Document{
		ID:    "case-1",
		Title: "Smith v. Jones [2021] WASAT 12",
		URL:   "https://example.org/smith",
		Topic: "Tenancy",
		Metadata: map[string]any{
			domain.MetaCitation: "[2021] WASAT 12",
		},
	}
	chunks := []domain.Chunk{
		{ID: "case-1:0", Metadata: map[string]any{domain.MetaPosition: 0}},
		{ID: "case-1:1", Topic: "Contract Law"},
	}

	out, err := New().Process(context.Background(), doc, chunks)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, c := range out {
		assert.Equal(t, 2, c.Metadata[domain.MetaTotalChunks])
		assert.Equal(t, doc.Title, c.MetaString(domain.MetaTitle))
		assert.Equal(t, doc.URL, c.MetaString(domain.MetaURL))
		assert.Equal(t, "[2021] WASAT 12", c.MetaString(domain.MetaCitation))
	}
	assert.Equal(t, 0, out[0].Metadata[domain.MetaPosition])
	assert.Equal(t, "Tenancy", out[0].Topic)
	assert.Equal(t, "Contract Law", out[1].Topic)
}

func TestProcessor_Process_NoChunks(t *testing.T) {
	out, err := New().Process(context.Background(), &domain.Document{ID: "x"}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "annotate", New().Name())
}
