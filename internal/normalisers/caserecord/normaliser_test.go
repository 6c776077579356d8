package caserecord

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

const record = `{
  "case_url": "https://www.austlii.edu.au/au/cases/wa/WASAT/2023/12.html",
  "case_title": "Smith and Jones",
  "citation_number": "[2023] WASAT 12",
  "case_year": "2023",
  "case_act": "Residential Tenancies Act 1987 (WA)",
  "case_topic": "Residential Tenancy",
  "member": "Senior Member Brown",
  "delivery_date": "3 March 2023",
  "catchwords": "Bond refund - cleaning costs",
  "result": "Application dismissed",
  "reasons": "  1 The applicant sought the return of the bond.\n2 The application is dismissed.  "
}`

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"application/json"}, n.SupportedMIMETypes())
	assert.Equal(t, 70, n.Priority())
}

func TestNormalise_Record(t *testing.T) {
	raw := &domain.RawDocument{URI: "records/2023-12.json", MIMEType: "application/json", Content: []byte(record)}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "2023-12", doc.ID)
	assert.Equal(t, "Smith and Jones", doc.Title)
	assert.Equal(t, "https://www.austlii.edu.au/au/cases/wa/WASAT/2023/12.html", doc.URL)
	assert.Equal(t, "Residential Tenancy", doc.Topic)
	assert.Equal(t, "Bond refund - cleaning costs", doc.Summary)
	assert.Equal(t, "1 The applicant sought the return of the bond.\n2 The application is dismissed.", doc.Content)
	assert.Equal(t, "[2023] WASAT 12", doc.Metadata[domain.MetaCitation])
	assert.Equal(t, "Senior Member Brown", doc.Metadata[MetaMember])
	assert.Equal(t, "Application dismissed", doc.Metadata[MetaResult])
	assert.Equal(t, "case_record", doc.Metadata["format"])
}

func TestNormalise_LoaderTopicWins(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "records/2023-12.json",
		Content:  []byte(record),
		Metadata: map[string]any{"topic": "Contract Law"},
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Contract Law", result.Document.Topic)
}

func TestNormalise_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"case_title": `},
		{"no reasons", `{"case_title": "X", "reasons": "   "}`},
		{"array", `[{"reasons": "x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &domain.RawDocument{URI: "r.json", Content: []byte(tt.content)}
			_, err := New().Normalise(context.Background(), raw)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
