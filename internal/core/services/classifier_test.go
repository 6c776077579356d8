package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func TestClassifyQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		want       domain.QueryType
		confidence float64
	}{
		{"similar cases", "Find similar cases about lease termination", domain.QueryTypeCaseSpecific, 0.95},
		{"definition", "What is the definition of adverse possession", domain.QueryTypeGeneral, 0.95},
		{"neutral citation", "2023 WASAT 12", domain.QueryTypeCaseSpecific, 0.95},
		{"party names", "Smith v. Jones", domain.QueryTypeCaseSpecific, 0.95},
		{"tie goes to cases", "explain the court", domain.QueryTypeCaseSpecific, 0.5},
		{"no signal", "hello there", domain.QueryTypeGeneral, 0.5},
		{"empty", "", domain.QueryTypeGeneral, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyQuery(tt.query)
			assert.Equal(t, tt.want, got.Type)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestClassifyQuery_ConfidenceBounds(t *testing.T) {
	queries := []string{
		"what cases explain the process for eviction",
		"how do courts define reasonable notice",
		"show me cases where the tribunal ordered compensation",
	}
	for _, q := range queries {
		got := ClassifyQuery(q)
		assert.GreaterOrEqual(t, got.Confidence, 0.5, q)
		assert.LessOrEqual(t, got.Confidence, 0.95, q)
	}
}
