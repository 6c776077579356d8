// Package caserecord normalises the JSON case records written by the
// tribunal scraper: one decision per file, with its reasons as the body.
package caserecord

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Metadata keys copied from a record.
const (
	MetaMember       = "member"
	MetaDeliveryDate = "delivery_date"
	MetaCatchwords   = "catchwords"
	MetaResult       = "result"
	MetaAct          = "act"
)

// Record is one scraped decision.
type Record struct {
	URL          string `json:"case_url"`
	Title        string `json:"case_title"`
	Citation     string `json:"citation_number"`
	Year         string `json:"case_year"`
	Act          string `json:"case_act"`
	Topic        string `json:"case_topic"`
	Member       string `json:"member"`
	DeliveryDate string `json:"delivery_date"`
	Catchwords   string `json:"catchwords"`
	Result       string `json:"result"`
	Reasons      string `json:"reasons"`
}

// Normaliser handles scraped case records.
type Normaliser struct{}

// New creates a new case record normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/json"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 70
}

// Normalise decodes a record. Loader metadata such as a topic given on
// the command line takes precedence over the record's own fields.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var rec Record
	if err := json.Unmarshal(raw.Content, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, raw.URI, err)
	}
	body := strings.TrimSpace(rec.Reasons)
	if body == "" {
		return nil, fmt.Errorf("%w: %s: record has no reasons", domain.ErrInvalidInput, raw.URI)
	}

	enriched := *raw
	enriched.Metadata = make(map[string]any, len(raw.Metadata)+8)
	setIf := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			enriched.Metadata[key] = val
		}
	}
	setIf(domain.MetaURL, rec.URL)
	setIf(normalisers.MetaTopic, rec.Topic)
	setIf(domain.MetaCitation, rec.Citation)
	setIf(MetaMember, rec.Member)
	setIf(MetaDeliveryDate, rec.DeliveryDate)
	setIf(MetaCatchwords, rec.Catchwords)
	setIf(MetaResult, rec.Result)
	setIf(MetaAct, rec.Act)
	setIf(normalisers.MetaSummary, rec.Catchwords)
	for k, v := range raw.Metadata {
		enriched.Metadata[k] = v
	}

	doc := normalisers.NewDocument(&enriched, rec.Title, body, "case_record")
	return &driven.NormaliseResult{Document: doc}, nil
}
