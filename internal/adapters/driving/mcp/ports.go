package mcp

import (
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval finds and ranks case passages.
	Retrieval driving.RetrievalService

	// Generation answers questions and drafts arguments.
	// Without it only retrieval tools are offered.
	Generation driving.GenerationService

	// Document lists ingested cases.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
