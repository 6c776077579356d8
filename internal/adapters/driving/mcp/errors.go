// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants retrieve case passages, ask grounded research
// questions and draft arguments.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
