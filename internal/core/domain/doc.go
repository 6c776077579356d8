// Package domain defines the core business entities for caselaw.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CaseDocument: A court decision or other legal text in the corpus
//   - Chunk: An embedded passage of a case document
//   - RetrievalCandidate / RankedResult: Transient query results
//   - Conversation / Turn: Research session history
//   - GenerationRequest / GenerationResponse: Answer and argument drafting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
