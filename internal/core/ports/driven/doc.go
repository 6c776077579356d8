// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ModelLoader / EmbeddingModel: Loads and runs the sentence-embedding model
//   - ChunkStore: Chunk persistence and L2 nearest-neighbour search
//   - DocumentStore: Case document persistence
//   - ConversationStore: Conversation turn persistence
//   - LLMProvider: Text generation backends
//   - PromptStore: Prompt templates and the reasoning chain
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Reranker: Second-pass relevance scoring. Without it, retrieval order is kept.
//   - Normaliser: Case file text extraction, used by ingestion front-ends only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
