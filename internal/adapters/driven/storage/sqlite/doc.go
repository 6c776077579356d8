// Package sqlite provides a unified SQLite-based implementation of the
// storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements three store interfaces
// through a single database connection:
//
//   - DocumentStore: case documents
//   - ChunkStore: embedded passages and brute-force L2 nearest-neighbour search
//   - ConversationStore: conversation turns with their sources and steps
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.caselaw/data/caselaw.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
