// Package storage opens the document, chunk and conversation stores for
// the configured backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/chromem"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// ChromemDir is the chromem collection directory inside the data directory.
const ChromemDir = "chromem"

// Stores holds the opened stores and the handles that back them.
type Stores struct {
	Documents     driven.DocumentStore
	Chunks        driven.ChunkStore
	Conversations driven.ConversationStore

	sqlite  *sqlite.Store
	bolt    *bolt.Store
	closers []io.Closer
}

// Open creates the stores for settings.
// Dimensions sizes the pgvector column; zero leaves it unsized.
//
// Backend pairing:
//   - sqlite: documents and chunks in SQLite
//   - chromem: chunks in chromem, documents in bbolt
//   - postgres: documents and chunks in Postgres with pgvector
//   - memory: everything in process memory
//
// Conversations go to the backend named by settings.Conversations.
func Open(ctx context.Context, settings domain.StorageSettings, dimensions int) (*Stores, error) {
	s := &Stores{}
	if err := s.openDocuments(ctx, settings, dimensions); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.openConversations(settings); err != nil {
		s.Close()
		return nil, err
	}
	logger.Debug("Storage: backend=%s conversations=%s dir=%s", settings.Backend, settings.Conversations, settings.DataDir)
	return s, nil
}

func (s *Stores) openDocuments(ctx context.Context, settings domain.StorageSettings, dimensions int) error {
	switch settings.Backend {
	case domain.StorageSQLite:
		store, err := s.sqliteStore(settings.DataDir)
		if err != nil {
			return err
		}
		s.Documents = store.DocumentStore()
		s.Chunks = store.ChunkStore()

	case domain.StorageChromem:
		if settings.DataDir == "" {
			return fmt.Errorf("%w: data directory is required", domain.ErrStorageUnavailable)
		}
		chunks, err := chromem.Open(filepath.Join(settings.DataDir, ChromemDir))
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
		docs, err := s.boltStore(settings.DataDir)
		if err != nil {
			return err
		}
		s.Chunks = chunks
		s.Documents = docs.DocumentStore(chunks)

	case domain.StoragePostgres:
		store, err := pgvector.Open(ctx, pgvector.Config{DSN: settings.DatabaseURL, Dimensions: dimensions})
		if err != nil {
			return err
		}
		s.closers = append(s.closers, store)
		s.Documents = store.DocumentStore()
		s.Chunks = store.ChunkStore()

	case domain.StorageMemory:
		chunks := memory.NewChunkStore()
		s.Chunks = chunks
		s.Documents = memory.NewDocumentStore().WithChunks(chunks)

	default:
		return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, settings.Backend)
	}
	return nil
}

func (s *Stores) openConversations(settings domain.StorageSettings) error {
	switch settings.Conversations {
	case domain.ConversationSQLite:
		store, err := s.sqliteStore(settings.DataDir)
		if err != nil {
			return err
		}
		s.Conversations = store.ConversationStore()

	case domain.ConversationBolt:
		store, err := s.boltStore(settings.DataDir)
		if err != nil {
			return err
		}
		s.Conversations = store.ConversationStore()

	case domain.ConversationMemory:
		s.Conversations = memory.NewConversationStore()

	default:
		return fmt.Errorf("%w: unknown conversation backend %q", domain.ErrInvalidInput, settings.Conversations)
	}
	return nil
}

// sqliteStore opens the SQLite database once and shares it.
func (s *Stores) sqliteStore(dataDir string) (*sqlite.Store, error) {
	if s.sqlite != nil {
		return s.sqlite, nil
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	s.sqlite = store
	s.closers = append(s.closers, store)
	return store, nil
}

// boltStore opens the bbolt database once and shares it.
func (s *Stores) boltStore(dataDir string) (*bolt.Store, error) {
	if s.bolt != nil {
		return s.bolt, nil
	}
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrStorageUnavailable)
	}
	store, err := bolt.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	s.bolt = store
	s.closers = append(s.closers, store)
	return store, nil
}

// Close releases every opened database, newest first.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
