// Package bolt provides document and conversation stores on a bbolt file.
// It pairs with the chromem chunk store, which keeps only vectors.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// FileName is the database file created inside the data directory.
const FileName = "caselaw.bolt"

var (
	bucketDocs          = []byte("documents")
	bucketConversations = []byte("conversations")
)

// Store wraps a bbolt database.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database in dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := bbolt.Open(filepath.Join(dataDir, FileName), 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketConversations} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// DocumentStore returns the document store. Chunks, when given, are
// deleted together with their document.
func (s *Store) DocumentStore(chunks driven.ChunkStore) driven.DocumentStore {
	return &documentStore{db: s.db, chunks: chunks}
}

// ConversationStore returns the conversation store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{db: s.db}
}

// ==================== Document Store ====================

type documentStore struct {
	db     *bbolt.DB
	chunks driven.ChunkStore
}

var _ driven.DocumentStore = (*documentStore)(nil)

type docRecord struct {
	Title     string         `json:"title"`
	URL       string         `json:"url,omitempty"`
	Topic     string         `json:"topic,omitempty"`
	Summary   string         `json:"summary,omitempty"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s *documentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	data, err := json.Marshal(docRecord{
		Title:     doc.Title,
		URL:       doc.URL,
		Topic:     doc.Topic,
		Summary:   doc.Summary,
		Content:   doc.Content,
		Metadata:  doc.Metadata,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

func (s *documentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	var doc *domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return domain.ErrNotFound
		}
		var err error
		doc, err = decodeDocument(id, data)
		return err
	})
	return doc, err
}

func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if s.chunks != nil {
		if err := s.chunks.DeleteByDocument(ctx, id); err != nil {
			return err
		}
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

func (s *documentStore) ListDocuments(_ context.Context, topic string) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			doc, err := decodeDocument(string(k), v)
			if err != nil {
				return err
			}
			if topic == "" || doc.Topic == topic {
				docs = append(docs, *doc)
			}
			return nil
		})
	})
	return docs, err
}

func decodeDocument(id string, data []byte) (*domain.Document, error) {
	var rec docRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", id, err)
	}
	return &domain.Document{
		ID:        id,
		Title:     rec.Title,
		URL:       rec.URL,
		Topic:     rec.Topic,
		Summary:   rec.Summary,
		Content:   rec.Content,
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// ==================== Conversation Store ====================

// conversationStore keeps one nested bucket per conversation, keyed by
// the bucket's big-endian sequence number so iteration is append order.
type conversationStore struct {
	db *bbolt.DB
}

var _ driven.ConversationStore = (*conversationStore)(nil)

func (s *conversationStore) LoadTurns(_ context.Context, conversationID string) ([]domain.Turn, error) {
	turns := []domain.Turn{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketConversations).Bucket([]byte(conversationID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var turn domain.Turn
			if err := json.Unmarshal(v, &turn); err != nil {
				return fmt.Errorf("decoding turn: %w", err)
			}
			turns = append(turns, turn)
			return nil
		})
	})
	return turns, err
}

func (s *conversationStore) AppendTurn(_ context.Context, conversationID string, turn domain.Turn) error {
	if conversationID == "" {
		return fmt.Errorf("%w: empty conversation id", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshalling turn: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketConversations).CreateBucketIfNotExists([]byte(conversationID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), data)
	})
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
