// Package chromem provides an embedded vector chunk store on chromem-go.
//
// chromem-go ranks by cosine similarity and normalises every vector it
// stores. For unit-length embeddings, which all configured embedding
// models produce, squared L2 distance equals 2 - 2*cosine, so Nearest
// reports that value. Raw vectors of other lengths are not preserved.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// CollectionName is the chromem collection holding chunks.
const CollectionName = "caselaw_chunks"

// Metadata keys stored alongside each chromem document.
const (
	keyDocumentID = "document_id"
	keyTopic      = "topic"
	keyPosition   = "position"
	keyMetadata   = "metadata"
)

// Store is a chromem-backed chunk store.
type Store struct {
	// mu serialises replace and delete so they appear atomic to readers
	// of this process.
	mu         sync.RWMutex
	collection *chromem.Collection
}

var _ driven.ChunkStore = (*Store)(nil)

// Open opens a persistent database in dir, or an in-memory one when dir is empty.
func Open(dir string) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	// Embeddings are always supplied, so the collection never embeds.
	c, err := db.GetOrCreateCollection(CollectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &Store{collection: c}, nil
}

// UpsertChunks adds or overwrites chunks by ID.
func (s *Store) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(ctx, chunks)
}

func (s *Store) add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		doc, err := toDocument(c)
		if err != nil {
			return err
		}
		docs[i] = doc
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add chunks: %w", err)
	}
	return nil
}

// ReplaceDocumentChunks deletes a document's chunks and adds the new set.
func (s *Store) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.delete(ctx, documentID); err != nil {
		return err
	}
	return s.add(ctx, chunks)
}

// Nearest returns up to k chunks by descending cosine similarity,
// reported as squared L2 distance between unit vectors. chromem-go does
// not order equal similarities, so the query is widened until the
// candidate after the k-th is strictly farther, then ties are broken by
// chunk ID before truncating.
func (s *Store) Nearest(ctx context.Context, vector []float32, k int, filter domain.ChunkFilter) ([]domain.RetrievalCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.collection.Count()
	if k <= 0 || n == 0 {
		return nil, nil
	}

	var where map[string]string
	if filter.Topic != "" {
		where = map[string]string{keyTopic: filter.Topic}
	}

	fetch := min(k+1, n)
	for {
		out, err := s.query(ctx, vector, fetch, where)
		if err != nil {
			return nil, err
		}
		if len(out) <= k {
			return out, nil
		}
		if fetch == n || out[len(out)-1].Distance > out[k-1].Distance {
			return out[:k], nil
		}
		fetch = min(fetch*2, n)
	}
}

// query fetches the nResults most similar chunks ordered by distance,
// then chunk ID.
func (s *Store) query(ctx context.Context, vector []float32, nResults int, where map[string]string) ([]domain.RetrievalCandidate, error) {
	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       nResults,
		Where:          where,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]domain.RetrievalCandidate, 0, len(results))
	for _, r := range results {
		chunk, err := fromDocument(r.ID, r.Content, r.Metadata, r.Embedding)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.RetrievalCandidate{Chunk: chunk, Distance: CosineToSquaredL2(r.Similarity)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	return out, nil
}

// DeleteByDocument removes every chunk of a document.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(ctx, documentID)
}

func (s *Store) delete(ctx context.Context, documentID string) error {
	if err := s.collection.Delete(ctx, map[string]string{keyDocumentID: documentID}, nil); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// GetChunks returns a document's chunks by walking its chunk IDs from
// position 0 until one is missing. Chunk positions are contiguous.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.Chunk
	for pos := 0; ; pos++ {
		doc, err := s.collection.GetByID(ctx, domain.ChunkID(documentID, pos))
		if err != nil {
			break
		}
		chunk, err := fromDocument(doc.ID, doc.Content, doc.Metadata, doc.Embedding)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(context.Context) (int, error) {
	return s.collection.Count(), nil
}

// CosineToSquaredL2 converts a cosine similarity between unit vectors to
// their squared Euclidean distance.
func CosineToSquaredL2(similarity float32) float64 {
	d := 2 - 2*float64(similarity)
	if d < 0 {
		return 0
	}
	return d
}

func toDocument(c domain.Chunk) (chromem.Document, error) {
	meta := map[string]string{
		keyDocumentID: c.DocumentID,
		keyTopic:      c.Topic,
		keyPosition:   strconv.Itoa(c.Position),
	}
	if len(c.Metadata) > 0 {
		data, err := json.Marshal(c.Metadata)
		if err != nil {
			return chromem.Document{}, fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		meta[keyMetadata] = string(data)
	}
	return chromem.Document{
		ID:        c.ID,
		Content:   c.Content,
		Metadata:  meta,
		Embedding: c.Embedding,
	}, nil
}

func fromDocument(id, content string, meta map[string]string, embedding []float32) (domain.Chunk, error) {
	pos, err := strconv.Atoi(meta[keyPosition])
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("chunk %s: bad position %q", id, meta[keyPosition])
	}
	chunk := domain.Chunk{
		ID:         id,
		DocumentID: meta[keyDocumentID],
		Topic:      meta[keyTopic],
		Content:    content,
		Position:   pos,
		Embedding:  embedding,
	}
	if raw := meta[keyMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &chunk.Metadata); err != nil {
			return domain.Chunk{}, fmt.Errorf("chunk %s: decoding metadata: %w", id, err)
		}
	}
	return chunk, nil
}
