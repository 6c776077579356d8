package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// DefaultCandidateMultiplier scales top-k when fetching rerank candidates.
const DefaultCandidateMultiplier = 2

// RetrievalService finds the chunks nearest to a query and optionally reranks them.
type RetrievalService struct {
	engine     *EmbeddingEngine
	chunks     driven.ChunkStore
	reranker   driven.Reranker
	multiplier int
	fallback   bool
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithReranker enables the second-pass reranker. Nil keeps retrieval only.
func WithReranker(r driven.Reranker) RetrievalOption {
	return func(s *RetrievalService) {
		s.reranker = r
	}
}

// WithCandidateMultiplier sets how many candidates per result are reranked.
func WithCandidateMultiplier(n int) RetrievalOption {
	return func(s *RetrievalService) {
		if n > 0 {
			s.multiplier = n
		}
	}
}

// WithRerankFallback returns the retrieval ordering when the reranker
// fails instead of surfacing the error.
func WithRerankFallback(enabled bool) RetrievalOption {
	return func(s *RetrievalService) {
		s.fallback = enabled
	}
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(engine *EmbeddingEngine, chunks driven.ChunkStore, opts ...RetrievalOption) *RetrievalService {
	s := &RetrievalService{
		engine:     engine,
		chunks:     chunks,
		multiplier: DefaultCandidateMultiplier,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reranker returns the configured reranker, or nil.
func (s *RetrievalService) Reranker() driven.Reranker {
	return s.reranker
}

// Retrieve returns up to topK chunks ordered by squared L2 distance to the
// query, ties broken by chunk ID. Fewer eligible chunks than topK is not an error.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, topK int, topic string,
) ([]domain.RetrievalCandidate, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q, top-k=%d, topic=%q", query, topK, topic)

	vec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := s.chunks.Nearest(ctx, vec, topK, domain.ChunkFilter{Topic: topic})
	if err != nil {
		return nil, fmt.Errorf("nearest chunks: %w", err)
	}

	SortCandidates(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	logger.Debug("Retrieved %d candidates", len(candidates))
	for i, c := range candidates {
		logger.Debug("  %d. %s distance=%.4f", i+1, c.Chunk.ID, c.Distance)
	}
	return candidates, nil
}

// Search retrieves and, when a reranker is configured, reranks.
// Reranking fetches TopK times the candidate multiplier and truncates
// the reranked list to TopK. Callers see the same result type either way.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.RankedResult, error) {
	if opts.TopK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidQuery, opts.TopK)
	}

	if s.reranker == nil || opts.NoRerank {
		candidates, err := s.Retrieve(ctx, query, opts.TopK, opts.Topic)
		if err != nil {
			return nil, err
		}
		return RankByDistance(candidates), nil
	}

	candidates, err := s.Retrieve(ctx, query, opts.TopK*s.multiplier, opts.Topic)
	if err != nil {
		return nil, err
	}

	logger.Section("Rerank")
	logger.Debug("Reranking %d candidates with %s", len(candidates), s.reranker.Name())

	ranked, err := s.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		if !s.fallback {
			return nil, fmt.Errorf("rerank with %s: %w", s.reranker.Name(), err)
		}
		logger.Warn("Reranker %s failed, using retrieval order: %v", s.reranker.Name(), err)
		ranked = RankByDistance(candidates)
	}

	if len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}
	distances := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		distances[c.Chunk.ID] = c.Distance
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
		if d, ok := distances[ranked[i].Chunk.ID]; ok {
			ranked[i].Similarity = domain.DistanceScore(d)
		}
	}
	return ranked, nil
}

// SortCandidates orders candidates by distance ascending, then chunk ID.
func SortCandidates(candidates []domain.RetrievalCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Chunk.ID < candidates[j].Chunk.ID
	})
}

// RankByDistance converts ordered candidates to ranked results scored by
// domain.DistanceScore. Input order is preserved.
func RankByDistance(candidates []domain.RetrievalCandidate) []domain.RankedResult {
	out := make([]domain.RankedResult, len(candidates))
	for i, c := range candidates {
		score := domain.DistanceScore(c.Distance)
		out[i] = domain.RankedResult{
			Chunk:      c.Chunk,
			Score:      score,
			Similarity: score,
			Rank:       i + 1,
		}
	}
	return out
}
