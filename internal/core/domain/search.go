package domain

// ChunkFilter restricts nearest-neighbour queries.
type ChunkFilter struct {
	// Topic keeps only chunks with this topic label. Empty means no filter.
	Topic string
}

// RetrievalCandidate is a chunk with its squared L2 distance to the query.
// Candidates are transient and never persisted.
type RetrievalCandidate struct {
	Chunk    Chunk
	Distance float64
}

// RankedResult is a chunk with a relevance score and its 1-based rank.
// Scores are non-increasing by rank. Score is on the ranker's own scale;
// Similarity is always DistanceScore of the retrieval distance, so it can be
// compared against a relevance threshold whether or not a reranker ran.
type RankedResult struct {
	Chunk      Chunk
	Score      float64
	Similarity float64
	Rank       int
}

// SearchOptions configures a retrieval pipeline query.
type SearchOptions struct {
	// TopK is the maximum number of results.
	TopK int

	// Topic filters chunks by topic label.
	Topic string

	// NoRerank skips the configured reranker for this query.
	NoRerank bool
}

// DistanceScore maps a distance onto a (0, 1] relevance score.
// It is monotonic, so ordering by score matches ordering by distance.
func DistanceScore(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// SquaredL2 returns the squared Euclidean distance between a and b.
// Vectors of different length are compared over the shorter prefix with
// the remainder of the longer one counted against zero.
func SquaredL2(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	for _, v := range a[n:] {
		sum += float64(v) * float64(v)
	}
	for _, v := range b[n:] {
		sum += float64(v) * float64(v)
	}
	return sum
}
