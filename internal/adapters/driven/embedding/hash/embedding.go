// Package hash provides a deterministic offline embedding model.
// Each lowercased word is hashed into a bucket and the resulting
// bag-of-words vector is normalised to unit length. It needs no network
// and is used for demos and tests.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.EmbeddingModel = (*Model)(nil)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 256

// ModelName is reported by every hash model.
const ModelName = "hash"

// Model is a feature-hashing embedder.
type Model struct {
	dimensions int
}

// New creates a hash model with the given vector size.
func New(dimensions int) *Model {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Model{dimensions: dimensions}
}

// Loader returns a loader that always succeeds.
func Loader(dimensions int) driven.ModelLoader {
	return driven.ModelLoaderFunc(func(context.Context) (driven.EmbeddingModel, error) {
		return New(dimensions), nil
	})
}

// EmbedBatch embeds each text independently.
func (m *Model) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.embed(text)
	}
	return out, nil
}

func (m *Model) embed(text string) []float32 {
	vec := make([]float32, m.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		idx := int(sum % uint64(m.dimensions))
		// The top bit picks the sign so collisions partly cancel out.
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// Dimensions returns the embedding vector size.
func (m *Model) Dimensions() int {
	return m.dimensions
}

// ModelName returns "hash".
func (m *Model) ModelName() string {
	return ModelName
}

// Close is a no-op.
func (m *Model) Close() error {
	return nil
}
