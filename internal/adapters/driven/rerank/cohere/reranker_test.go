package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func candidates(ids ...string) []domain.RetrievalCandidate {
	out := make([]domain.RetrievalCandidate, len(ids))
	for i, id := range ids {
		out[i] = domain.RetrievalCandidate{Chunk: domain.Chunk{ID: id, Content: "text " + id}, Distance: float64(i)}
	}
	return out
}

func server(t *testing.T, status int, body string) (*httptest.Server, *rerankRequest) {
	t.Helper()
	var got rerankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		assert.Equal(t, "Bearer co-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	r, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "cohere/"+DefaultModel, r.Name())
}

func TestReranker_Rerank(t *testing.T) {
	srv, got := server(t, http.StatusOK,
		`{"results":[{"index":2,"relevance_score":0.9},{"index":0,"relevance_score":0.4},{"index":1,"relevance_score":0.4}]}`)
	r, err := New(Config{APIKey: "co-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	ranked, err := r.Rerank(context.Background(), "bond", candidates("a", "b", "c"))
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "c", ranked[0].Chunk.ID)
	assert.Equal(t, "a", ranked[1].Chunk.ID)
	assert.Equal(t, "b", ranked[2].Chunk.ID)
	assert.InDelta(t, 0.9, ranked[0].Score, 1e-9)
	assert.InDelta(t, domain.DistanceScore(2), ranked[0].Similarity, 1e-9)

	assert.Equal(t, "bond", got.Query)
	assert.Equal(t, []string{"text a", "text b", "text c"}, got.Documents)
	assert.Equal(t, DefaultModel, got.Model)
}

func TestReranker_Rerank_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusTooManyRequests, `{"message":"limit"}`},
		{"bad json", http.StatusOK, `{`},
		{"bad index", http.StatusOK, `{"results":[{"index":7,"relevance_score":1}]}`},
		{"duplicate index", http.StatusOK, `{"results":[{"index":0,"relevance_score":1},{"index":0,"relevance_score":0.5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := server(t, tt.status, tt.body)
			r, err := New(Config{APIKey: "co-key", BaseURL: srv.URL + "/v1"})
			require.NoError(t, err)
			_, err = r.Rerank(context.Background(), "q", candidates("a"))
			assert.Error(t, err)
		})
	}
}

func TestReranker_Rerank_Empty(t *testing.T) {
	r, err := New(Config{APIKey: "k", BaseURL: "http://unused"})
	require.NoError(t, err)
	ranked, err := r.Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}
