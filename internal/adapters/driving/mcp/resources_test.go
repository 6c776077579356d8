package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func newTestServer(t *testing.T, docs *mockDocumentService) *Server {
	t.Helper()
	ports := &Ports{Retrieval: &mockRetrievalService{}}
	if docs != nil {
		ports.Document = docs
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestParseDocumentURI(t *testing.T) {
	tests := []struct {
		uri    string
		wantID string
		sub    string
	}{
		{"caselaw://documents/2019-wasat-12", "2019-wasat-12", ""},
		{"caselaw://documents/2019-wasat-12/chunks", "2019-wasat-12", "/chunks"},
		{"caselaw://documents/re%20estate%20of%20brown", "re estate of brown", ""},
		{"caselaw://documents/a/b", "", ""},
		{"caselaw://documents/%zz", "", ""},
		{"file://documents/doc-456", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			id, sub := parseDocumentURI(tt.uri)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.sub, sub)
		})
	}
}

func TestTopicFromURI(t *testing.T) {
	assert.Equal(t, "Contract Law", topicFromURI("caselaw://topics/Contract%20Law/documents"))
	assert.Equal(t, "", topicFromURI("caselaw://topics"))
	assert.Equal(t, "", topicFromURI("caselaw://documents"))
	assert.Equal(t, "", topicFromURI("caselaw://topics/Contract%20Law"))
}

func TestServer_handleTopicsResource(t *testing.T) {
	server := newTestServer(t, nil)

	result, err := server.handleTopicsResource(context.Background(), readRequest(topicsURI))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, mimeJSON, result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, "Commercial Tenancy")
	assert.Contains(t, result.Contents[0].Text, "Trusts and Estates")
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns empty list", func(t *testing.T) {
		result, err := newTestServer(t, nil).handleDocumentsResource(ctx, readRequest(documentsURI))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists cases with citations", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{
			documents: []domain.Document{
				{
					ID: "doc-1", Title: "Smith v Jones", Topic: "Contract Law", URL: "https://example.org/1",
					Metadata: map[string]any{domain.MetaCitation: "[2023] WASAT 12"},
				},
				{ID: "doc-2", Title: "Re Estate of Brown"},
			},
		})

		result, err := server.handleDocumentsResource(ctx, readRequest(documentsURI))

		require.NoError(t, err)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"id": "doc-1"`)
		assert.Contains(t, text, `"citation": "[2023] WASAT 12"`)
		assert.Contains(t, text, "https://example.org/1")
		assert.Contains(t, text, "Re Estate of Brown")
	})

	t.Run("topic URI filters", func(t *testing.T) {
		docs := &topicRecorder{}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Document: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentsResource(ctx, readRequest("caselaw://topics/Criminal%20Law/documents"))
		require.NoError(t, err)
		assert.Equal(t, "Criminal Law", docs.topic)
	})

	t.Run("list failure", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{err: errors.New("storage error")})
		_, err := server.handleDocumentsResource(ctx, readRequest(documentsURI))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()
	uri := documentsURI + "/doc-123"

	t.Run("nil document service", func(t *testing.T) {
		_, err := newTestServer(t, nil).handleDocumentContentResource(ctx, readRequest(uri))
		require.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{})
		_, err := server.handleDocumentContentResource(ctx, readRequest("caselaw://invalid/uri"))
		require.Error(t, err)
		_, err = server.handleDocumentContentResource(ctx, readRequest(uri+"/chunks"))
		require.Error(t, err)
	})

	t.Run("returns full text", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{
			document: &domain.Document{ID: "doc-123", Content: "The appeal is dismissed."},
		})

		result, err := server.handleDocumentContentResource(ctx, readRequest(uri))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "The appeal is dismissed.", result.Contents[0].Text)
		assert.Equal(t, mimeText, result.Contents[0].MIMEType)
	})

	t.Run("get failure", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{err: domain.ErrNotFound})
		_, err := server.handleDocumentContentResource(ctx, readRequest(uri))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "getting document")
	})
}

func TestServer_handleDocumentChunksResource(t *testing.T) {
	ctx := context.Background()
	uri := documentsURI + "/doc-123/chunks"

	t.Run("returns passages", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{
			chunks: []domain.Chunk{
				{ID: "doc-123_0", Position: 0, Content: "The appeal"},
				{ID: "doc-123_1", Position: 1, Content: "is dismissed."},
			},
		})

		result, err := server.handleDocumentChunksResource(ctx, readRequest(uri))

		require.NoError(t, err)
		assert.Equal(t, mimeJSON, result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"id": "doc-123_1"`)
		assert.Contains(t, result.Contents[0].Text, `"position": 1`)
	})

	t.Run("unknown document", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{})
		_, err := server.handleDocumentChunksResource(ctx, readRequest(uri))
		require.Error(t, err)
	})

	t.Run("content URI rejected", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{})
		_, err := server.handleDocumentChunksResource(ctx, readRequest(documentsURI+"/doc-123"))
		require.Error(t, err)
	})

	t.Run("chunks failure", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{err: errors.New("storage error")})
		_, err := server.handleDocumentChunksResource(ctx, readRequest(uri))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting chunks")
	})
}

// topicRecorder remembers the topic passed to List.
type topicRecorder struct {
	mockDocumentService
	topic string
}

func (r *topicRecorder) List(_ context.Context, topic string) ([]domain.Document, error) {
	r.topic = topic
	return nil, nil
}
