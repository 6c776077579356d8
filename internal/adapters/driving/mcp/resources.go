package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

const (
	uriScheme      = "caselaw://"
	documentsURI   = uriScheme + "documents"
	topicsURI      = uriScheme + "topics"
	mimeJSON       = "application/json"
	mimeText       = "text/plain"
	chunksSuffix   = "/chunks"
	documentsInfix = "/documents"
)

// documentInfo is the listing entry for one case.
type documentInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Citation string `json:"citation,omitempty"`
	Topic    string `json:"topic,omitempty"`
	URL      string `json:"url,omitempty"`
}

// chunkInfo is one passage of a case.
type chunkInfo struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Content  string `json:"content"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         topicsURI,
		Name:        "topics",
		Description: "Legal topics used to label and filter cases",
		MIMEType:    mimeJSON,
	}, s.handleTopicsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Cases in the research corpus",
		MIMEType:    mimeJSON,
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: topicsURI + "/{topic}/documents",
		Name:        "topic-documents",
		Description: "Cases labelled with one legal topic",
		MIMEType:    mimeJSON,
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{documentId}",
		Name:        "document-content",
		Description: "Full text of a case",
		MIMEType:    mimeText,
	}, s.handleDocumentContentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{documentId}/chunks",
		Name:        "document-chunks",
		Description: "The passages a case was split into for retrieval",
		MIMEType:    mimeJSON,
	}, s.handleDocumentChunksResource)
}

func (s *Server) handleTopicsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, domain.LegalTopics())
}

// handleDocumentsResource lists cases, filtered by topic when the URI is
// caselaw://topics/{topic}/documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	if s.ports.Document == nil {
		return jsonResource(uri, []documentInfo{})
	}

	docs, err := s.ports.Document.List(ctx, topicFromURI(uri))
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, documentInfo{
			ID:       d.ID,
			Title:    d.Title,
			Citation: citationOf(d),
			Topic:    d.Topic,
			URL:      d.URL,
		})
	}
	return jsonResource(uri, infos)
}

func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, sub := parseDocumentURI(uri)
	if s.ports.Document == nil || id == "" || sub != "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	doc, err := s.ports.Document.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeText, Text: doc.Content}},
	}, nil
}

func (s *Server) handleDocumentChunksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, sub := parseDocumentURI(uri)
	if s.ports.Document == nil || id == "" || sub != chunksSuffix {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	chunks, err := s.ports.Document.Chunks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	infos := make([]chunkInfo, len(chunks))
	for i, c := range chunks {
		infos[i] = chunkInfo{ID: c.ID, Position: c.Position, Content: c.Content}
	}
	return jsonResource(uri, infos)
}

func citationOf(d domain.Document) string {
	s, _ := d.Metadata[domain.MetaCitation].(string)
	return s
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeJSON, Text: string(data)}},
	}, nil
}

// parseDocumentURI splits caselaw://documents/{id}[/chunks] into the
// unescaped document ID and the optional suffix.
func parseDocumentURI(uri string) (id, sub string) {
	rest, ok := strings.CutPrefix(uri, documentsURI+"/")
	if !ok {
		return "", ""
	}
	if trimmed, found := strings.CutSuffix(rest, chunksSuffix); found {
		rest, sub = trimmed, chunksSuffix
	}
	if strings.Contains(rest, "/") {
		return "", ""
	}
	id, err := url.PathUnescape(rest)
	if err != nil {
		return "", ""
	}
	return id, sub
}

// topicFromURI returns the topic of caselaw://topics/{topic}/documents,
// or "" for any other URI.
func topicFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, topicsURI+"/")
	if !ok {
		return ""
	}
	topic, ok := strings.CutSuffix(rest, documentsInfix)
	if !ok {
		return ""
	}
	topic, err := url.PathUnescape(topic)
	if err != nil {
		return ""
	}
	return topic
}
