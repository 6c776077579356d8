// Package services holds the research pipeline: embedding, ingestion,
// retrieval with reranking, and answer and argument generation. Each
// service depends only on driven ports.
package services
