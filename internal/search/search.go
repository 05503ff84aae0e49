// Package search abstracts the passage index consumed by the query pipeline
// and written by the ingestion pipeline.
package search

import (
	"context"

	"rag-chat-platform/models"
)

// Options tune one index query.
type Options struct {
	// Top is the number of passages to return. Values below 1 fall back to 3.
	Top int
	// ExcludeCategory filters out passages whose category equals this value.
	ExcludeCategory string
	// SemanticRanker and SemanticCaptions are passed through to backends that
	// support server-side semantic reranking. The Mongo implementation treats
	// them as no-ops.
	SemanticRanker   bool
	SemanticCaptions bool
}

// Service is the search/index collaborator. The retriever does not choose a
// retrieval mode: it executes whatever mix of (query, vector) it receives.
// Both may be set (hybrid), or either alone. An empty result is not an error.
type Service interface {
	// EnsureIndex creates the index schema if it does not exist. Idempotent.
	EnsureIndex(ctx context.Context, name string) error

	// Query returns ranked passages for the given text query and/or vector.
	Query(ctx context.Context, query string, vector []float32, opts Options) ([]models.RetrievedPassage, error)

	// Upsert writes passage records keyed by their deterministic IDs.
	// Re-upserting an existing ID overwrites the record.
	Upsert(ctx context.Context, records []models.PassageRecord) error

	// DeleteBySourceFile removes up to one page of entries matching the source
	// file (all entries when sourceFile is empty) and reports how many were
	// removed. Callers poll until it returns zero; index backends are only
	// eventually consistent.
	DeleteBySourceFile(ctx context.Context, sourceFile string) (int, error)
}
