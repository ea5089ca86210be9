package port

import (
	"context"

	"admissionrag/internal/domain"
)

// EmbeddingProvider maps text to fixed-dimension vectors.
type EmbeddingProvider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex stores index entries and searches them by similarity.
type VectorIndex interface {
	// Build replaces the whole index with entries and persists it.
	Build(ctx context.Context, entries []domain.IndexEntry) error

	// Load reconstructs a previously persisted index.
	Load(ctx context.Context) error

	// Search returns at most k entries ordered by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredEntry, error)

	// Count returns the number of entries currently searchable.
	Count() int

	Close() error
}
