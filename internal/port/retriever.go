package port

import (
	"context"

	"admissionrag/internal/domain"
)

// Retriever searches the index for chunks relevant to a query.
type Retriever interface {
	// Search returns the top-k entries for query, most similar first.
	Search(ctx context.Context, query string, k int) ([]domain.ScoredEntry, error)
}
