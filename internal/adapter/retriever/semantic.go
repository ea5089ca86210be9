package retriever

import (
	"context"
	"errors"
	"fmt"

	"admissionrag/internal/domain"
	"admissionrag/internal/port"
)

type SemanticRetriever struct {
	index    port.VectorIndex
	embedder port.EmbeddingProvider
}

func NewSemanticRetriever(index port.VectorIndex, embedder port.EmbeddingProvider) *SemanticRetriever {
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
	}
}

// Search embeds the query and returns the k nearest index entries. An empty
// index yields no results and no error.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredEntry, error) {
	if r.index == nil || r.embedder == nil {
		return nil, errors.New("semantic search not available: index or embedder not configured")
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, domain.Unavailable("embedding", r.embedder.ModelName(),
			fmt.Errorf("expected 1 query embedding, got %d", len(embeddings)))
	}

	results, err := r.index.Search(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
