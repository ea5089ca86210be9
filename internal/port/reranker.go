package port

import "admissionrag/internal/domain"

// DiversityReranker reorders retrieval candidates to avoid near-duplicates.
type DiversityReranker interface {
	Rerank(entries []domain.ScoredEntry, k int) []domain.ScoredEntry
}
