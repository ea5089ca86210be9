package usecase

import (
	"context"
	"errors"
	"strings"

	"admissionrag/internal/domain"
	"admissionrag/internal/port"
)

// ErrEmptyQuery is returned for blank questions.
var ErrEmptyQuery = errors.New("query is empty")

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	retriever         port.Retriever
	retry             RetryPolicy
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(retriever port.Retriever, retry RetryPolicy, minScoreThreshold float64) *RetrieveUseCase {
	return &RetrieveUseCase{
		retriever:         retriever,
		retry:             retry,
		minScoreThreshold: minScoreThreshold,
	}
}

// Retrieve returns at most topK entries for query, most similar first.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, nil
	}

	var results []domain.ScoredEntry
	err := u.retry.Do(ctx, "retrieve", func(ctx context.Context) error {
		var err error
		results, err = u.retriever.Search(ctx, query, topK)
		return err
	})
	if err != nil {
		return nil, err
	}

	if u.minScoreThreshold > 0 {
		results = u.filterByThreshold(results)
	}
	return results, nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredEntry) []domain.ScoredEntry {
	filtered := make([]domain.ScoredEntry, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ScoredEntryResult is a simplified result for CLI output.
type ScoredEntryResult struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Page   string  `json:"page,omitempty"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// ToResults converts scored entries for JSON output.
func ToResults(entries []domain.ScoredEntry) []ScoredEntryResult {
	out := make([]ScoredEntryResult, 0, len(entries))
	for _, e := range entries {
		out = append(out, ScoredEntryResult{
			ID:     e.Entry.ID,
			Source: e.Entry.Source,
			Page:   e.Entry.Metadata["page"],
			Score:  e.Score,
			Text:   e.Entry.Text,
		})
	}
	return out
}
