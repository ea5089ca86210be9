package retriever

import (
	"testing"

	"admissionrag/internal/domain"
)

func entry(id, text string, score float64) domain.ScoredEntry {
	return domain.ScoredEntry{Entry: domain.IndexEntry{ID: id, Text: text}, Score: score}
}

func TestMMRReranking(t *testing.T) {
	reranker := NewMMRReranker(0.5, 0)

	candidates := []domain.ScoredEntry{
		entry("c1", "경제학과 경쟁률 3.5:1", 1.0),
		entry("c2", "경제학과 경쟁률 3.5:1 작년", 0.95),
		entry("c3", "논술전형 일정 안내", 0.8),
	}

	results := reranker.Rerank(candidates, 2)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Entry.ID != "c1" {
		t.Errorf("expected c1 as first result, got %s", results[0].Entry.ID)
	}
	if results[1].Entry.ID != "c3" {
		t.Errorf("expected MMR to prefer the diverse c3 over near-duplicate c2, got %s", results[1].Entry.ID)
	}
}

func TestMMRDeduplication(t *testing.T) {
	reranker := NewMMRReranker(0.7, 0.5)

	candidates := []domain.ScoredEntry{
		entry("c1", "수시 모집 일정은 9월이다", 1.0),
		entry("c2", "수시 모집 일정은 9월이다", 0.9),
	}

	results := reranker.Rerank(candidates, 2)

	if len(results) != 1 {
		t.Fatalf("expected 1 result after dedup, got %d", len(results))
	}
	if results[0].Entry.ID != "c1" {
		t.Errorf("expected c1 (highest score), got %s", results[0].Entry.ID)
	}
}

func TestMMRKeepsScores(t *testing.T) {
	reranker := NewMMRReranker(1.0, 0)

	candidates := []domain.ScoredEntry{
		entry("a", "경영학부 모집인원", 0.9),
		entry("b", "입학처 전화번호", 0.4),
	}
	results := reranker.Rerank(candidates, 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Score != 0.9 || results[1].Score != 0.4 {
		t.Errorf("scores must be passed through, got %v", results)
	}
}

func TestMMREmptyCandidates(t *testing.T) {
	reranker := NewMMRReranker(0.7, 0.8)

	if results := reranker.Rerank(nil, 10); results != nil {
		t.Errorf("expected nil for empty candidates, got %v", results)
	}
	if results := reranker.Rerank([]domain.ScoredEntry{}, 10); results != nil {
		t.Errorf("expected nil for empty slice, got %v", results)
	}
	if results := reranker.Rerank([]domain.ScoredEntry{entry("a", "x", 1)}, 0); results != nil {
		t.Errorf("expected nil for k=0, got %v", results)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a        []string
		b        []string
		expected float64
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"no overlap", []string{"a", "b", "c"}, []string{"d", "e", "f"}, 0.0},
		{"half overlap", []string{"a", "b"}, []string{"b", "c"}, 1.0 / 3.0},
		{"empty a", []string{}, []string{"a", "b"}, 0.0},
		{"empty b", []string{"a", "b"}, []string{}, 0.0},
		{"both empty", []string{}, []string{}, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := jaccard(toSet(tc.a), toSet(tc.b))
			if !floatEquals(result, tc.expected, 0.001) {
				t.Errorf("jaccard(%v, %v) = %f, expected %f", tc.a, tc.b, result, tc.expected)
			}
		})
	}
}

func floatEquals(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < tolerance
}
