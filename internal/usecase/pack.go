package usecase

import (
	"strings"
	"unicode/utf8"

	"admissionrag/internal/domain"
)

// PackUseCase turns retrieval results into prompt snippets.
type PackUseCase struct {
	budget int // characters; 0 = unlimited
}

// NewPackUseCase creates a pack use case with a character budget.
func NewPackUseCase(budget int) *PackUseCase {
	if budget < 0 {
		budget = 0
	}
	return &PackUseCase{budget: budget}
}

// Pack keeps results in rank order, drops repeats of an entry ID or of an
// identical text, and skips snippets that would exceed the budget.
func (u *PackUseCase) Pack(query string, results []domain.ScoredEntry) domain.PackedContext {
	packed := domain.PackedContext{
		Query:    query,
		Budget:   u.budget,
		Snippets: []domain.Snippet{},
	}

	seenIDs := make(map[string]struct{}, len(results))
	seenTexts := make(map[string]struct{}, len(results))

	for _, r := range results {
		text := strings.TrimSpace(r.Entry.Text)
		if text == "" {
			continue
		}
		if _, dup := seenIDs[r.Entry.ID]; dup && r.Entry.ID != "" {
			continue
		}
		if _, dup := seenTexts[text]; dup {
			continue
		}

		size := utf8.RuneCountInString(text)
		if u.budget > 0 && packed.Used+size > u.budget {
			continue // a shorter, lower-ranked snippet may still fit
		}

		seenIDs[r.Entry.ID] = struct{}{}
		seenTexts[text] = struct{}{}
		packed.Snippets = append(packed.Snippets, domain.Snippet{
			Source: r.Entry.Source,
			Score:  r.Score,
			Text:   text,
		})
		packed.Used += size
	}

	return packed
}

// Sources returns the distinct source labels of the snippets in order.
func Sources(snippets []domain.Snippet) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range snippets {
		if s.Source == "" {
			continue
		}
		if _, ok := seen[s.Source]; ok {
			continue
		}
		seen[s.Source] = struct{}{}
		out = append(out, s.Source)
	}
	return out
}
