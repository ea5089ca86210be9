package retriever

import (
	"admissionrag/internal/adapter/analyzer"
	"admissionrag/internal/domain"
)

// MMRReranker implements Maximal Marginal Relevance for result diversification.
// Similarity between passages is the Jaccard overlap of their word and
// bigram features, so overlapping neighbour chunks count as near-duplicates.
type MMRReranker struct {
	lambda       float64
	dedupJaccard float64
	tokenizer    *analyzer.Tokenizer
}

// NewMMRReranker creates a new MMR reranker. Candidates whose overlap with an
// already selected passage exceeds dedupJaccard are dropped; 0 disables that.
func NewMMRReranker(lambda, dedupJaccard float64) *MMRReranker {
	return &MMRReranker{
		lambda:       lambda,
		dedupJaccard: dedupJaccard,
		tokenizer:    analyzer.NewTokenizer(),
	}
}

// Rerank applies MMR to diversify the results.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
func (r *MMRReranker) Rerank(candidates []domain.ScoredEntry, k int) []domain.ScoredEntry {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	// Normalize scores to [0, 1] for fair comparison
	maxScore := candidates[0].Score
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	features := make([]map[string]struct{}, len(candidates))
	for i, c := range candidates {
		features[i] = toSet(r.tokenizer.Features(c.Entry.Text))
	}

	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))

	for len(selected) < k {
		bestIdx := -1
		bestMMR := -1e9

		for i, c := range candidates {
			if used[i] {
				continue
			}
			relevance := c.Score / maxScore

			maxSim := 0.0
			for _, s := range selected {
				if sim := jaccard(features[i], features[s]); sim > maxSim {
					maxSim = sim
				}
			}
			if r.dedupJaccard > 0 && maxSim > r.dedupJaccard {
				continue
			}

			mmr := r.lambda*relevance - (1-r.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// everything left is a near-duplicate
			break
		}
		selected = append(selected, bestIdx)
		used[bestIdx] = true
	}

	out := make([]domain.ScoredEntry, len(selected))
	for i, idx := range selected {
		out[i] = candidates[idx]
	}
	return out
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// jaccard computes the Jaccard similarity between two feature sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
