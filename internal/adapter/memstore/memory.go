package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"admissionrag/internal/domain"
)

// Index is an in-memory vector index with exhaustive cosine search. It does
// not persist anything; Load is a no-op that reports whether entries exist.
type Index struct {
	mu      sync.RWMutex
	entries []domain.IndexEntry
	norms   []float64
	dim     int
}

func NewIndex() *Index {
	return &Index{}
}

// Build replaces the contents of the index.
func (idx *Index) Build(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dim, err := CheckEntries(entries)
	if err != nil {
		return err
	}

	norms := make([]float64, len(entries))
	copied := make([]domain.IndexEntry, len(entries))
	for i, e := range entries {
		copied[i] = e
		norms[i] = norm(e.Vector)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = copied
	idx.norms = norms
	idx.dim = dim
	return nil
}

func (idx *Index) Load(ctx context.Context) error {
	if idx.Count() == 0 {
		return domain.ErrIndexNotFound
	}
	return nil
}

// Search returns the k entries most similar to query, highest score first.
// Equal scores keep insertion order.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), idx.dim)
	}

	qNorm := norm(query)
	results := make([]domain.ScoredEntry, len(idx.entries))
	for i, e := range idx.entries {
		results[i] = domain.ScoredEntry{
			Entry: e,
			Score: cosine(query, qNorm, e.Vector, idx.norms[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Entries returns the indexed entries in insertion order.
func (idx *Index) Entries() []domain.IndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]domain.IndexEntry(nil), idx.entries...)
}

func (idx *Index) Close() error {
	return nil
}

// CheckEntries checks that entry IDs are unique and that all entries share
// one vector dimension, and returns that dimension.
func CheckEntries(entries []domain.IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	dim := len(entries[0].Vector)
	if dim == 0 {
		return 0, fmt.Errorf("entry %s has an empty vector", entries[0].ID)
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if len(e.Vector) != dim {
			return 0, fmt.Errorf("entry %s has dimension %d, expected %d", e.ID, len(e.Vector), dim)
		}
		if _, dup := seen[e.ID]; dup {
			return 0, fmt.Errorf("duplicate entry id %s", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return dim, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
