package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"admissionrag/internal/domain"
	"admissionrag/internal/port"
)

func testEntries() []domain.IndexEntry {
	return []domain.IndexEntry{
		{ID: "e1", Vector: []float32{1, 0, 0}, Text: "경제학과 경쟁률은 3.5:1", Source: "2024 수시 경쟁률"},
		{ID: "e2", Vector: []float32{0, 1, 0}, Text: "학생부종합전형 서류 100%", Source: "PDF", Metadata: map[string]string{"page": "3"}},
		{ID: "e3", Vector: []float32{0.6, 0.8, 0}, Text: "경영학부 경쟁률은 7.1:1", Source: "2024 수시 경쟁률"},
		{ID: "e4", Vector: []float32{0, 0, 1}, Text: "입학처 문의 02-3408-3456", Source: "입시 자료"},
		{ID: "e5", Vector: []float32{3, 0, 0}, Text: "경제학과 모집인원 20명", Source: "입시 자료"},
	}
}

type backend struct {
	name string
	open func(dir, fingerprint string) port.VectorIndex
}

var backends = []backend{
	{"bolt", func(dir, fp string) port.VectorIndex { return NewBoltIndex(dir, fp) }},
	{"chromem", func(dir, fp string) port.VectorIndex { return NewChromemIndex(dir, fp) }},
}

func ids(results []domain.ScoredEntry) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Entry.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildLoadRoundTrip(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			built := be.open(dir, "fp1")
			if err := built.Build(ctx, testEntries()); err != nil {
				t.Fatalf("build: %v", err)
			}
			if built.Count() != 5 {
				t.Errorf("expected 5 entries, got %d", built.Count())
			}

			queries := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.5, 0.5, 0.1}}
			var before [][]string
			for _, q := range queries {
				results, err := built.Search(ctx, q, 3)
				if err != nil {
					t.Fatal(err)
				}
				before = append(before, ids(results))
			}
			built.Close()

			loaded := be.open(dir, "fp1")
			if err := loaded.Load(ctx); err != nil {
				t.Fatalf("load: %v", err)
			}
			defer loaded.Close()

			if loaded.Count() != 5 {
				t.Errorf("expected 5 entries after load, got %d", loaded.Count())
			}
			for i, q := range queries {
				results, err := loaded.Search(ctx, q, 3)
				if err != nil {
					t.Fatal(err)
				}
				if got := ids(results); !equalIDs(got, before[i]) {
					t.Errorf("query %d: expected %v after reload, got %v", i, before[i], got)
				}
			}
		})
	}
}

func TestSearchOrderAndTies(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			ctx := context.Background()
			idx := be.open(t.TempDir(), "fp1")
			if err := idx.Build(ctx, testEntries()); err != nil {
				t.Fatal(err)
			}

			results, err := idx.Search(ctx, []float32{1, 0, 0}, 3)
			if err != nil {
				t.Fatal(err)
			}
			// e1 and e5 point the same way; insertion order breaks the tie
			want := []string{"e1", "e5", "e3"}
			if got := ids(results); !equalIDs(got, want) {
				t.Errorf("expected %v, got %v", want, got)
			}
			for i := 1; i < len(results); i++ {
				if results[i].Score > results[i-1].Score {
					t.Errorf("results not sorted descending at %d", i)
				}
			}
			if results[0].Entry.Source != "2024 수시 경쟁률" || results[0].Entry.Text != "경제학과 경쟁률은 3.5:1" {
				t.Errorf("entry payload not preserved: %+v", results[0].Entry)
			}
		})
	}
}

func TestSearchResultCount(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			ctx := context.Background()
			idx := be.open(t.TempDir(), "fp1")
			if err := idx.Build(ctx, testEntries()); err != nil {
				t.Fatal(err)
			}

			for _, k := range []int{1, 3, 5, 8} {
				results, err := idx.Search(ctx, []float32{0, 0, 1}, k)
				if err != nil {
					t.Fatal(err)
				}
				want := k
				if want > 5 {
					want = 5
				}
				if len(results) != want {
					t.Errorf("k=%d: expected %d results, got %d", k, want, len(results))
				}
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "absent")
			idx := be.open(dir, "fp1")
			if err := idx.Load(context.Background()); !errors.Is(err, domain.ErrIndexNotFound) {
				t.Errorf("expected ErrIndexNotFound, got %v", err)
			}
			if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
				t.Error("Load must not create the index directory")
			}
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			if err := be.open(dir, "fp1").Build(ctx, nil); err != nil {
				t.Fatal(err)
			}

			idx := be.open(dir, "fp1")
			if err := idx.Load(ctx); !errors.Is(err, domain.ErrIndexNotFound) {
				t.Errorf("expected ErrIndexNotFound for empty index, got %v", err)
			}
			results, err := idx.Search(ctx, []float32{1, 0, 0}, 3)
			if err != nil || len(results) != 0 {
				t.Errorf("expected no results and no error, got %d results, err %v", len(results), err)
			}
		})
	}
}

func TestLoadStale(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			if err := be.open(dir, "fp1").Build(ctx, testEntries()); err != nil {
				t.Fatal(err)
			}

			idx := be.open(dir, "fp2")
			if err := idx.Load(ctx); !errors.Is(err, domain.ErrIndexStale) {
				t.Errorf("expected ErrIndexStale, got %v", err)
			}

			// rebuilding with the new fingerprint makes it loadable again
			if err := idx.Build(ctx, testEntries()[:2]); err != nil {
				t.Fatal(err)
			}
			fresh := be.open(dir, "fp2")
			if err := fresh.Load(ctx); err != nil {
				t.Fatalf("load after rebuild: %v", err)
			}
			if fresh.Count() != 2 {
				t.Errorf("expected 2 entries after rebuild, got %d", fresh.Count())
			}
		})
	}
}

func TestBoltLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, boltFileName), []byte("definitely not a bolt file"), 0600); err != nil {
		t.Fatal(err)
	}

	idx := NewBoltIndex(dir, "fp1")
	if err := idx.Load(ctx); !errors.Is(err, domain.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt, got %v", err)
	}
	if err := idx.Build(ctx, testEntries()); err != nil {
		t.Fatalf("rebuild over corrupt file: %v", err)
	}
	if err := NewBoltIndex(dir, "fp1").Load(ctx); err != nil {
		t.Errorf("load after rebuild: %v", err)
	}
}

func TestChromemLoadCorruptMeta(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, chromemMetaName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewChromemIndex(dir, "fp1").Load(context.Background()); !errors.Is(err, domain.ErrIndexCorrupt) {
		t.Errorf("expected ErrIndexCorrupt, got %v", err)
	}
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	entries := []domain.IndexEntry{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{1, 0, 0}},
	}
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			if err := be.open(t.TempDir(), "fp1").Build(context.Background(), entries); err == nil {
				t.Error("expected error for mixed dimensions")
			}
		})
	}
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	entries := []domain.IndexEntry{
		{ID: "same", Vector: []float32{1, 0}},
		{ID: "same", Vector: []float32{0, 1}},
		{ID: "other", Vector: []float32{1, 1}},
	}
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := be.open(dir, "fp1").Build(context.Background(), entries); err == nil {
				t.Fatal("expected error for duplicate entry ids")
			}
			if err := be.open(dir, "fp1").Load(context.Background()); !errors.Is(err, domain.ErrIndexNotFound) {
				t.Errorf("rejected build should leave nothing behind, got %v", err)
			}
		})
	}
}

func TestCheckMigration(t *testing.T) {
	tests := []struct {
		name    string
		info    SchemaInfo
		rebuild bool
	}{
		{"current", SchemaInfo{Version: CurrentSchemaVersion, Fingerprint: "fp"}, false},
		{"old schema", SchemaInfo{Version: 0, Fingerprint: "fp"}, true},
		{"newer schema", SchemaInfo{Version: CurrentSchemaVersion + 1, Fingerprint: "fp"}, true},
		{"config changed", SchemaInfo{Version: CurrentSchemaVersion, Fingerprint: "other"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckMigration(&tt.info, "fp")
			if result.NeedsRebuild != tt.rebuild {
				t.Errorf("expected NeedsRebuild=%v, got %v (%s)", tt.rebuild, result.NeedsRebuild, result.Reason)
			}
		})
	}
}
