package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"admissionrag/internal/adapter/memstore"
	"admissionrag/internal/domain"
)

const (
	chromemDirName   = "chromem"
	chromemMetaName  = "chromem.json"
	chromemColl      = "admissions"
	metaKeySeq       = "seq"
	metaKeySource    = "source"
	metaKeyHNSWSpace = "hnsw:space"
)

// ChromemIndex stores entries in a persistent chromem-go collection. The
// schema info lives in a JSON file next to the database directory.
type ChromemIndex struct {
	dir         string
	fingerprint string

	mu   sync.RWMutex
	db   *chromem.DB
	coll *chromem.Collection
	dim  int
}

func NewChromemIndex(dir, fingerprint string) *ChromemIndex {
	return &ChromemIndex{
		dir:         dir,
		fingerprint: fingerprint,
	}
}

func (s *ChromemIndex) dbPath() string {
	return filepath.Join(s.dir, chromemDirName)
}

func (s *ChromemIndex) metaPath() string {
	return filepath.Join(s.dir, chromemMetaName)
}

func (s *ChromemIndex) Build(ctx context.Context, entries []domain.IndexEntry) error {
	dim, err := memstore.CheckEntries(entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a stale or unreadable database is dropped entirely
	os.Remove(s.metaPath())
	if err := os.RemoveAll(s.dbPath()); err != nil {
		return fmt.Errorf("failed to clear chromem db: %w", err)
	}
	s.db, s.coll = nil, nil

	db, err := chromem.NewPersistentDB(s.dbPath(), false)
	if err != nil {
		return fmt.Errorf("failed to open chromem db: %w", err)
	}
	coll, err := db.CreateCollection(chromemColl, map[string]string{metaKeyHNSWSpace: "cosine"}, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if len(entries) > 0 {
		ids := make([]string, len(entries))
		vectors := make([][]float32, len(entries))
		metadatas := make([]map[string]string, len(entries))
		contents := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
			vectors[i] = append([]float32(nil), e.Vector...)
			contents[i] = e.Text

			meta := make(map[string]string, len(e.Metadata)+2)
			for k, v := range e.Metadata {
				meta[k] = v
			}
			meta[metaKeySeq] = strconv.Itoa(i)
			meta[metaKeySource] = e.Source
			metadatas[i] = meta
		}
		if err := coll.Add(ctx, ids, vectors, metadatas, contents); err != nil {
			return fmt.Errorf("failed to add entries: %w", err)
		}
	}

	data, err := json.Marshal(SchemaInfo{
		Version:     CurrentSchemaVersion,
		Fingerprint: s.fingerprint,
		Dimension:   dim,
		Count:       len(entries),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.metaPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write index meta: %w", err)
	}

	s.db, s.coll, s.dim = db, coll, dim
	return nil
}

func (s *ChromemIndex) Load(ctx context.Context) error {
	data, err := os.ReadFile(s.metaPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrIndexNotFound
		}
		return err
	}

	var info SchemaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	if m := CheckMigration(&info, s.fingerprint); m.NeedsRebuild {
		return fmt.Errorf("%w: %s", domain.ErrIndexStale, m.Reason)
	}
	if info.Count == 0 {
		return domain.ErrIndexNotFound
	}

	db, err := chromem.NewPersistentDB(s.dbPath(), false)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	coll := db.GetCollection(chromemColl, nil)
	if coll == nil {
		return fmt.Errorf("%w: collection %s missing", domain.ErrIndexCorrupt, chromemColl)
	}
	if coll.Count() != info.Count {
		return fmt.Errorf("%w: %d entries stored, meta says %d", domain.ErrIndexCorrupt, coll.Count(), info.Count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.db, s.coll, s.dim = db, coll, info.Dimension
	return nil
}

// Search queries the whole collection and orders by similarity, then by
// insertion sequence, so ties resolve the same way as the bolt backend.
func (s *ChromemIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.coll == nil || k <= 0 {
		return nil, nil
	}
	n := s.coll.Count()
	if n == 0 {
		return nil, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), s.dim)
	}

	results, err := s.coll.QueryEmbedding(ctx, append([]float32(nil), query...), n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	type ranked struct {
		entry domain.ScoredEntry
		seq   int
	}
	ranks := make([]ranked, len(results))
	for i, r := range results {
		meta := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		seq, _ := strconv.Atoi(meta[metaKeySeq])
		source := meta[metaKeySource]
		delete(meta, metaKeySeq)
		delete(meta, metaKeySource)
		if len(meta) == 0 {
			meta = nil
		}

		ranks[i] = ranked{
			entry: domain.ScoredEntry{
				Entry: domain.IndexEntry{
					ID:       r.ID,
					Vector:   r.Embedding,
					Text:     r.Content,
					Source:   source,
					Metadata: meta,
				},
				Score: float64(r.Similarity),
			},
			seq: seq,
		}
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].entry.Score != ranks[j].entry.Score {
			return ranks[i].entry.Score > ranks[j].entry.Score
		}
		return ranks[i].seq < ranks[j].seq
	})

	if len(ranks) > k {
		ranks = ranks[:k]
	}
	out := make([]domain.ScoredEntry, len(ranks))
	for i, r := range ranks {
		out[i] = r.entry
	}
	return out, nil
}

func (s *ChromemIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return 0
	}
	return s.coll.Count()
}

func (s *ChromemIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db, s.coll = nil, nil
	return nil
}
