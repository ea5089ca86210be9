package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"admissionrag/internal/adapter/memstore"
	"admissionrag/internal/domain"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
)

const boltFileName = "index.db"

// BoltIndex persists index entries in a bbolt file and serves searches from
// memory. The database is opened per Build/Load, so no file lock is held
// while the index is only being queried.
type BoltIndex struct {
	path        string
	fingerprint string
	mem         *memstore.Index
}

func NewBoltIndex(dir, fingerprint string) *BoltIndex {
	return &BoltIndex{
		path:        filepath.Join(dir, boltFileName),
		fingerprint: fingerprint,
		mem:         memstore.NewIndex(),
	}
}

// Build writes the entries to a fresh database file and swaps it in place of
// the old one, so a corrupt or stale file never survives a rebuild. Keys are
// big-endian sequence numbers so iteration order equals insertion order.
func (s *BoltIndex) Build(ctx context.Context, entries []domain.IndexEntry) error {
	dim, err := memstore.CheckEntries(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := writeBolt(ctx, tmp, entries, &SchemaInfo{
		Version:     CurrentSchemaVersion,
		Fingerprint: s.fingerprint,
		Dimension:   dim,
		Count:       len(entries),
	}); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace index: %w", err)
	}

	return s.mem.Build(ctx, entries)
}

func writeBolt(ctx context.Context, path string, entries []domain.IndexEntry, info *SchemaInfo) error {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		for i, e := range entries {
			if i%256 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			binary.BigEndian.PutUint64(key, uint64(i))
			if err := b.Put(key, data); err != nil {
				return err
			}
		}

		return writeSchemaInfo(tx, info)
	})
}

// Load reads the persisted index into memory.
func (s *BoltIndex) Load(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrIndexNotFound
		}
		return err
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return fmt.Errorf("failed to open bolt db: %w", err)
		}
		return fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	defer db.Close()

	var entries []domain.IndexEntry
	err = db.View(func(tx *bbolt.Tx) error {
		info, err := readSchemaInfo(tx)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
		}
		if m := CheckMigration(info, s.fingerprint); m.NeedsRebuild {
			return fmt.Errorf("%w: %s", domain.ErrIndexStale, m.Reason)
		}
		if info.Count == 0 {
			return domain.ErrIndexNotFound
		}

		b := tx.Bucket(bucketEntries)
		if b == nil {
			return fmt.Errorf("%w: entries bucket missing", domain.ErrIndexCorrupt)
		}
		entries = make([]domain.IndexEntry, 0, info.Count)
		err = b.ForEach(func(k, v []byte) error {
			var e domain.IndexEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("%w: entry %x: %v", domain.ErrIndexCorrupt, k, err)
			}
			if len(e.Vector) != info.Dimension {
				return fmt.Errorf("%w: entry %s has dimension %d, expected %d",
					domain.ErrIndexCorrupt, e.ID, len(e.Vector), info.Dimension)
			}
			entries = append(entries, e)
			return nil
		})
		if err != nil {
			return err
		}
		if len(entries) != info.Count {
			return fmt.Errorf("%w: %d entries stored, meta says %d", domain.ErrIndexCorrupt, len(entries), info.Count)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.mem.Build(ctx, entries)
}

func (s *BoltIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredEntry, error) {
	return s.mem.Search(ctx, query, k)
}

func (s *BoltIndex) Count() int {
	return s.mem.Count()
}

func (s *BoltIndex) Close() error {
	return s.mem.Close()
}
