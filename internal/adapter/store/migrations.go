package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyFingerprint   = []byte("fingerprint")
	keyDimension     = []byte("dimension")
	keyCount         = []byte("count")
)

// SchemaInfo describes a persisted index.
type SchemaInfo struct {
	Version     int    `json:"version"`
	Fingerprint string `json:"fingerprint"`
	Dimension   int    `json:"dimension"`
	Count       int    `json:"count"`
}

// readSchemaInfo reads the schema info from the meta bucket.
func readSchemaInfo(tx *bbolt.Tx) (*SchemaInfo, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return nil, fmt.Errorf("meta bucket missing")
	}

	var info SchemaInfo
	if data := b.Get(keySchemaVersion); data != nil {
		if err := json.Unmarshal(data, &info.Version); err != nil {
			return nil, fmt.Errorf("decode schema version: %w", err)
		}
	}
	info.Fingerprint = string(b.Get(keyFingerprint))

	var err error
	if info.Dimension, err = atoiKey(b, keyDimension); err != nil {
		return nil, err
	}
	if info.Count, err = atoiKey(b, keyCount); err != nil {
		return nil, err
	}
	return &info, nil
}

// writeSchemaInfo stores the schema info in the meta bucket.
func writeSchemaInfo(tx *bbolt.Tx, info *SchemaInfo) error {
	b, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return err
	}

	versionData, err := json.Marshal(info.Version)
	if err != nil {
		return err
	}
	if err := b.Put(keySchemaVersion, versionData); err != nil {
		return err
	}
	if err := b.Put(keyFingerprint, []byte(info.Fingerprint)); err != nil {
		return err
	}
	if err := b.Put(keyDimension, []byte(strconv.Itoa(info.Dimension))); err != nil {
		return err
	}
	return b.Put(keyCount, []byte(strconv.Itoa(info.Count)))
}

func atoiKey(b *bbolt.Bucket, key []byte) (int, error) {
	data := b.Get(key)
	if data == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", key, err)
	}
	return n, nil
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsRebuild bool
	OldVersion   int
	NewVersion   int
	Reason       string
}

// CheckMigration decides whether a persisted index can be served as is.
// Indexes carry embeddings, so any schema or configuration change requires
// a rebuild rather than an in-place migration.
func CheckMigration(info *SchemaInfo, fingerprint string) *MigrationResult {
	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version < CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", info.Version, CurrentSchemaVersion)
	case info.Version > CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("index created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
	case info.Fingerprint != fingerprint:
		result.NeedsRebuild = true
		result.Reason = "index configuration changed"
	}
	return result
}
