package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"admissionrag/internal/domain"
	"admissionrag/internal/logutil"
	"admissionrag/internal/port"
)

// QueryCache keeps recent retrieval results keyed by (query, k). Entries
// expire after ttl and the whole cache is purged when the index is rebuilt.
type QueryCache struct {
	lru *expirable.LRU[string, []domain.ScoredEntry]
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		lru: expirable.NewLRU[string, []domain.ScoredEntry](maxSize, nil, ttl),
	}
}

func cacheKey(query string, topK int) string {
	data := []byte(query)
	data = append(data, byte(topK>>8), byte(topK))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(query string, topK int) ([]domain.ScoredEntry, bool) {
	results, ok := c.lru.Get(cacheKey(query, topK))
	if !ok {
		return nil, false
	}
	return cloneResults(results), true
}

func (c *QueryCache) Put(query string, topK int, results []domain.ScoredEntry) {
	c.lru.Add(cacheKey(query, topK), cloneResults(results))
}

// Invalidate drops every cached result.
func (c *QueryCache) Invalidate() {
	c.lru.Purge()
}

func (c *QueryCache) Size() int {
	return c.lru.Len()
}

func cloneResults(results []domain.ScoredEntry) []domain.ScoredEntry {
	if results == nil {
		return nil
	}
	return append([]domain.ScoredEntry(nil), results...)
}

type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredEntry, error) {
	if results, hit := r.cache.Get(query, k); hit {
		logutil.GetLogger(ctx).Debug("retrieval cache hit", zap.String("query", query), zap.Int("k", k))
		return results, nil
	}

	results, err := r.retriever.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, k, results)

	return results, nil
}

// Invalidate purges cached results after the index changed.
func (r *CachedRetriever) Invalidate() {
	r.cache.Invalidate()
}
