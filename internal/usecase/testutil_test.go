package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"admissionrag/internal/adapter/chunker"
	"admissionrag/internal/adapter/embedding"
	"admissionrag/internal/adapter/llm"
	"admissionrag/internal/adapter/loader"
	"admissionrag/internal/adapter/retriever"
	"admissionrag/internal/adapter/store"
	"admissionrag/internal/domain"
	"admissionrag/internal/port"
)

const (
	econText    = "세종대학교 2024학년도 경제학과 경쟁률은 3.5:1이다."
	addressText = "입학처 주소는 서울특별시 광진구 능동로 209 대양AI센터"
	bizText     = "경영학부 모집인원은 45명이며 수능 최저기준을 적용한다."
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// writeCorpus creates three admissions files and returns a text source over them.
func writeCorpus(t *testing.T, dir string) domain.Source {
	t.Helper()
	writeFile(t, filepath.Join(dir, "data", "1_econ.txt"), econText)
	writeFile(t, filepath.Join(dir, "data", "2_address.txt"), addressText)
	writeFile(t, filepath.Join(dir, "data", "3_biz.txt"), bizText)
	return domain.Source{Kind: domain.KindText, Label: "입시 자료", Path: filepath.Join(dir, "data")}
}

// countingIndex counts Build calls on the wrapped index.
type countingIndex struct {
	port.VectorIndex
	builds int32
}

func (c *countingIndex) Build(ctx context.Context, entries []domain.IndexEntry) error {
	atomic.AddInt32(&c.builds, 1)
	return c.VectorIndex.Build(ctx, entries)
}

func (c *countingIndex) Builds() int {
	return int(atomic.LoadInt32(&c.builds))
}

// newTestAssistant wires an offline assistant: hash embeddings, a bolt index
// under indexDir and the echo generator.
func newTestAssistant(t *testing.T, indexDir, fingerprint string, sources []domain.Source, topK int) (*Assistant, *countingIndex) {
	t.Helper()

	chk, err := chunker.NewRecursiveChunker(300, 80, nil)
	require.NoError(t, err)

	emb := embedding.NewHashEmbedder(256)
	idx := &countingIndex{VectorIndex: store.NewBoltIndex(indexDir, fingerprint)}
	indexer := NewIndexUseCase(loader.New(nil), chk, emb, idx, sources, 2, NoRetry)

	prompts, err := NewPromptAssembler("", "")
	require.NoError(t, err)

	a := NewAssistant(idx, indexer, retriever.NewSemanticRetriever(idx, emb), prompts,
		llm.NewEchoGenerator(), AssistantOptions{TopK: topK, Retry: NoRetry})
	t.Cleanup(func() { a.Close() })
	return a, idx
}
