package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"admissionrag/internal/domain"
	"admissionrag/internal/logutil"
	"admissionrag/internal/port"
)

// Build stages reported to the progress callback.
const (
	StageLoad  = "load"
	StageEmbed = "embed"
)

// ProgressFunc is called as sources are loaded and chunks embedded.
type ProgressFunc func(stage string, done, total int)

// IndexUseCase runs the ingestion pipeline: load, chunk, embed, build.
type IndexUseCase struct {
	loader    port.DocumentLoader
	chunker   port.Chunker
	embedder  port.EmbeddingProvider
	index     port.VectorIndex
	sources   []domain.Source
	batchSize int
	retry     RetryPolicy
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.EmbeddingProvider,
	index port.VectorIndex,
	sources []domain.Source,
	batchSize int,
	retry RetryPolicy,
) *IndexUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &IndexUseCase{
		loader:    loader,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		sources:   sources,
		batchSize: batchSize,
		retry:     retry,
	}
}

// BuildResult contains the results of an ingestion run.
type BuildResult struct {
	SourcesLoaded   int
	SourcesFailed   int
	Documents       int
	Chunks          int
	DuplicateChunks int // already produced by an earlier source
	Errors          []string
	Duration        time.Duration
}

// Build replaces the index with freshly embedded chunks of every source.
// A source that cannot be read is logged and skipped; an embedding failure
// aborts the build and leaves the previous index in place.
func (u *IndexUseCase) Build(ctx context.Context, progress ProgressFunc) (*BuildResult, error) {
	start := time.Now()
	logger := logutil.GetLogger(ctx)
	result := &BuildResult{}

	if progress == nil {
		progress = func(string, int, int) {}
	}

	var chunks []domain.Chunk
	seen := make(map[string]struct{})
	for i, src := range u.sources {
		docs, err := u.loader.Load(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var loadErr *domain.SourceLoadError
			if !errors.As(err, &loadErr) {
				return nil, err
			}
			logger.Warn("skipping source",
				zap.String("source", src.Name()),
				zap.String("kind", src.Kind),
				zap.Error(err))
			result.SourcesFailed++
			result.Errors = append(result.Errors, err.Error())
			progress(StageLoad, i+1, len(u.sources))
			continue
		}

		result.SourcesLoaded++
		result.Documents += len(docs)
		for _, doc := range docs {
			docChunks, err := u.chunker.Chunk(doc)
			if err != nil {
				return nil, fmt.Errorf("failed to chunk %s: %w", doc.Source, err)
			}
			// sources resolving to the same file yield the same chunk IDs
			for _, c := range docChunks {
				if _, dup := seen[c.ID]; dup {
					result.DuplicateChunks++
					continue
				}
				seen[c.ID] = struct{}{}
				chunks = append(chunks, c)
			}
		}
		progress(StageLoad, i+1, len(u.sources))
	}
	result.Chunks = len(chunks)

	entries, err := u.embedChunks(ctx, chunks, progress)
	if err != nil {
		return nil, err
	}

	if err := u.index.Build(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	result.Duration = time.Since(start)
	logger.Info("index built",
		zap.Int("sources", result.SourcesLoaded),
		zap.Int("failed_sources", result.SourcesFailed),
		zap.Int("documents", result.Documents),
		zap.Int("chunks", result.Chunks),
		zap.Int("duplicate_chunks", result.DuplicateChunks),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (u *IndexUseCase) embedChunks(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) ([]domain.IndexEntry, error) {
	entries := make([]domain.IndexEntry, 0, len(chunks))
	for i := 0; i < len(chunks); i += u.batchSize {
		end := i + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		var vectors [][]float32
		err := u.retry.Do(ctx, "embed", func(ctx context.Context) error {
			var err error
			vectors, err = u.embedder.Embed(ctx, texts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, domain.Unavailable("embedding", u.embedder.ModelName(),
				fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors)))
		}

		for j, c := range batch {
			entry := domain.IndexEntry{
				ID:     c.ID,
				Vector: vectors[j],
				Text:   c.Text,
				Source: c.Source,
				Metadata: map[string]string{
					"doc":   c.DocID,
					"chunk": strconv.Itoa(c.Index),
				},
			}
			if c.Page > 0 {
				entry.Metadata["page"] = strconv.Itoa(c.Page)
			}
			entries = append(entries, entry)
		}
		progress(StageEmbed, end, len(chunks))
	}
	return entries, nil
}
