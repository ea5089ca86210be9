package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"admissionrag/internal/domain"
	"admissionrag/internal/logutil"
	"admissionrag/internal/port"
)

// AssistantOptions tune retrieval and generation.
type AssistantOptions struct {
	TopK          int
	MinScore      float64
	ContextBudget int // characters of retrieved context; 0 = unlimited
	Retry         RetryPolicy

	// Reranker, when set, picks TopK diverse passages out of 2*TopK candidates.
	Reranker port.DiversityReranker
}

// Assistant owns the index and the providers for the lifetime of the
// process. Queries share a read lock; building takes the write lock, so a
// half-built index is never searched.
type Assistant struct {
	mu    sync.RWMutex
	ready bool

	index     port.VectorIndex
	indexer   *IndexUseCase
	retriever port.Retriever
	retrieve  *RetrieveUseCase
	packer    *PackUseCase
	prompts   *PromptAssembler
	generator port.GenerationProvider
	opts      AssistantOptions
}

// NewAssistant wires the query path. retriever must search index.
func NewAssistant(
	index port.VectorIndex,
	indexer *IndexUseCase,
	retriever port.Retriever,
	prompts *PromptAssembler,
	generator port.GenerationProvider,
	opts AssistantOptions,
) *Assistant {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Assistant{
		index:     index,
		indexer:   indexer,
		retriever: retriever,
		retrieve:  NewRetrieveUseCase(retriever, opts.Retry, opts.MinScore),
		packer:    NewPackUseCase(opts.ContextBudget),
		prompts:   prompts,
		generator: generator,
		opts:      opts,
	}
}

// EnsureIndex loads the persisted index, or builds a fresh one when it is
// missing, empty, corrupt or stale. It returns the build result when a
// build happened and nil otherwise. Later calls are no-ops.
func (a *Assistant) EnsureIndex(ctx context.Context, progress ProgressFunc) (*BuildResult, error) {
	a.mu.RLock()
	ready := a.ready
	a.mu.RUnlock()
	if ready {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil, nil
	}

	logger := logutil.GetLogger(ctx)
	err := a.index.Load(ctx)
	switch {
	case err == nil:
		logger.Info("index loaded", zap.Int("entries", a.index.Count()))
		a.ready = true
		return nil, nil
	case errors.Is(err, domain.ErrIndexNotFound),
		errors.Is(err, domain.ErrIndexCorrupt),
		errors.Is(err, domain.ErrIndexStale):
		logger.Info("building index", zap.String("reason", err.Error()))
		return a.rebuildLocked(ctx, progress)
	default:
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
}

// Rebuild runs the ingestion pipeline and replaces the index.
func (a *Assistant) Rebuild(ctx context.Context, progress ProgressFunc) (*BuildResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rebuildLocked(ctx, progress)
}

func (a *Assistant) rebuildLocked(ctx context.Context, progress ProgressFunc) (*BuildResult, error) {
	result, err := a.indexer.Build(ctx, progress)
	if err != nil {
		return nil, err
	}
	if inv, ok := a.retriever.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
	a.ready = true
	return result, nil
}

// Retrieve returns the top k index entries for query.
func (a *Assistant) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredEntry, error) {
	if _, err := a.EnsureIndex(ctx, nil); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.retrieve.Retrieve(ctx, query, k)
}

// Prompt retrieves context for query and renders the generation prompt.
func (a *Assistant) Prompt(ctx context.Context, query string) (string, domain.PackedContext, error) {
	candidates := a.opts.TopK
	if a.opts.Reranker != nil {
		candidates *= 2
	}
	results, err := a.Retrieve(ctx, query, candidates)
	if err != nil {
		return "", domain.PackedContext{}, err
	}
	if a.opts.Reranker != nil {
		results = a.opts.Reranker.Rerank(results, a.opts.TopK)
	}

	packed := a.packer.Pack(query, results)
	prompt, err := a.prompts.Assemble(query, packed.Snippets)
	if err != nil {
		return "", packed, err
	}
	return prompt, packed, nil
}

// Answer runs the whole query path: embed, search, assemble, generate.
func (a *Assistant) Answer(ctx context.Context, query string) (*domain.Answer, error) {
	prompt, packed, err := a.Prompt(ctx, query)
	if err != nil {
		return nil, err
	}

	var text string
	err = a.opts.Retry.Do(ctx, "generate", func(ctx context.Context) error {
		var err error
		text, err = a.generator.Generate(ctx, prompt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	logutil.GetLogger(ctx).Debug("answered",
		zap.String("query", query),
		zap.Int("snippets", len(packed.Snippets)),
		zap.String("model", a.generator.ModelName()))

	return &domain.Answer{
		Query:   packed.Query,
		Text:    text,
		Sources: Sources(packed.Snippets),
		Prompt:  prompt,
	}, nil
}

// Close releases the index.
func (a *Assistant) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ready = false
	return a.index.Close()
}
