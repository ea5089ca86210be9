package cli

import (
	"context"
	"fmt"
	"os"

	"admissionrag/config"
	"admissionrag/internal/adapter/cache"
	"admissionrag/internal/adapter/chunker"
	"admissionrag/internal/adapter/embedding"
	"admissionrag/internal/adapter/llm"
	"admissionrag/internal/adapter/loader"
	"admissionrag/internal/adapter/retriever"
	"admissionrag/internal/adapter/scraper"
	"admissionrag/internal/adapter/store"
	"admissionrag/internal/domain"
	"admissionrag/internal/port"
	"admissionrag/internal/usecase"
)

// apiKey reads the key for provider from the configured env var. Gemini
// falls back to GEMINI_API_KEY when the env var was left at the OpenAI default.
func apiKey(provider, envName string) string {
	if provider == "gemini" && (envName == "" || envName == "OPENAI_API_KEY") {
		envName = "GEMINI_API_KEY"
	}
	if envName == "" {
		envName = "OPENAI_API_KEY"
	}
	return os.Getenv(envName)
}

// modelLabel names a configured model for display.
func modelLabel(model string) string {
	if model == "" {
		return "provider default"
	}
	return model
}

func newEmbedder(ctx context.Context, cfg *config.Config) (port.EmbeddingProvider, error) {
	ec := cfg.Embedding
	switch ec.Provider {
	case "openai", "":
		return embedding.NewOpenAIEmbedder(apiKey(ec.Provider, ec.APIKeyEnv), ec.Model, ec.BaseURL, ec.BatchSize, ec.Timeout)
	case "gemini":
		return embedding.NewGeminiEmbedder(ctx, apiKey(ec.Provider, ec.APIKeyEnv), ec.Model, ec.BatchSize, ec.Timeout)
	case "hash":
		return embedding.NewHashEmbedder(ec.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (port.GenerationProvider, error) {
	gc := cfg.Generation
	switch gc.Provider {
	case "openai", "":
		return llm.NewOpenAIGenerator(apiKey(gc.Provider, gc.APIKeyEnv), gc.Model, gc.BaseURL, gc.Temperature, gc.Timeout)
	case "gemini":
		return llm.NewGeminiGenerator(ctx, apiKey(gc.Provider, gc.APIKeyEnv), gc.Model, gc.Temperature, gc.Timeout)
	case "echo":
		return llm.NewEchoGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", gc.Provider)
	}
}

func newIndex(cfg *config.Config, root string) (port.VectorIndex, error) {
	dir := cfg.IndexDir(root)
	switch cfg.Index.Backend {
	case "bolt", "":
		return store.NewBoltIndex(dir, cfg.Fingerprint()), nil
	case "chromem":
		return store.NewChromemIndex(dir, cfg.Fingerprint()), nil
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", cfg.Index.Backend)
	}
}

// sourcesFromConfig resolves configured source paths against root.
func sourcesFromConfig(cfg *config.Config, root string) []domain.Source {
	sources := make([]domain.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		sources = append(sources, domain.Source{
			Kind:    sc.Kind,
			Label:   sc.Label,
			Path:    config.ResolvePath(root, sc.Path),
			URL:     sc.URL,
			Include: sc.Include,
			Exclude: sc.Exclude,
		})
	}
	return sources
}

func retryPolicy(cfg *config.Config) usecase.RetryPolicy {
	return usecase.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff:     cfg.Retry.Backoff,
	}
}

// assistantOptions lets commands swap the generator or top-k.
type assistantOptions struct {
	generator port.GenerationProvider
	topK      int
}

// newAssistant wires the whole pipeline from configuration. The caller
// must Close the assistant.
func newAssistant(ctx context.Context, cfg *config.Config, root string, opts assistantOptions) (*usecase.Assistant, error) {
	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	generator := opts.generator
	if generator == nil {
		generator, err = newGenerator(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
	}

	chk, err := chunker.NewRecursiveChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap, cfg.Index.Separators)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	index, err := newIndex(cfg, root)
	if err != nil {
		return nil, err
	}

	fetcher := scraper.NewHTTPFetcher(cfg.Scrape.Timeout, cfg.Scrape.UserAgent)
	indexer := usecase.NewIndexUseCase(
		loader.New(fetcher),
		chk,
		embedder,
		index,
		sourcesFromConfig(cfg, root),
		cfg.Embedding.BatchSize,
		retryPolicy(cfg),
	)

	var ret port.Retriever = retriever.NewSemanticRetriever(index, embedder)
	if cfg.Retrieve.CacheSize > 0 {
		ret = cache.NewCachedRetriever(ret, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
	}

	prompts, err := usecase.NewPromptAssembler(cfg.Prompt.System, config.ResolvePath(root, cfg.Prompt.TemplateFile))
	if err != nil {
		return nil, err
	}

	topK := cfg.Retrieve.TopK
	if opts.topK > 0 {
		topK = opts.topK
	}

	options := usecase.AssistantOptions{
		TopK:          topK,
		MinScore:      cfg.Retrieve.MinScore,
		ContextBudget: cfg.Prompt.MaxContextChars,
		Retry:         retryPolicy(cfg),
	}
	if cfg.Retrieve.MMRLambda > 0 {
		options.Reranker = retriever.NewMMRReranker(cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard)
	}
	return usecase.NewAssistant(index, indexer, ret, prompts, generator, options), nil
}
