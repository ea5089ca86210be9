package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"admissionrag/config"
	"admissionrag/internal/adapter/scraper"
	"admissionrag/internal/domain"
	"admissionrag/internal/tui"
)

func TestResolveQuestion(t *testing.T) {
	q, err := resolveQuestion([]string{"경제학과 경쟁률"}, "ignored", "1")
	require.NoError(t, err)
	require.Equal(t, "경제학과 경쟁률", q)

	q, err = resolveQuestion(nil, "수시 일정", "")
	require.NoError(t, err)
	require.Equal(t, "수시 일정", q)

	q, err = resolveQuestion(nil, "", "2")
	require.NoError(t, err)
	require.Equal(t, tui.Presets[1].Question, q)

	_, err = resolveQuestion(nil, "", "9")
	require.Error(t, err)

	_, err = resolveQuestion(nil, "  ", "")
	require.Error(t, err)
}

func TestScrapeTargets(t *testing.T) {
	cfg := config.DefaultConfig()
	require.Equal(t, scraper.DefaultTargets, scrapeTargets(cfg, nil))

	cfg.Sources = append(cfg.Sources,
		config.SourceConfig{Kind: "scrape", URL: "https://example.com/a"},
		config.SourceConfig{Kind: "scrape", Path: "pages/b.html"},
	)
	require.Equal(t, []string{"https://example.com/a", "pages/b.html"}, scrapeTargets(cfg, nil))
	require.Equal(t, []string{"https://x"}, scrapeTargets(cfg, []string{"https://x"}))
}

func TestAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("MY_KEY", "custom")

	require.Equal(t, "sk-openai", apiKey("openai", "OPENAI_API_KEY"))
	require.Equal(t, "gm-key", apiKey("gemini", "OPENAI_API_KEY"))
	require.Equal(t, "custom", apiKey("gemini", "MY_KEY"))
	require.Equal(t, "sk-openai", apiKey("openai", ""))
}

func TestSourcesFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sources = []config.SourceConfig{
		{Kind: "text", Label: "입시 자료", Path: "data/data.txt"},
		{Kind: "pdf", Path: "/abs/guide.pdf"},
		{Kind: "scrape", Label: "2024 수시 경쟁률", URL: "https://example.com"},
	}

	sources := sourcesFromConfig(cfg, "/bot")
	require.Equal(t, filepath.Join("/bot", "data", "data.txt"), sources[0].Path)
	require.Equal(t, "/abs/guide.pdf", sources[1].Path)
	require.Equal(t, domain.KindScrape, sources[2].Kind)
	require.Equal(t, "", sources[2].Path)
}

func TestNewAssistantOffline(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "data.txt"),
		[]byte("세종대학교 2024학년도 경제학과 경쟁률은 3.5:1이다."), 0644))

	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "hash"
	cfg.Embedding.Model = "hash"
	cfg.Generation.Provider = "echo"
	cfg.Index.Backend = "chromem"
	cfg.Retrieve.MMRLambda = 0.7

	assistant, err := newAssistant(context.Background(), cfg, root, assistantOptions{topK: 1})
	require.NoError(t, err)
	defer assistant.Close()

	answer, err := assistant.Answer(context.Background(), "경제학과 경쟁률 알려줘")
	require.NoError(t, err)
	require.Contains(t, answer.Text, "3.5:1")
	require.Equal(t, []string{"입시 자료"}, answer.Sources)
	require.DirExists(t, filepath.Join(root, ".rag", "chromem"))
}

func TestNewAssistantMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := config.DefaultConfig()
	_, err := newAssistant(context.Background(), cfg, t.TempDir(), assistantOptions{})
	require.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
}

func TestUnknownProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "word2vec"
	_, err := newEmbedder(context.Background(), cfg)
	require.Error(t, err)

	cfg.Generation.Provider = "llama"
	_, err = newGenerator(context.Background(), cfg)
	require.Error(t, err)

	cfg.Index.Backend = "faiss"
	_, err = newIndex(cfg, t.TempDir())
	require.Error(t, err)
}

func TestDefaultModelsFollowProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "rag.yaml"),
		[]byte("embedding:\n  provider: gemini\ngeneration:\n  provider: gemini\n"), 0644))
	cfg, err := config.LoadFromDir(root)
	require.NoError(t, err)

	emb, err := newEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, "text-embedding-004", emb.ModelName())
	gen, err := newGenerator(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, "gemini-2.0-flash", gen.ModelName())

	cfg = config.DefaultConfig()
	emb, err = newEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, "text-embedding-3-small", emb.ModelName())
	gen, err = newGenerator(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", gen.ModelName())
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.yaml")
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "hash"

	require.NoError(t, writeConfig(cfg, path, false))
	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "hash", loaded.Embedding.Provider)

	require.Error(t, writeConfig(cfg, path, false), "existing file is kept without --force")
	cfg.Embedding.Provider = "openai"
	require.NoError(t, writeConfig(cfg, path, true))
	loaded, err = config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "openai", loaded.Embedding.Provider)
}

func TestBenchStats(t *testing.T) {
	var stats benchStats
	stats.add([]domain.ScoredEntry{{Score: 0.8}, {Score: 0.4}})
	stats.add(nil)
	stats.add([]domain.ScoredEntry{{Score: 0.6}})

	require.Equal(t, 3, stats.queries)
	require.Equal(t, 2, stats.answered)
	require.InDelta(t, 0.7, stats.meanTop1(), 1e-9, "queries without results do not count")
	require.InDelta(t, 0.6, stats.average(), 1e-9)

	require.Zero(t, (&benchStats{}).meanTop1())
}

func TestRating(t *testing.T) {
	require.Equal(t, "HIGH", rating(0.9))
	require.Equal(t, "GOOD", rating(0.6))
	require.Equal(t, "OK", rating(0.4))
	require.Equal(t, "LOW", rating(0.1))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "경제학과", truncate("경제학과", 4))
	require.Equal(t, "경제...", truncate("경제학과", 2))
}
