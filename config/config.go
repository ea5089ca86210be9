package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the admissions assistant.
type Config struct {
	Sources    []SourceConfig   `yaml:"sources"`
	Index      IndexConfig      `yaml:"index"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Scrape     ScrapeConfig     `yaml:"scrape"`
	Retry      RetryConfig      `yaml:"retry"`
	Logging    LoggingConfig    `yaml:"logging"`
	EnvFile    string           `yaml:"env_file"`
}

// SourceConfig describes one ingestion source.
type SourceConfig struct {
	Kind    string   `yaml:"kind"` // "text", "pdf", "scrape"
	Label   string   `yaml:"label"`
	Path    string   `yaml:"path,omitempty"`
	URL     string   `yaml:"url,omitempty"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// IndexConfig holds chunking and vector index configuration.
type IndexConfig struct {
	Backend      string   `yaml:"backend"` // "bolt", "chromem"
	Dir          string   `yaml:"dir"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Separators   []string `yaml:"separators,omitempty"` // empty uses the chunker's defaults
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	MinScore  float64       `yaml:"min_score"` // 0 = disabled

	// MMR diversification of the prompt context; MMRLambda 0 disables it.
	MMRLambda    float64 `yaml:"mmr_lambda"`
	DedupJaccard float64 `yaml:"dedup_jaccard"`
}

// PromptConfig holds prompt assembly configuration.
type PromptConfig struct {
	System          string `yaml:"system"`
	TemplateFile    string `yaml:"template_file"`
	MaxContextChars int    `yaml:"max_context_chars"` // 0 = unlimited
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // "openai", "gemini", "hash"
	Model     string        `yaml:"model"`    // empty picks the provider's default
	APIKeyEnv string        `yaml:"api_key_env"`
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"` // used by the hash provider
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"` // "openai", "gemini", "echo"
	Model       string        `yaml:"model"`    // empty picks the provider's default
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ScrapeConfig holds settings for the scraper collaborator.
type ScrapeConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// RetryConfig bounds retries of failed embedding/generation calls.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console", "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sources: []SourceConfig{
			{Kind: "text", Label: "입시 자료", Path: "data/data.txt"},
		},
		Index: IndexConfig{
			Backend:      "bolt",
			Dir:          ".rag",
			ChunkSize:    300,
			ChunkOverlap: 80,
		},
		Retrieve: RetrieveConfig{
			TopK:      5,
			CacheSize: 128,
			CacheTTL:  10 * time.Minute,
		},
		Prompt: PromptConfig{
			MaxContextChars: 0,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 256,
			BatchSize: 100,
			Timeout:   30 * time.Second,
		},
		Generation: GenerationConfig{
			Provider:    "openai",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		Scrape: ScrapeConfig{
			Timeout:   20 * time.Second,
			UserAgent: "admissionrag/1.0",
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			Backoff:     500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		EnvFile: ".env",
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, chunk_size), got %d", c.Index.ChunkOverlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.MMRLambda < 0 || c.Retrieve.MMRLambda > 1 {
		return fmt.Errorf("retrieve.mmr_lambda must be in [0, 1], got %g", c.Retrieve.MMRLambda)
	}
	for i, src := range c.Sources {
		switch src.Kind {
		case "text", "pdf":
			if src.Path == "" {
				return fmt.Errorf("sources[%d]: %s source needs a path", i, src.Kind)
			}
		case "scrape":
			if src.URL == "" && src.Path == "" {
				return fmt.Errorf("sources[%d]: scrape source needs a url or path", i)
			}
		default:
			return fmt.Errorf("sources[%d]: unknown kind %q", i, src.Kind)
		}
	}
	return nil
}

// IndexDir returns the directory holding the persisted index.
func (c *Config) IndexDir(root string) string {
	if filepath.IsAbs(c.Index.Dir) {
		return c.Index.Dir
	}
	return filepath.Join(root, c.Index.Dir)
}

// ResolvePath resolves a config-relative path against root.
func ResolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// EnsureIndexDir ensures the index directory exists.
func (c *Config) EnsureIndexDir(root string) error {
	return os.MkdirAll(c.IndexDir(root), 0755)
}

// Fingerprint hashes the configuration that determines index contents.
// A persisted index with a different fingerprint must be rebuilt.
func (c *Config) Fingerprint() string {
	relevant := struct {
		ChunkSize    int      `json:"chunk_size"`
		ChunkOverlap int      `json:"chunk_overlap"`
		Separators   []string `json:"separators"`
		EmbProvider  string   `json:"emb_provider"`
		EmbModel     string   `json:"emb_model"`
		EmbDimension int      `json:"emb_dimension"`
	}{
		ChunkSize:    c.Index.ChunkSize,
		ChunkOverlap: c.Index.ChunkOverlap,
		Separators:   c.Index.Separators,
		EmbProvider:  c.Embedding.Provider,
		EmbModel:     c.Embedding.Model,
	}
	if c.Embedding.Provider == "hash" {
		relevant.EmbDimension = c.Embedding.Dimension
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
