package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gostrag/internal/domain"
)

// LLMConfig configures the completion provider. The wire contract is
// OpenAI-compatible, so any OpenRouter-style endpoint works.
type LLMConfig struct {
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the remote
// OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// OllamaEmbedderConfig holds configuration for a locally hosted
// embedding model served by Ollama.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// SQLiteConfig contains settings for the embedded vector store.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects the backend and fixes the collection
// identity. Dimension and metric are set once at creation; changing
// the dimension of an existing collection requires an overwrite.
type VectorStoreConfig struct {
	Type       string        `yaml:"type"`
	Collection string        `yaml:"collection"`
	Dimension  int           `yaml:"dimension"`
	Metric     string        `yaml:"metric"`
	SQLite     *SQLiteConfig `yaml:"sqlite,omitempty"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RAGConfig configures chunking and retrieval.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
	// PromptTemplate optionally overrides the grounded prompt. It must
	// contain {question} and {context} placeholders.
	PromptTemplate string `yaml:"prompt_template,omitempty"`
	// OnExisting decides what an index run does when the collection
	// already holds data: append, overwrite or error.
	OnExisting string `yaml:"on_existing"`
}

// RetryConfig configures the retry executor wrapping remote calls.
type RetryConfig struct {
	MaxRetries int     `yaml:"max_retries"`
	DelayMs    int     `yaml:"delay_ms"`
	Backoff    float64 `yaml:"backoff"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root application configuration. It is constructed once
// at startup and passed into component constructors; nothing reads it
// through a global.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	RAG         RAGConfig         `yaml:"rag"`
	Retry       RetryConfig       `yaml:"retry"`
	Server      ServerConfig      `yaml:"server"`
}

// Load reads a config from the given path. A missing file yields the
// defaults rather than an error, so the binaries run out of the box.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present:
// embedded sqlite store, remote OpenAI embeddings, OpenRouter LLM.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks the settings required by the selected components.
// Failures wrap domain.ErrConfig and are fatal at startup.
func (c *Config) Validate() error {
	if os.Getenv(c.LLM.APIKeyEnv) == "" {
		return fmt.Errorf("%w: %s is not set", domain.ErrConfig, c.LLM.APIKeyEnv)
	}
	if c.Embedder.Type == "openai" && os.Getenv(c.Embedder.OpenAI.APIKeyEnv) == "" {
		return fmt.Errorf("%w: %s is not set", domain.ErrConfig, c.Embedder.OpenAI.APIKeyEnv)
	}
	if c.VectorStore.Dimension <= 0 {
		return fmt.Errorf("%w: vector_store.dimension must be positive, got %d", domain.ErrConfig, c.VectorStore.Dimension)
	}
	if _, err := domain.ParseMetric(c.VectorStore.Metric); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be less than chunk_size (%d)", domain.ErrConfig, c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	switch c.RAG.OnExisting {
	case "append", "overwrite", "error":
	default:
		return fmt.Errorf("%w: rag.on_existing must be append, overwrite or error, got %q", domain.ErrConfig, c.RAG.OnExisting)
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("%w: retry.max_retries must be at least 1", domain.ErrConfig)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "anthropic/claude-3.5-sonnet"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4096
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "EMBEDDING_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.BatchSize == 0 {
			o.BatchSize = 32
		}
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		o := cfg.Embedder.Ollama
		if o.BaseURL == "" {
			o.BaseURL = "http://localhost:11434"
		}
		if o.Model == "" {
			o.Model = "nomic-embed-text"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 120
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "gost_documents"
	}
	if cfg.VectorStore.Dimension == 0 {
		cfg.VectorStore.Dimension = 1536
	}
	if cfg.VectorStore.Metric == "" {
		cfg.VectorStore.Metric = string(domain.MetricCosine)
	}
	if cfg.VectorStore.Type == "sqlite" {
		if cfg.VectorStore.SQLite == nil {
			cfg.VectorStore.SQLite = &SQLiteConfig{}
		}
		if cfg.VectorStore.SQLite.Path == "" {
			cfg.VectorStore.SQLite.Path = "gostrag.db"
		}
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		q := cfg.VectorStore.Qdrant
		if q.URL == "" {
			q.URL = "http://localhost:6333"
		}
		if q.APIKeyEnv == "" {
			q.APIKeyEnv = "QDRANT_API_KEY"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.OnExisting == "" {
		cfg.RAG.OnExisting = "append"
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.DelayMs == 0 {
		cfg.Retry.DelayMs = 1000
	}
	if cfg.Retry.Backoff == 0 {
		cfg.Retry.Backoff = 2.0
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
}
