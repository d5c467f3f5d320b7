// Package config loads the ragserver configuration from a YAML file with
// environment variable expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bookmydarshan/ragserver/internal/chat"
	"github.com/bookmydarshan/ragserver/internal/chunker"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Reranker   RerankerConfig   `yaml:"reranker"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Search     chat.Config      `yaml:"search"`
	Chunking   chunker.Config   `yaml:"chunking"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn"`

	// Dimension is the embedding dimension the store is provisioned for.
	Dimension int `yaml:"dimension"`

	// RunMigrations applies pending migrations at startup.
	RunMigrations bool `yaml:"run_migrations"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "http" (a local embedding service) or "openai".
	Provider string `yaml:"provider"`

	// URL is the embedding service base URL (http provider).
	URL string `yaml:"url"`

	// Dimension is the embedding dimension (http provider).
	Dimension int `yaml:"dimension"`

	// APIKey is the OpenAI API key (openai provider).
	APIKey string `yaml:"api_key"`

	// Model is the OpenAI embedding model (openai provider).
	Model string `yaml:"model"`
}

// RerankerConfig configures the cross-encoder reranker service.
type RerankerConfig struct {
	// URL is the reranker base URL. Empty disables the primary reranker;
	// every turn then uses the similarity fallback.
	URL string `yaml:"url"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// GeneratorConfig configures the answer generator.
type GeneratorConfig struct {
	// APIKey is the Anthropic API key.
	APIKey string `yaml:"api_key"`

	// Model is the Anthropic model identifier.
	Model string `yaml:"model"`

	// MaxTokens caps generated answer length.
	MaxTokens int `yaml:"max_tokens"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file. Environment variables in
// the file are expanded before parsing, so secrets can be referenced as
// ${ANTHROPIC_API_KEY} rather than stored inline.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "http"
	}
	if cfg.Search.TopK == 0 {
		cfg.Search = chat.DefaultConfig()
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking = chunker.DefaultConfig()
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the configuration for fatal inconsistencies.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.Dimension <= 0 {
		return fmt.Errorf("database.dimension is required")
	}

	switch c.Embeddings.Provider {
	case "http":
		if c.Embeddings.URL == "" {
			return fmt.Errorf("embeddings.url is required for the http provider")
		}
		if c.Embeddings.Dimension <= 0 {
			return fmt.Errorf("embeddings.dimension is required for the http provider")
		}
		if c.Embeddings.Dimension != c.Database.Dimension {
			return fmt.Errorf("embeddings.dimension (%d) must match database.dimension (%d)",
				c.Embeddings.Dimension, c.Database.Dimension)
		}
	case "openai":
		if c.Embeddings.APIKey == "" {
			return fmt.Errorf("embeddings.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown embeddings provider %q", c.Embeddings.Provider)
	}

	if c.Generator.APIKey == "" {
		return fmt.Errorf("generator.api_key is required")
	}

	if c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap must be smaller than chunking.chunk_size")
	}

	return nil
}
