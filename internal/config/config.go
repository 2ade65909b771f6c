package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// Backends the vector index can run on.
const (
	VectorBackendSQLite  = "sqlite"
	VectorBackendUpstash = "upstash"
)

type Config struct {
	Server    ServerConfig
	Embedding EmbeddingConfig
	Vector    VectorConfig
	Storage   StorageConfig
	Ingest    IngestConfig
	Retrieval RetrievalConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host     string
	Port     int
	APIToken string
}

type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout string
}

// TimeoutDuration parses the configured timeout, falling back to 30s.
func (c EmbeddingConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

type VectorConfig struct {
	Backend      string
	UpstashURL   string
	UpstashToken string
}

type StorageConfig struct {
	DataDir string
}

type IngestConfig struct {
	MaxFileBytes     int
	ImageTimeout     string
	ImageConcurrency int
}

// ImageTimeoutDuration parses the configured probe timeout, falling back to 4s.
func (c IngestConfig) ImageTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.ImageTimeout); err == nil && d > 0 {
		return d
	}
	return 4 * time.Second
}

type RetrievalConfig struct {
	TopK int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Embedding: EmbeddingConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "text-embedding-3-small",
			Timeout: "30s",
		},
		Vector: VectorConfig{
			Backend: VectorBackendSQLite,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Ingest: IngestConfig{
			MaxFileBytes:     5 * 1024 * 1024,
			ImageTimeout:     "4s",
			ImageConcurrency: 8,
		},
		Retrieval: RetrievalConfig{
			TopK: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration in ascending precedence: built-in defaults, the
// JSON file at $XDG_CONFIG_HOME/giftbase/config.json, a .env file in the
// working directory, and GIFTBASE_* environment variables.
//
// Secrets (the embedding API key, the portal token, the Upstash token) are
// never stored in the config file; they come from the environment only.
func Load() (Config, error) {
	// A missing .env file is the normal production case.
	_ = godotenv.Load()
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Embedding.APIKey == "" {
		return fmt.Errorf("missing required config: embedding API key. Set it via environment variable GIFTBASE_EMBEDDING_API_KEY or a .env file")
	}

	switch cfg.Vector.Backend {
	case VectorBackendSQLite:
	case VectorBackendUpstash:
		if cfg.Vector.UpstashURL == "" || cfg.Vector.UpstashToken == "" {
			return fmt.Errorf("vector backend %q requires GIFTBASE_VECTOR_UPSTASH_URL and GIFTBASE_VECTOR_UPSTASH_TOKEN", VectorBackendUpstash)
		}
	default:
		return fmt.Errorf("unknown vector backend %q (expected %q or %q)", cfg.Vector.Backend, VectorBackendSQLite, VectorBackendUpstash)
	}

	if cfg.Ingest.MaxFileBytes <= 0 {
		return fmt.Errorf("ingest.max_file_bytes must be positive, got %d", cfg.Ingest.MaxFileBytes)
	}
	return nil
}
