package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "GIFTBASE_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "GIFTBASE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "GIFTBASE_SERVER_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "embedding.base_url", typ: kString, env: "GIFTBASE_EMBEDDING_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Embedding.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.BaseURL },
	},
	{
		key: "embedding.api_key", typ: kString, env: "GIFTBASE_EMBEDDING_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Embedding.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.APIKey },
	},
	{
		key: "embedding.model", typ: kString, env: "GIFTBASE_EMBEDDING_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Embedding.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.Model },
	},
	{
		key: "embedding.timeout", typ: kString, env: "GIFTBASE_EMBEDDING_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Embedding.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.Timeout },
	},
	{
		key: "vector.backend", typ: kString, env: "GIFTBASE_VECTOR_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Vector.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Vector.Backend },
	},
	{
		key: "vector.upstash_url", typ: kString, env: "GIFTBASE_VECTOR_UPSTASH_URL",
		apply:   func(cfg *Config, v any) { cfg.Vector.UpstashURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Vector.UpstashURL },
	},
	{
		key: "vector.upstash_token", typ: kString, env: "GIFTBASE_VECTOR_UPSTASH_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Vector.UpstashToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Vector.UpstashToken },
	},
	{
		key: "storage.data_dir", typ: kString, env: "GIFTBASE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "ingest.max_file_bytes", typ: kInt, env: "GIFTBASE_INGEST_MAX_FILE_BYTES",
		apply:   func(cfg *Config, v any) { cfg.Ingest.MaxFileBytes = v.(int) },
		extract: func(cfg Config) any { return cfg.Ingest.MaxFileBytes },
	},
	{
		key: "ingest.image_timeout", typ: kString, env: "GIFTBASE_INGEST_IMAGE_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Ingest.ImageTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Ingest.ImageTimeout },
	},
	{
		key: "ingest.image_concurrency", typ: kInt, env: "GIFTBASE_INGEST_IMAGE_CONCURRENCY",
		apply:   func(cfg *Config, v any) { cfg.Ingest.ImageConcurrency = v.(int) },
		extract: func(cfg Config) any { return cfg.Ingest.ImageConcurrency },
	},
	{
		key: "retrieval.top_k", typ: kInt, env: "GIFTBASE_RETRIEVAL_TOP_K",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.TopK = v.(int) },
		extract: func(cfg Config) any { return cfg.Retrieval.TopK },
	},
	{
		key: "log.level", typ: kString, env: "GIFTBASE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
