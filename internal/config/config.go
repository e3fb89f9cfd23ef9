// Package config provides configuration loading for the Wayfarer server.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	WordPress WordPressConfig `yaml:"wordpress"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Chat      ChatConfig      `yaml:"chat"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the chunk database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// WordPressConfig holds the document source settings.
type WordPressConfig struct {
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// OpenAIConfig holds embedding and answer generation settings. The API
// key is taken from the environment, never from the file.
type OpenAIConfig struct {
	APIKey         string `yaml:"-"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
}

// IngestConfig holds ingestion pipeline settings. The shared secret is
// taken from the environment, never from the file.
type IngestConfig struct {
	Secret         string        `yaml:"-"`
	PerPage        int           `yaml:"per_page"`
	ChunkMaxLength int           `yaml:"chunk_max_length"`
	EmbedWorkers   int           `yaml:"embed_workers"`
	RunBudget      time.Duration `yaml:"run_budget"`
}

// ChatConfig holds retrieval and prompt assembly settings.
type ChatConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MatchCount          int     `yaml:"match_count"`
	HistoryLimit        int     `yaml:"history_limit"`
}

// Environment variable names for secrets and deploy-time overrides.
const (
	EnvOpenAIAPIKey     = "WAYFARER_OPENAI_API_KEY"
	EnvIngestSecret     = "WAYFARER_INGEST_SECRET"
	EnvWordPressBaseURL = "WAYFARER_WORDPRESS_BASE_URL"
	EnvDatabasePath     = "WAYFARER_DATABASE_PATH"
)

// Load reads and parses the config file at path, applies defaults, and
// overlays environment values. A missing file is not an error; the
// result is then defaults plus environment.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults + environment.
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	return &cfg, nil
}

// applyEnv overlays environment variables onto the config.
func applyEnv(cfg *Config) {
	cfg.OpenAI.APIKey = os.Getenv(EnvOpenAIAPIKey)
	cfg.Ingest.Secret = os.Getenv(EnvIngestSecret)
	if v := os.Getenv(EnvWordPressBaseURL); v != "" {
		cfg.WordPress.BaseURL = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		cfg.Storage.DatabasePath = v
	}
}

// Validate checks the settings a running server cannot do without.
func (c *Config) Validate() error {
	if c.WordPress.BaseURL == "" {
		return fmt.Errorf("wordpress base_url is required (or set %s)", EnvWordPressBaseURL)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai API key is required (set %s)", EnvOpenAIAPIKey)
	}
	if c.Ingest.Secret == "" {
		return fmt.Errorf("ingest secret is required (set %s)", EnvIngestSecret)
	}
	return nil
}
