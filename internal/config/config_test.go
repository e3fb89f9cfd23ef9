package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvOpenAIAPIKey, EnvIngestSecret, EnvWordPressBaseURL, EnvDatabasePath} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/wayfarer.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 2.0, cfg.WordPress.RequestsPerSecond)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, 10, cfg.Ingest.PerPage)
	assert.Equal(t, 1500, cfg.Ingest.ChunkMaxLength)
	assert.Equal(t, 4, cfg.Ingest.EmbedWorkers)
	assert.Equal(t, 10*time.Minute, cfg.Ingest.RunBudget)
	assert.Equal(t, 0.5, cfg.Chat.SimilarityThreshold)
	assert.Equal(t, 8, cfg.Chat.MatchCount)
	assert.Equal(t, 4, cfg.Chat.HistoryLimit)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debug: true
server:
  host: 0.0.0.0
  port: 9090
wordpress:
  base_url: https://blog.example.com
  requests_per_second: 5
ingest:
  per_page: 25
chat:
  similarity_threshold: 0.7
  match_count: 5
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://blog.example.com", cfg.WordPress.BaseURL)
	assert.Equal(t, 5.0, cfg.WordPress.RequestsPerSecond)
	assert.Equal(t, 25, cfg.Ingest.PerPage)
	assert.Equal(t, 0.7, cfg.Chat.SimilarityThreshold)
	assert.Equal(t, 5, cfg.Chat.MatchCount)

	// Unset keys still get defaults.
	assert.Equal(t, "data/wayfarer.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 4, cfg.Chat.HistoryLimit)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a mapping"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	t.Setenv(EnvIngestSecret, "hunter2")
	t.Setenv(EnvWordPressBaseURL, "https://env.example.com")
	t.Setenv(EnvDatabasePath, "/tmp/env.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "hunter2", cfg.Ingest.Secret)
	assert.Equal(t, "https://env.example.com", cfg.WordPress.BaseURL)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.DatabasePath)
}

func TestLoad_SecretsNeverReadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
openai:
  api_key: file-key
ingest:
  secret: file-secret
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, cfg.OpenAI.APIKey)
	assert.Empty(t, cfg.Ingest.Secret)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		cfg.WordPress.BaseURL = "https://blog.example.com"
		cfg.OpenAI.APIKey = "sk-test"
		cfg.Ingest.Secret = "hunter2"
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.WordPress.BaseURL = ""
	assert.ErrorContains(t, cfg.Validate(), "base_url")

	cfg = valid()
	cfg.OpenAI.APIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "API key")

	cfg = valid()
	cfg.Ingest.Secret = ""
	assert.ErrorContains(t, cfg.Validate(), "secret")
}
