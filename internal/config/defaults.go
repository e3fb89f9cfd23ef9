package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "data/wayfarer.db"
	}
	if cfg.WordPress.RequestsPerSecond == 0 {
		cfg.WordPress.RequestsPerSecond = 2.0
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.Ingest.PerPage == 0 {
		cfg.Ingest.PerPage = 10
	}
	if cfg.Ingest.ChunkMaxLength == 0 {
		cfg.Ingest.ChunkMaxLength = 1500
	}
	if cfg.Ingest.EmbedWorkers == 0 {
		cfg.Ingest.EmbedWorkers = 4
	}
	if cfg.Ingest.RunBudget == 0 {
		cfg.Ingest.RunBudget = 10 * time.Minute
	}
	if cfg.Chat.SimilarityThreshold == 0 {
		cfg.Chat.SimilarityThreshold = 0.5
	}
	if cfg.Chat.MatchCount == 0 {
		cfg.Chat.MatchCount = 8
	}
	if cfg.Chat.HistoryLimit == 0 {
		cfg.Chat.HistoryLimit = 4
	}
}
