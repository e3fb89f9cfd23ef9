// Package main is the Wayfarer entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	embeddingopenai "github.com/wayfarer-labs/wayfarer/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/wayfarer-labs/wayfarer/internal/adapters/driven/llm/openai"
	"github.com/wayfarer-labs/wayfarer/internal/adapters/driven/storage/sqlite"
	"github.com/wayfarer-labs/wayfarer/internal/adapters/driven/wordpress"
	"github.com/wayfarer-labs/wayfarer/internal/chunker"
	"github.com/wayfarer-labs/wayfarer/internal/config"
	"github.com/wayfarer-labs/wayfarer/internal/core/services"
	"github.com/wayfarer-labs/wayfarer/internal/server"
	"github.com/wayfarer-labs/wayfarer/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "version", "--version", "-v":
		fmt.Printf("wayfarer version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: wayfarer <command> [flags]

Commands:
  server    Start the HTTP API server
  ingest    Run a full paginated ingestion of the blog
  version   Print version`)
}

// components holds everything the commands wire together.
type components struct {
	logger *zap.Logger
	store  *sqlite.Store
	embed  *embeddingopenai.EmbeddingService
	llm    *llmopenai.LLMService
	ingest *services.IngestService
	chat   *services.ChatService
}

func initComponents(cfg *config.Config, debug bool) (*components, error) {
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := sqlite.NewStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	embed, err := embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}

	llm, err := llmopenai.NewLLMService(llmopenai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.ChatModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create llm service: %w", err)
	}

	source, err := wordpress.NewClient(wordpress.Config{
		BaseURL:           cfg.WordPress.BaseURL,
		RequestsPerSecond: cfg.WordPress.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("create wordpress client: %w", err)
	}

	ch := chunker.New(chunker.WithMaxLength(cfg.Ingest.ChunkMaxLength))

	ingest := services.NewIngestService(source, store, embed, ch, logger,
		services.WithPerPage(cfg.Ingest.PerPage),
		services.WithEmbedWorkers(cfg.Ingest.EmbedWorkers),
		services.WithRunBudget(cfg.Ingest.RunBudget),
	)

	retriever := services.NewRetriever(store, cfg.Chat.SimilarityThreshold, cfg.Chat.MatchCount)
	builder := services.NewContextBuilder(cfg.Chat.HistoryLimit)
	chat := services.NewChatService(embed, retriever, builder, llm, logger)

	return &components{
		logger: logger,
		store:  store,
		embed:  embed,
		llm:    llm,
		ingest: ingest,
		chat:   chat,
	}, nil
}

func (c *components) close() {
	_ = c.embed.Close()
	_ = c.llm.Close()
	if err := c.store.Close(); err != nil {
		c.logger.Warn("closing store", zap.Error(err))
	}
	_ = c.logger.Sync()
}

func loadConfig(path string) (*config.Config, error) {
	// Secrets may come from a local .env during development.
	_ = godotenv.Load()

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	c, err := initComponents(cfg, *debug)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.embed.Ping(pingCtx); err != nil {
		c.logger.Fatal("embedding service unreachable", zap.Error(err))
	}
	if err := c.llm.Ping(pingCtx); err != nil {
		c.logger.Fatal("llm service unreachable", zap.Error(err))
	}

	srv := server.NewServer(c.chat, c.ingest, c.store, cfg, c.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		c.logger.Fatal("server failed", zap.Error(err))
	case sig := <-sigCh:
		c.logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			c.logger.Error("shutdown failed", zap.Error(err))
		}
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	c, err := initComponents(cfg, *debug)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := c.ingest.Run(ctx)
	if err != nil {
		c.logger.Fatal("ingest run failed", zap.Error(err))
	}

	c.logger.Info("ingest run complete",
		zap.Int("pages", result.Pages),
		zap.Int("posts_processed", result.DocumentsProcessed),
		zap.Int("posts_failed", result.DocumentsFailed),
		zap.Int("chunks_created", result.ChunksCreated))
}
