package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robinebers/transcript-rag/internal/config"
	"github.com/robinebers/transcript-rag/internal/embedder"
	"github.com/robinebers/transcript-rag/internal/llm"
	"github.com/robinebers/transcript-rag/internal/rag"
	"github.com/robinebers/transcript-rag/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagConfig     string
	flagDB         string
	flagOllama     string
	flagEmbedModel string
	flagChatModel  string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "transcript-rag",
	Short: "Search and chat over lesson transcripts with local RAG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// A .env next to the binary can set OLLAMA_HOST and friends.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./transcript-rag.yaml, then ~/.transcript-rag/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default ~/.transcript-rag/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "", "ollama base URL (default http://localhost:11434)")
	rootCmd.PersistentFlags().StringVar(&flagEmbedModel, "embed-model", "", "embedding model (default nomic-embed-text)")
	rootCmd.PersistentFlags().StringVar(&flagChatModel, "chat-model", "", "generative model (default qwen3:8b)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

// loadConfig resolves the effective configuration: file values first,
// then flag and environment overrides.
func loadConfig() (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.Ollama.BaseURL = host
	}
	if flagOllama != "" {
		cfg.Ollama.BaseURL = flagOllama
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagEmbedModel != "" {
		cfg.Ollama.EmbedModel = flagEmbedModel
	}
	if flagChatModel != "" {
		cfg.Ollama.ChatModel = flagChatModel
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openIndex opens an existing index, failing with a hint when none has
// been built yet.
func openIndex(cfg *config.AppConfig) (*store.SQLiteStore, error) {
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("index not found at %s\nRun 'transcript-rag ingest <dir>' first to build the index", cfg.DBPath)
	}
	st, err := store.Open(cfg.DBPath, cfg.Ollama.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return st, nil
}

// createIndex opens the index for ingestion, creating the database
// directory if needed.
func createIndex(cfg *config.AppConfig) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	st, err := store.Open(cfg.DBPath, cfg.Ollama.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return st, nil
}

func newPipeline(cfg *config.AppConfig, st *store.SQLiteStore, topK int, logger *slog.Logger) *rag.Pipeline {
	emb := embedder.NewOllamaEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.EmbedModel, cfg.Ollama.TimeoutSecs)
	chat := llm.NewOllamaChat(cfg.Ollama.BaseURL, cfg.Ollama.ChatModel, cfg.Ollama.TimeoutSecs)
	if topK <= 0 {
		topK = cfg.Retrieval.TopK
	}
	return rag.NewPipeline(st, emb, chat, chat, cfg.Retrieval.SearchLimit, topK, logger)
}
