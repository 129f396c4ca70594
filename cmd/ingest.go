package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/robinebers/transcript-rag/internal/chunker"
	"github.com/robinebers/transcript-rag/internal/embedder"
	"github.com/robinebers/transcript-rag/internal/ingest"

	"github.com/spf13/cobra"
)

var flagForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Ingest a directory of .srt transcripts into the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger()

		st, err := createIndex(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		emb := embedder.NewOllamaEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.EmbedModel, cfg.Ollama.TimeoutSecs)
		agg := chunker.New(cfg.Chunker.WindowSecs, cfg.Chunker.OverlapSecs)
		ing := ingest.New(st, emb, agg, logger)

		fmt.Printf("Ingesting %s...\n", root)
		start := time.Now()

		stats, err := ing.Run(root, flagForce)
		elapsed := time.Since(start)

		if stats != nil {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Lessons: %d total, %d ingested, %d skipped, %d failed\n",
				stats.LessonsTotal, stats.Ingested, stats.Skipped, stats.Failed)
			fmt.Printf("  Chunks:  %d\n", stats.ChunksTotal)
		}

		return err
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&flagForce, "force", false, "re-ingest lessons even when unchanged")
	rootCmd.AddCommand(ingestCmd)
}
