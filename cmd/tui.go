package cmd

import (
	"github.com/robinebers/transcript-rag/internal/tui"
)

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return tui.Run(tui.Config{
		DBPath:      cfg.DBPath,
		OllamaURL:   cfg.Ollama.BaseURL,
		EmbedModel:  cfg.Ollama.EmbedModel,
		ChatModel:   cfg.Ollama.ChatModel,
		EmbedDim:    cfg.Ollama.EmbedDim,
		TimeoutSecs: cfg.Ollama.TimeoutSecs,
		SearchLimit: cfg.Retrieval.SearchLimit,
		TopK:        cfg.Retrieval.TopK,
	})
}
