package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robinebers/transcript-rag/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbedModel)
	assert.Equal(t, 768, cfg.Ollama.EmbedDim)
	assert.Equal(t, 45.0, cfg.Chunker.WindowSecs)
	assert.Equal(t, 10.0, cfg.Chunker.OverlapSecs)
	assert.Equal(t, 50, cfg.Retrieval.SearchLimit)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Contains(t, cfg.DBPath, "index.db")
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "ollama:\n  chat_model: llama3\nchunker:\n  window_secs: 60\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "llama3", cfg.Ollama.ChatModel)
	assert.Equal(t, 60.0, cfg.Chunker.WindowSecs)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbedModel, "unset fields keep defaults")
	assert.Equal(t, 10.0, cfg.Chunker.OverlapSecs)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ollama: [unclosed"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	cfg.Retrieval.TopK = 12

	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Retrieval.TopK)
	assert.Equal(t, cfg.Ollama, loaded.Ollama)
}
