package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OllamaConfig holds connection details for the local Ollama server.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	EmbedModel  string `yaml:"embed_model"`
	ChatModel   string `yaml:"chat_model"`
	EmbedDim    int    `yaml:"embed_dim"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkerConfig configures the time-window aggregation of subtitle entries.
type ChunkerConfig struct {
	WindowSecs  float64 `yaml:"window_secs"`
	OverlapSecs float64 `yaml:"overlap_secs"`
}

// RetrievalConfig configures the search pipeline.
type RetrievalConfig struct {
	SearchLimit int `yaml:"search_limit"`
	TopK        int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DBPath    string          `yaml:"db_path"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig()
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./transcript-rag.yaml first, then
// ~/.transcript-rag/config.yaml. If neither exists it returns defaults
// without writing anything.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "transcript-rag.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg, err := defaultConfig()
	return cfg, "", err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".transcript-rag", "config.yaml"), nil
}

// DefaultDBPath returns ~/.transcript-rag/index.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".transcript-rag", "index.db"), nil
}

func defaultConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) error {
	if cfg.DBPath == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return err
		}
		cfg.DBPath = p
	}
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Ollama.EmbedModel == "" {
		cfg.Ollama.EmbedModel = "nomic-embed-text"
	}
	if cfg.Ollama.ChatModel == "" {
		cfg.Ollama.ChatModel = "qwen3:8b"
	}
	if cfg.Ollama.EmbedDim == 0 {
		cfg.Ollama.EmbedDim = 768
	}
	if cfg.Ollama.TimeoutSecs == 0 {
		cfg.Ollama.TimeoutSecs = 120
	}
	if cfg.Chunker.WindowSecs == 0 {
		cfg.Chunker.WindowSecs = 45
	}
	if cfg.Chunker.OverlapSecs == 0 {
		cfg.Chunker.OverlapSecs = 10
	}
	if cfg.Retrieval.SearchLimit == 0 {
		cfg.Retrieval.SearchLimit = 50
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 8
	}
	return nil
}
