// Package config provides configuration loading and structs for the Hanron server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Provider  ProviderConfig  `yaml:"provider"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Claims    ClaimsConfig    `yaml:"claims"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the vector collection, report artifacts,
// and internal source documents.
type StorageConfig struct {
	// CollectionDir is the directory holding the persisted vector
	// collection (vectors.bin, chunks.db, keywords.bleve).
	CollectionDir string `yaml:"collection_dir"`
	// ReportsDir holds uploaded reports and per-report pipeline artifacts.
	ReportsDir string `yaml:"reports_dir"`
	// SourceDir is the internal document tree to index as evidence.
	SourceDir string `yaml:"source_dir"`
}

// ProviderConfig selects and configures the embedding and language-model backend.
type ProviderConfig struct {
	// Name is one of "ollama", "openai", or "onnx" (local embedding only;
	// onnx still uses the ollama LLM endpoint for chat).
	Name string `yaml:"name"`
	// LLMModel is the chat model used for claim extraction and judgment.
	LLMModel string `yaml:"llm_model"`
	// EmbedModel is the embedding model.
	EmbedModel string `yaml:"embed_model"`
	// EmbedDimensions is the embedding width; must match EmbedModel.
	EmbedDimensions int `yaml:"embed_dimensions"`
	// BaseURL overrides the provider API base URL.
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the API key (OpenAI).
	APIKeyEnv string `yaml:"api_key_env"`
	// ONNXModelPath is the local model file for the onnx provider.
	ONNXModelPath string `yaml:"onnx_model_path"`
	// EmbedTimeoutSeconds bounds a single embedding call.
	EmbedTimeoutSeconds int `yaml:"embed_timeout_seconds"`
	// LLMTimeoutSeconds bounds a single chat call.
	LLMTimeoutSeconds int `yaml:"llm_timeout_seconds"`
	// EmbedBatchSize is the maximum chunks embedded per network round.
	EmbedBatchSize int `yaml:"embed_batch_size"`
	// CacheSize is the embedding LRU cache capacity.
	CacheSize int `yaml:"cache_size"`
}

// ChunkingConfig holds document chunking settings (sizes in words).
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig holds evidence retrieval settings.
type RetrievalConfig struct {
	TopK           int     `yaml:"top_k"`
	KeywordEnabled *bool   `yaml:"keyword_enabled"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
}

// KeywordEnabledOrDefault returns whether keyword fusion is enabled; defaults to true.
func (r *RetrievalConfig) KeywordEnabledOrDefault() bool {
	if r.KeywordEnabled != nil {
		return *r.KeywordEnabled
	}
	return true
}

// ClaimsConfig holds claim extraction and judgment settings.
type ClaimsConfig struct {
	MinClaims   int     `yaml:"min_claims"`
	MaxClaims   int     `yaml:"max_claims"`
	MaxPages    int     `yaml:"max_pages"`
	Temperature float64 `yaml:"temperature"`
}

// APIKey returns the provider API key from the configured environment variable.
func (p *ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.CollectionDir = expandPath(cfg.Storage.CollectionDir, configDir)
	cfg.Storage.ReportsDir = expandPath(cfg.Storage.ReportsDir, configDir)
	cfg.Storage.SourceDir = expandPath(cfg.Storage.SourceDir, configDir)
	if cfg.Provider.ONNXModelPath != "" {
		cfg.Provider.ONNXModelPath = expandPath(cfg.Provider.ONNXModelPath, configDir)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that defaults cannot repair.
func Validate(cfg *Config) error {
	if cfg.Chunking.ChunkSize <= cfg.Chunking.ChunkOverlap {
		return fmt.Errorf("chunk_size (%d) must be greater than chunk_overlap (%d)",
			cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	}
	if cfg.Chunking.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must not be negative")
	}
	if cfg.Claims.MinClaims > cfg.Claims.MaxClaims {
		return fmt.Errorf("min_claims (%d) must not exceed max_claims (%d)",
			cfg.Claims.MinClaims, cfg.Claims.MaxClaims)
	}
	if cfg.Provider.EmbedDimensions <= 0 {
		return fmt.Errorf("embed_dimensions must be positive")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
