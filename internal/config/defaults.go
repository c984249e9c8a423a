package config

// Provider default model names and embedding widths. The dimension follows
// the embed model: text-embedding-3-large is 3072-wide, nomic-embed-text is
// 768-wide, the bundled MiniLM ONNX model is 384-wide.
const (
	DefaultOpenAILLMModel   = "gpt-4o-mini"
	DefaultOpenAIEmbedModel = "text-embedding-3-large"
	DefaultOpenAIDimensions = 3072

	DefaultOllamaLLMModel   = "llama3.1:8b"
	DefaultOllamaEmbedModel = "nomic-embed-text"
	DefaultOllamaDimensions = 768

	DefaultONNXDimensions = 384
)

// LegacyDefaultDimensions is the oldest embedding width ever shipped. A
// persisted collection with no dimension metadata is assumed to predate
// dimension tracking and carry this width.
const LegacyDefaultDimensions = 768

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8085
	}
	if cfg.Storage.CollectionDir == "" {
		cfg.Storage.CollectionDir = "/usr/local/var/hanron/data/collection"
	}
	if cfg.Storage.ReportsDir == "" {
		cfg.Storage.ReportsDir = "/usr/local/var/hanron/data/reports"
	}
	if cfg.Storage.SourceDir == "" {
		cfg.Storage.SourceDir = "/usr/local/var/hanron/data/internal"
	}
	applyProviderDefaults(&cfg.Provider)
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 512
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 50
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 6
	}
	if cfg.Retrieval.KeywordWeight == 0 && cfg.Retrieval.SemanticWeight == 0 {
		cfg.Retrieval.KeywordWeight = 0.3
		cfg.Retrieval.SemanticWeight = 0.7
	}
	if cfg.Claims.MinClaims == 0 {
		cfg.Claims.MinClaims = 8
	}
	if cfg.Claims.MaxClaims == 0 {
		cfg.Claims.MaxClaims = 30
	}
	if cfg.Claims.MaxPages == 0 {
		cfg.Claims.MaxPages = 3
	}
	if cfg.Claims.Temperature == 0 {
		cfg.Claims.Temperature = 0.3
	}
}

func applyProviderDefaults(p *ProviderConfig) {
	if p.Name == "" {
		p.Name = "ollama"
	}
	switch p.Name {
	case "openai":
		if p.LLMModel == "" {
			p.LLMModel = DefaultOpenAILLMModel
		}
		if p.EmbedModel == "" {
			p.EmbedModel = DefaultOpenAIEmbedModel
		}
		if p.EmbedDimensions == 0 {
			p.EmbedDimensions = DefaultOpenAIDimensions
		}
		if p.BaseURL == "" {
			p.BaseURL = "https://api.openai.com/v1"
		}
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "onnx":
		if p.EmbedDimensions == 0 {
			p.EmbedDimensions = DefaultONNXDimensions
		}
		if p.LLMModel == "" {
			p.LLMModel = DefaultOllamaLLMModel
		}
		if p.BaseURL == "" {
			p.BaseURL = "http://localhost:11434"
		}
	default: // ollama
		if p.LLMModel == "" {
			p.LLMModel = DefaultOllamaLLMModel
		}
		if p.EmbedModel == "" {
			p.EmbedModel = DefaultOllamaEmbedModel
		}
		if p.EmbedDimensions == 0 {
			p.EmbedDimensions = DefaultOllamaDimensions
		}
		if p.BaseURL == "" {
			p.BaseURL = "http://localhost:11434"
		}
	}
	if p.EmbedTimeoutSeconds == 0 {
		p.EmbedTimeoutSeconds = 30
	}
	if p.LLMTimeoutSeconds == 0 {
		p.LLMTimeoutSeconds = 120
	}
	if p.EmbedBatchSize == 0 {
		p.EmbedBatchSize = 10
	}
	if p.CacheSize == 0 {
		p.CacheSize = 10000
	}
}
