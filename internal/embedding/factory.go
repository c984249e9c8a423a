package embedding

import (
	"fmt"
	"time"

	"github.com/hyperjump/hanron/internal/config"
)

// New builds an Embedder for the configured provider, wrapped with an LRU
// cache. Supported providers: "ollama", "openai", "onnx" (local model),
// and "mock" for tests.
func New(cfg *config.ProviderConfig) (Embedder, error) {
	timeout := time.Duration(cfg.EmbedTimeoutSeconds) * time.Second

	var inner Embedder
	switch cfg.Name {
	case "ollama":
		inner = NewOllamaEmbedder(cfg.BaseURL, cfg.EmbedModel, cfg.EmbedDimensions, timeout)
	case "openai":
		e, err := NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey(), cfg.EmbedModel, cfg.EmbedDimensions, cfg.EmbedBatchSize, timeout)
		if err != nil {
			return nil, err
		}
		inner = e
	case "onnx":
		e, err := NewONNXEmbedder(cfg.ONNXModelPath, cfg.EmbedDimensions, 256)
		if err != nil {
			return nil, err
		}
		inner = e
	case "mock":
		inner = NewMockEmbedder(cfg.EmbedDimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Name)
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
