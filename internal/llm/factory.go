package llm

import (
	"fmt"
	"time"

	"github.com/hyperjump/hanron/internal/config"
)

// New builds a chat Client for the configured provider. The onnx provider
// has no chat model of its own and uses the Ollama endpoint.
func New(cfg *config.ProviderConfig) (Client, error) {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	switch cfg.Name {
	case "ollama", "onnx":
		return NewOllamaClient(cfg.BaseURL, cfg.LLMModel, timeout), nil
	case "openai":
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey(), cfg.LLMModel, timeout)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Name)
	}
}
