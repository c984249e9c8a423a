package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hyperjump/hanron/internal/models"
)

// OllamaClient talks to a local Ollama server's chat endpoint.
type OllamaClient struct {
	client  *http.Client
	baseURL string
	model   string
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string             `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool               `json:"stream"`
	Format   string             `json:"format,omitempty"`
	Options  *ollamaChatOptions `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

// NewOllamaClient creates an Ollama chat client.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   model,
	}
}

// Chat sends messages to /api/chat and returns the assistant reply.
// Transport failures wrap models.ErrConnectivity.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	reqBody := ollamaChatRequest{
		Model:   c.model,
		Stream:  false,
		Options: &ollamaChatOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens},
	}
	if opts.JSONMode {
		reqBody.Format = "json"
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, ollamaChatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %v: %w", err, models.ErrConnectivity)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama chat status %d: %s: %w", resp.StatusCode, msg, models.ErrConnectivity)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Message.Content, nil
}

// ModelName returns the configured chat model.
func (c *OllamaClient) ModelName() string {
	return c.model
}

// Ping checks the tags endpoint without running inference.
func (c *OllamaClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama ping: %v: %w", err, models.ErrConnectivity)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama ping status %d: %w", resp.StatusCode, models.ErrConnectivity)
	}
	return nil
}

// Close is a no-op.
func (c *OllamaClient) Close() error {
	return nil
}
