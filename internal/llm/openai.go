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

// OpenAIClient talks to the OpenAI chat completions API or a compatible
// endpoint.
type OpenAIClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type openaiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiChatMessage   `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message openaiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates an OpenAI chat client.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return &OpenAIClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}, nil
}

// Chat sends messages to /chat/completions and returns the first choice.
// Transport and API failures wrap models.ErrConnectivity.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	reqBody := openaiChatRequest{
		Model:       c.model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &openaiResponseFormat{Type: "json_object"}
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, openaiChatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai chat: %v: %w", err, models.ErrConnectivity)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var out openaiChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai error: %s: %w", out.Error.Message, models.ErrConnectivity)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai chat status %d: %s: %w", resp.StatusCode, raw, models.ErrConnectivity)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices: %w", models.ErrConnectivity)
	}
	return out.Choices[0].Message.Content, nil
}

// ModelName returns the configured chat model.
func (c *OpenAIClient) ModelName() string {
	return c.model
}

// Ping validates the API key against the models endpoint.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai ping: %v: %w", err, models.ErrConnectivity)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai ping status %d: %w", resp.StatusCode, models.ErrConnectivity)
	}
	return nil
}

// Close is a no-op.
func (c *OpenAIClient) Close() error {
	return nil
}
