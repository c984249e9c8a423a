package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/hanron/internal/models"
)

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API or a
// compatible endpoint.
type OpenAIEmbedder struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	batchSize  int
}

type openaiEmbedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIEmbedder creates an OpenAI embedding client. batchSize bounds the
// number of inputs per request.
func NewOpenAIEmbedder(baseURL, apiKey, model string, dimensions, batchSize int, timeout time.Duration) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &OpenAIEmbedder{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		batchSize:  batchSize,
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embs) == 0 || len(embs[0]) == 0 {
		return nil, fmt.Errorf("openai returned empty embedding: %w", models.ErrConnectivity)
	}
	return embs[0], nil
}

// EmbedBatch embeds texts in request batches of at most batchSize,
// preserving input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		embs, err := e.embedRequest(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, embs...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := openaiEmbedRequest{Model: e.model, Input: texts}
	// Only text-embedding-3-* models accept a dimensions override.
	if strings.HasPrefix(e.model, "text-embedding-3") && e.dimensions > 0 {
		reqBody.Dimensions = e.dimensions
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %v: %w", err, models.ErrConnectivity)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var out openaiEmbedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("openai error: %s: %w", out.Error.Message, models.ErrConnectivity)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai embeddings status %d: %s: %w", resp.StatusCode, raw, models.ErrConnectivity)
	}

	embs := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			continue
		}
		emb := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			emb[i] = float32(v)
		}
		embs[d.Index] = emb
	}
	for i, emb := range embs {
		if len(emb) == 0 {
			return nil, fmt.Errorf("openai returned no embedding for input %d: %w", i, models.ErrConnectivity)
		}
	}
	return embs, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Ping validates the API key against the models endpoint.
func (e *OpenAIEmbedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	resp, err := e.client.Do(req)
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
func (e *OpenAIEmbedder) Close() error {
	return nil
}
