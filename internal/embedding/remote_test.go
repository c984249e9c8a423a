package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperjump/hanron/internal/models"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a1, _ := e.Embed(ctx, "same text")
	a2, _ := e.Embed(ctx, "same text")
	b, _ := e.Embed(ctx, "different text")

	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("same text produced different embeddings")
		}
	}
	same := true
	for i := range a1 {
		if a1[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical embeddings")
	}

	var norm float64
	for _, v := range a1 {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Errorf("embedding not unit norm: %f", math.Sqrt(norm))
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "nomic-embed-text" || req.Prompt != "hello" {
			t.Errorf("req = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text", 3, 5*time.Second)
	emb, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(emb) != 3 || emb[1] != float32(0.2) {
		t.Errorf("emb = %v", emb)
	}
}

func TestOllamaEmbedder_EmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "m", 3, 5*time.Second)
	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, models.ErrConnectivity) {
		t.Fatalf("err = %v, want ErrConnectivity", err)
	}
}

func TestOllamaEmbedder_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	e := NewOllamaEmbedder(srv.URL, "m", 3, time.Second)
	if _, err := e.Embed(context.Background(), "hello"); !errors.Is(err, models.ErrConnectivity) {
		t.Fatalf("err = %v, want ErrConnectivity", err)
	}
	if err := e.Ping(context.Background()); !errors.Is(err, models.ErrConnectivity) {
		t.Fatalf("ping err = %v, want ErrConnectivity", err)
	}
}

func TestOpenAIEmbedder_BatchAndOrder(t *testing.T) {
	var batchSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth = %q", got)
		}
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		batchSizes = append(batchSizes, len(req.Input))

		// Respond out of order; Index must restore input order.
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{
				"index":     j,
				"embedding": []float64{float64(j + 1)},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(srv.URL, "test-key", "text-embedding-3-large", 1, 2, 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	for i, emb := range out {
		if emb[0] != float32(i%2+1) {
			t.Errorf("out[%d] = %v", i, emb)
		}
	}
	if len(batchSizes) != 2 || batchSizes[0] != 2 || batchSizes[1] != 1 {
		t.Errorf("batch sizes = %v, want [2 1]", batchSizes)
	}
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	e, _ := NewOpenAIEmbedder(srv.URL, "bad-key", "text-embedding-3-large", 8, 10, 5*time.Second)
	_, err := e.Embed(context.Background(), "x")
	if !errors.Is(err, models.ErrConnectivity) {
		t.Fatalf("err = %v, want ErrConnectivity", err)
	}
}

func TestOpenAIEmbedder_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder("http://x", "", "m", 8, 10, time.Second); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
