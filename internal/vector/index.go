// Package vector provides a persisted vector index for semantic retrieval.
package vector

import "context"

// Index defines vector storage and similarity search over chunk embeddings.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Dimensions() int
	Size() int
	Close() error
}

// Result is a single vector search hit. ID is the chunk ID.
type Result struct {
	ID    string
	Score float64 // inner product; cosine similarity for normalized vectors
}
