// Package keyword provides BM25 keyword indexing over collection chunks.
package keyword

import (
	"context"

	"github.com/hyperjump/hanron/internal/models"
)

// Index defines keyword search operations over chunks.
type Index interface {
	Add(ctx context.Context, chunk *models.Chunk) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit. ID is the chunk ID.
type Result struct {
	ID    string
	Score float64
}
