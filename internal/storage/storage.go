// Package storage defines persistence for collection chunks and metadata.
package storage

import (
	"context"

	"github.com/hyperjump/hanron/internal/models"
)

// Collection metadata keys.
const (
	MetaEmbeddingDimension = "embedding_dimension"
	MetaEmbeddingModel     = "embedding_model"
	MetaLLMProvider        = "llm_provider"
	MetaDescription        = "description"
	MetaSourceFingerprint  = "source_fingerprint"
)

// Store persists chunk records and collection-level metadata.
type Store interface {
	// Chunk operations
	PutChunks(ctx context.Context, chunks []*models.Chunk) error
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	GetChunks(ctx context.Context, ids []string) ([]*models.Chunk, error)
	ListChunks(ctx context.Context) ([]*models.Chunk, error)
	DeleteChunksByDoc(ctx context.Context, docID string) error
	CountChunks(ctx context.Context) (int64, error)

	// Metadata operations. GetMeta returns models.ErrNotFound for absent keys.
	SetMeta(ctx context.Context, key, value string) error
	GetMeta(ctx context.Context, key string) (string, error)

	Close() error
}
