package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/hanron/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chunks.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_PutGetChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := []*models.Chunk{
		{ID: "10k_chunk_0", DocID: "10k", DocTitle: "Annual Report", DocPath: "/docs/10k.pdf", Content: "revenue grew", ChunkIndex: 0},
		{ID: "10k_chunk_1", DocID: "10k", DocTitle: "Annual Report", DocPath: "/docs/10k.pdf", Content: "guidance raised", ChunkIndex: 1},
	}
	if err := s.PutChunks(ctx, chunks); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}

	got, err := s.GetChunk(ctx, "10k_chunk_1")
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if got.Content != "guidance raised" || got.ChunkIndex != 1 {
		t.Errorf("chunk = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	n, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestSQLiteStore_GetChunkNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetChunk(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_GetChunksPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.PutChunks(ctx, []*models.Chunk{
		{ID: "a", DocID: "d", Content: "x", ChunkIndex: 0},
		{ID: "b", DocID: "d", Content: "y", ChunkIndex: 1},
		{ID: "c", DocID: "d", Content: "z", ChunkIndex: 2},
	})

	got, err := s.GetChunks(ctx, []string{"c", "missing", "a"})
	if err != nil {
		t.Fatalf("GetChunks: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestSQLiteStore_PutChunksReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.PutChunks(ctx, []*models.Chunk{{ID: "a", DocID: "d", Content: "old", ChunkIndex: 0}})
	_ = s.PutChunks(ctx, []*models.Chunk{{ID: "a", DocID: "d", Content: "new", ChunkIndex: 0}})

	got, err := s.GetChunk(ctx, "a")
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if got.Content != "new" {
		t.Errorf("content = %q, want new", got.Content)
	}
	if n, _ := s.CountChunks(ctx); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSQLiteStore_DeleteChunksByDoc(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.PutChunks(ctx, []*models.Chunk{
		{ID: "a0", DocID: "a", Content: "x", ChunkIndex: 0},
		{ID: "b0", DocID: "b", Content: "y", ChunkIndex: 0},
	})
	if err := s.DeleteChunksByDoc(ctx, "a"); err != nil {
		t.Fatalf("DeleteChunksByDoc: %v", err)
	}
	all, err := s.ListChunks(ctx)
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(all) != 1 || all[0].DocID != "b" {
		t.Errorf("remaining = %+v", all)
	}
}

func TestSQLiteStore_Meta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetMeta(ctx, MetaEmbeddingDimension)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := s.SetMeta(ctx, MetaEmbeddingDimension, "768"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.SetMeta(ctx, MetaEmbeddingDimension, "3072"); err != nil {
		t.Fatalf("SetMeta overwrite: %v", err)
	}
	v, err := s.GetMeta(ctx, MetaEmbeddingDimension)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if v != "3072" {
		t.Errorf("value = %q, want 3072", v)
	}
}
