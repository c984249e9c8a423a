package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func TestFlatIndex_AddSearch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}
	ids := []string{"a", "b", "c"}
	vecs := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	if err := idx.Add(context.Background(), ids, vecs); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "a" || hits[1].ID != "c" {
		t.Errorf("hits = %q, %q; want a, c", hits[0].ID, hits[1].ID)
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(4)
	err := idx.Add(context.Background(), []string{"x"}, [][]float32{{1, 2}})
	if err == nil {
		t.Fatal("expected dimension mismatch on Add")
	}
	if _, err := idx.Search(context.Background(), []float32{1}, 1); err == nil {
		t.Fatal("expected dimension mismatch on Search")
	}
}

func TestFlatIndex_EmptySearch(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestFlatIndex_Remove(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	_ = idx.Add(context.Background(), []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Remove(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if idx.Size() != 1 {
		t.Fatalf("size = %d, want 1", idx.Size())
	}
	hits, _ := idx.Search(context.Background(), []float32{1, 0}, 2)
	if len(hits) != 1 || hits[0].ID != "b" {
		t.Errorf("unexpected hits after remove: %+v", hits)
	}
}

func TestFlatIndex_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")

	idx, _ := NewFlatIndex(3)
	_ = idx.Add(context.Background(), []string{"doc_chunk_0", "doc_chunk_1"}, [][]float32{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
	})
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _ := NewFlatIndex(3)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("size = %d, want 2", loaded.Size())
	}
	hits, err := loaded.Search(context.Background(), []float32{0.4, 0.5, 0.6}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].ID != "doc_chunk_1" {
		t.Errorf("top hit = %q, want doc_chunk_1", hits[0].ID)
	}
}

func TestFlatIndex_LoadDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")

	small, _ := NewFlatIndex(2)
	_ = small.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}})
	if err := small.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	big, _ := NewFlatIndex(5)
	if err := big.Load(path); err == nil {
		t.Fatal("expected dimension mismatch on Load")
	}
}

func TestFlatIndex_LoadMissingFile(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	if err := idx.Load(filepath.Join(t.TempDir(), "nope.bin")); err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("size = %d, want 0", idx.Size())
	}
}

func TestFileDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")

	if _, ok, err := FileDimensions(path); err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}

	idx, _ := NewFlatIndex(768)
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dim, ok, err := FileDimensions(path)
	if err != nil {
		t.Fatalf("FileDimensions: %v", err)
	}
	if !ok || dim != 768 {
		t.Errorf("dim=%d ok=%v, want 768 true", dim, ok)
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	norm := math.Sqrt(float64(v[0])*float64(v[0]) + float64(v[1])*float64(v[1]))
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("norm = %f, want 1", norm)
	}

	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestInnerProduct(t *testing.T) {
	if got := InnerProduct([]float32{1, 2}, []float32{3, 4}); got != 11 {
		t.Errorf("InnerProduct = %f, want 11", got)
	}
	if got := InnerProduct([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("length mismatch should yield 0, got %f", got)
	}
}
