package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FlatIndex is a brute-force inner product index held in memory and persisted
// to a single binary file. Collections here are small enough (one filing set
// per installation) that exhaustive scan beats maintaining an ANN structure.
type FlatIndex struct {
	mu         sync.RWMutex
	dimensions int
	ids        []string
	vectors    [][]float32
}

// NewFlatIndex creates an empty index expecting vectors of the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Dimensions returns the vector dimension this index expects.
func (x *FlatIndex) Dimensions() int {
	return x.dimensions
}

// Add appends vectors under the given IDs. Every vector must match the index
// dimension; vectors are copied so callers may reuse their buffers.
func (x *FlatIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, id := range ids {
		if len(vectors[i]) != x.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), x.dimensions)
		}
		vec := make([]float32, x.dimensions)
		copy(vec, vectors[i])
		x.ids = append(x.ids, id)
		x.vectors = append(x.vectors, vec)
	}
	return nil
}

// Search returns the top-k entries by inner product against query.
// An empty index returns no results and no error.
func (x *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dimensions)
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if k <= 0 || len(x.ids) == 0 {
		return nil, nil
	}
	hits := make([]*Result, len(x.ids))
	for i, vec := range x.vectors {
		hits[i] = &Result{ID: x.ids[i], Score: InnerProduct(query, vec)}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Remove drops entries whose ID is in ids.
func (x *FlatIndex) Remove(ctx context.Context, ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	keptIDs := x.ids[:0]
	keptVecs := x.vectors[:0]
	for i, id := range x.ids {
		if _, ok := drop[id]; ok {
			continue
		}
		keptIDs = append(keptIDs, id)
		keptVecs = append(keptVecs, x.vectors[i])
	}
	x.ids = keptIDs
	x.vectors = keptVecs
	return nil
}

// Save writes the index to path, creating parent directories as needed.
// Layout (little-endian): dimension uint32, count uint32, then per entry
// idLen uint32, id bytes, dimension*4 bytes of float32.
func (x *FlatIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	header := [2]uint32{uint32(x.dimensions), uint32(len(x.ids))}
	if err := binary.Write(f, binary.LittleEndian, header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, id := range x.ids {
		if err := binary.Write(f, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("write id length: %w", err)
		}
		if _, err := f.Write([]byte(id)); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := binary.Write(f, binary.LittleEndian, x.vectors[i]); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the index contents with the file at path. A missing file
// leaves the index unchanged. The file dimension must match the index.
func (x *FlatIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var header [2]uint32
	if err := binary.Read(f, binary.LittleEndian, header[:]); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	dim, n := int(header[0]), header[1]
	if dim != x.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, x.dimensions)
	}
	ids := make([]string, 0, n)
	vectors := make([][]float32, 0, n)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(f, binary.LittleEndian, &idLen); err != nil {
			return fmt.Errorf("read id length: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(f, idBytes); err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		vec := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		ids = append(ids, string(idBytes))
		vectors = append(vectors, vec)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ids = ids
	x.vectors = vectors
	return nil
}

// Size returns the number of stored vectors.
func (x *FlatIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

// Close is a no-op; kept to satisfy Index.
func (x *FlatIndex) Close() error {
	return nil
}

// FileDimensions reads only the dimension header of a persisted index file.
// Returns ok=false when the file does not exist.
func FileDimensions(path string) (dim int, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var d uint32
	if err := binary.Read(f, binary.LittleEndian, &d); err != nil {
		return 0, false, fmt.Errorf("read dimension header: %w", err)
	}
	if d == 0 || d > math.MaxInt32 {
		return 0, false, fmt.Errorf("corrupt dimension header: %d", d)
	}
	return int(d), true, nil
}
