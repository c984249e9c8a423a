package indexer

import (
	"fmt"
	"path/filepath"

	"github.com/hyperjump/hanron/internal/keyword"
	"github.com/hyperjump/hanron/internal/storage"
	"github.com/hyperjump/hanron/internal/vector"
)

// Collection file names inside the collection directory.
const (
	vectorsFile  = "vectors.bin"
	chunksFile   = "chunks.db"
	keywordsFile = "keywords.bleve"
)

// Collection bundles the persisted indices that make up one evidence
// collection: the brute-force vector index, the SQLite chunk store with
// collection metadata, and the Bleve keyword index. All three live under a
// single directory so the collection can be backed up or destroyed as a unit.
type Collection struct {
	Dir      string
	Store    storage.Store
	Vectors  vector.Index
	Keywords keyword.Index
}

// OpenCollection opens (or creates) the collection at dir expecting vectors
// of the given dimension. Existing vector data is loaded from disk.
func OpenCollection(dir string, dimensions int) (*Collection, error) {
	store, err := storage.NewSQLiteStore(filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	vectors, err := vector.NewFlatIndex(dimensions)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := vectors.Load(filepath.Join(dir, vectorsFile)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load vector index: %w", err)
	}
	keywords, err := keyword.NewBleveIndex(filepath.Join(dir, keywordsFile))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open keyword index: %w", err)
	}
	return &Collection{Dir: dir, Store: store, Vectors: vectors, Keywords: keywords}, nil
}

// Save persists the vector index to disk. SQLite and Bleve write through.
func (c *Collection) Save() error {
	return c.Vectors.Save(filepath.Join(c.Dir, vectorsFile))
}

// Close closes all indices. Every index is closed even if one fails; the
// first error is returned.
func (c *Collection) Close() error {
	var firstErr error
	if err := c.Store.Close(); err != nil {
		firstErr = err
	}
	if err := c.Vectors.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.Keywords.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
