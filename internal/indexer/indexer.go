package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/config"
	"github.com/hyperjump/hanron/internal/embedding"
	"github.com/hyperjump/hanron/internal/extract"
	"github.com/hyperjump/hanron/internal/fileid"
	"github.com/hyperjump/hanron/internal/models"
	"github.com/hyperjump/hanron/internal/storage"
	"github.com/hyperjump/hanron/internal/vector"
)

// Extensions of internal documents loaded into the collection.
var sourceExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".docx": true,
	".xlsx": true,
}

// Indexer owns the evidence collection: it opens it with the embedding
// dimension compatibility protocol and rebuilds it from the source document
// tree when needed.
type Indexer struct {
	cfg       *config.Config
	embedder  embedding.Embedder
	extractor *extract.Extractor
	logger    *zap.Logger

	mu   sync.Mutex
	coll *Collection
}

// NewIndexer creates an indexer over the configured collection directory.
func NewIndexer(cfg *config.Config, embedder embedding.Embedder, extractor *extract.Extractor, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{cfg: cfg, embedder: embedder, extractor: extractor, logger: logger}
}

// Collection returns the open collection, applying the dimension protocol
// and opening it on first use.
func (idx *Indexer) Collection(ctx context.Context) (*Collection, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.collectionLocked(ctx)
}

func (idx *Indexer) collectionLocked(ctx context.Context) (*Collection, error) {
	if idx.coll != nil {
		return idx.coll, nil
	}
	if err := idx.ensureDimensionCompatible(ctx); err != nil {
		return nil, err
	}
	coll, err := OpenCollection(idx.cfg.Storage.CollectionDir, idx.cfg.Provider.EmbedDimensions)
	if err != nil {
		return nil, err
	}
	idx.coll = coll
	return coll, nil
}

// Close closes the open collection, if any.
func (idx *Indexer) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.coll == nil {
		return nil
	}
	err := idx.coll.Close()
	idx.coll = nil
	return err
}

// ensureDimensionCompatible inspects the on-disk collection before opening.
// An existing collection whose stored embedding dimension differs from the
// configured one is backed up next to itself and removed, forcing a fresh
// build. A collection without dimension metadata is treated as the oldest
// default (768) and handled the same way.
func (idx *Indexer) ensureDimensionCompatible(ctx context.Context) error {
	dir := idx.cfg.Storage.CollectionDir
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	store, err := storage.NewSQLiteStore(filepath.Join(dir, chunksFile))
	if err != nil {
		return fmt.Errorf("inspect collection: %w", err)
	}
	count, err := store.CountChunks(ctx)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("inspect collection: %w", err)
	}
	storedDim := 0
	if v, metaErr := store.GetMeta(ctx, storage.MetaEmbeddingDimension); metaErr == nil {
		storedDim, _ = strconv.Atoi(v)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("inspect collection: %w", err)
	}

	if count == 0 && storedDim == 0 {
		// Fresh or never-populated collection, nothing to migrate.
		return nil
	}
	if storedDim == 0 {
		// Populated but no dimension metadata: legacy collection from before
		// the metadata was recorded, when 768 was the only dimension in use.
		idx.logger.Warn("collection has no embedding dimension metadata, assuming legacy",
			zap.Int("assumed_dimension", config.LegacyDefaultDimensions))
		storedDim = config.LegacyDefaultDimensions
	}
	want := idx.cfg.Provider.EmbedDimensions
	if storedDim == want {
		return nil
	}

	backup := filepath.Join(filepath.Dir(dir), fmt.Sprintf("collection_backup_%dd", want))
	idx.logger.Warn("embedding dimension changed, rebuilding collection",
		zap.Int("stored_dimension", storedDim),
		zap.Int("configured_dimension", want),
		zap.String("backup", backup))
	if err := storage.CopyDir(dir, backup); err != nil {
		return fmt.Errorf("back up collection: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove incompatible collection: %w", err)
	}
	return nil
}

// Index builds the collection from the internal documents under sourceDir.
// A populated collection with an unchanged source fingerprint is left alone
// and its chunk count returned; a changed fingerprint triggers a full
// rebuild. Returns models.ErrNotFound when no source directory can be found
// and models.ErrNoDocuments when the directory yields no parsable documents.
func (idx *Indexer) Index(ctx context.Context, sourceDir string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	dir, err := resolveSourceDir(sourceDir)
	if err != nil {
		return 0, err
	}
	fingerprint, err := sourceFingerprint(dir)
	if err != nil {
		return 0, fmt.Errorf("fingerprint source tree: %w", err)
	}

	coll, err := idx.collectionLocked(ctx)
	if err != nil {
		return 0, err
	}
	count, err := coll.Store.CountChunks(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		stored, metaErr := coll.Store.GetMeta(ctx, storage.MetaSourceFingerprint)
		if metaErr == nil && stored == fingerprint {
			idx.logger.Info("collection up to date, skipping indexing",
				zap.Int64("chunks", count))
			return int(count), nil
		}
		idx.logger.Info("source documents changed, rebuilding collection",
			zap.Int64("previous_chunks", count))
		if err := idx.destroyLocked(); err != nil {
			return 0, err
		}
		if coll, err = idx.collectionLocked(ctx); err != nil {
			return 0, err
		}
	}

	docs, err := idx.loadDocuments(dir)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no parsable documents in %s: %w", dir, models.ErrNoDocuments)
	}

	total := 0
	chunker := NewChunker(idx.cfg.Chunking.ChunkSize, idx.cfg.Chunking.ChunkOverlap)
	for _, doc := range docs {
		chunks := chunker.Chunk(doc.ID, Preprocess(doc.Text))
		if len(chunks) == 0 {
			continue
		}
		for _, c := range chunks {
			c.DocTitle = doc.Title
			c.DocPath = doc.Path
		}
		if err := idx.embedChunks(ctx, chunks); err != nil {
			return total, err
		}
		if err := idx.storeChunks(ctx, coll, chunks); err != nil {
			return total, fmt.Errorf("store chunks for %s: %w", doc.ID, err)
		}
		total += len(chunks)
		idx.logger.Debug("document indexed",
			zap.String("doc_id", doc.ID),
			zap.Int("chunks", len(chunks)))
	}

	meta := map[string]string{
		storage.MetaEmbeddingDimension: strconv.Itoa(idx.cfg.Provider.EmbedDimensions),
		storage.MetaEmbeddingModel:     idx.cfg.Provider.EmbedModel,
		storage.MetaLLMProvider:        idx.cfg.Provider.Name,
		storage.MetaDescription:        "internal company documents for claim analysis",
		storage.MetaSourceFingerprint:  fingerprint,
	}
	for k, v := range meta {
		if err := coll.Store.SetMeta(ctx, k, v); err != nil {
			return total, fmt.Errorf("write collection metadata: %w", err)
		}
	}
	if err := coll.Save(); err != nil {
		return total, fmt.Errorf("persist vector index: %w", err)
	}
	idx.logger.Info("collection indexed",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", total),
		zap.Int("dimensions", idx.cfg.Provider.EmbedDimensions))
	return total, nil
}

// destroyLocked closes and removes the live collection directory.
func (idx *Indexer) destroyLocked() error {
	if idx.coll != nil {
		if err := idx.coll.Close(); err != nil {
			return fmt.Errorf("close collection: %w", err)
		}
		idx.coll = nil
	}
	if err := os.RemoveAll(idx.cfg.Storage.CollectionDir); err != nil {
		return fmt.Errorf("remove collection: %w", err)
	}
	return nil
}

// embedChunks fills chunk embeddings in batches. A failed batch is replaced
// with zero vectors and logged so one provider hiccup cannot abort the whole
// run; the affected chunks are simply never retrieved until a re-index.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*models.Chunk) error {
	dims := idx.cfg.Provider.EmbedDimensions
	batchSize := idx.cfg.Provider.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		embs, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			idx.logger.Warn("embedding batch failed, substituting zero vectors",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			for _, c := range batch {
				c.Embedding = make([]float32, dims)
			}
			continue
		}
		for i, c := range batch {
			vector.Normalize(embs[i])
			c.Embedding = embs[i]
		}
	}
	return nil
}

func (idx *Indexer) storeChunks(ctx context.Context, coll *Collection, chunks []*models.Chunk) error {
	if err := coll.Store.PutChunks(ctx, chunks); err != nil {
		return err
	}
	ids := make([]string, len(chunks))
	vecs := make([][]float32, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		vecs[i] = c.Embedding
	}
	if err := coll.Vectors.Add(ctx, ids, vecs); err != nil {
		return err
	}
	for _, c := range chunks {
		if err := coll.Keywords.Add(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// loadDocuments loads every supported document under dir: a direct-children
// pass first, then a recursive walk, deduplicated by path. Unreadable files
// are logged and skipped.
func (idx *Indexer) loadDocuments(dir string) ([]*models.Document, error) {
	var docs []*models.Document
	seen := make(map[string]bool)

	load := func(path string) {
		if seen[path] || !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			return
		}
		seen[path] = true
		text, err := idx.extractor.ExtractText(path)
		if err != nil {
			idx.logger.Warn("failed to load document", zap.String("path", path), zap.Error(err))
			return
		}
		if strings.TrimSpace(text) == "" {
			return
		}
		docs = append(docs, &models.Document{
			ID:    fileid.DocID(path),
			Title: filepath.Base(path),
			Path:  path,
			Text:  text,
		})
		idx.logger.Debug("document loaded", zap.String("path", path), zap.Int("chars", len(text)))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			load(filepath.Join(dir, e.Name()))
		}
	}
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		load(path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk source directory: %w", walkErr)
	}
	return docs, nil
}

// resolveSourceDir returns sourceDir if it exists, otherwise tries a few
// fallback locations relative to the working directory.
func resolveSourceDir(sourceDir string) (string, error) {
	candidates := []string{sourceDir, "data/docs", "docs"}
	if base := filepath.Base(sourceDir); base != "." && base != string(filepath.Separator) {
		candidates = append(candidates, filepath.Join("..", base))
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("source directory %s: %w", sourceDir, models.ErrNotFound)
}

// sourceFingerprint hashes the sorted relative path, size, and mtime of all
// supported files under dir. Any added, removed, resized, or touched file
// changes the fingerprint and re-triggers indexing.
func sourceFingerprint(dir string) (string, error) {
	var lines []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		lines = append(lines, fmt.Sprintf("%s|%d|%d", filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano()))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(lines)
	h := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h[:]), nil
}
