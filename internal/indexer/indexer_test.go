package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/config"
	"github.com/hyperjump/hanron/internal/embedding"
	"github.com/hyperjump/hanron/internal/extract"
	"github.com/hyperjump/hanron/internal/models"
	"github.com/hyperjump/hanron/internal/storage"
)

func testConfig(t *testing.T, dims int) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Storage: config.StorageConfig{
			CollectionDir: filepath.Join(root, "collection"),
			SourceDir:     filepath.Join(root, "docs"),
		},
		Provider: config.ProviderConfig{
			Name:            "mock",
			EmbedModel:      "mock-model",
			EmbedDimensions: dims,
			EmbedBatchSize:  10,
		},
		Chunking: config.ChunkingConfig{ChunkSize: 16, ChunkOverlap: 2},
	}
}

func writeDocs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func newTestIndexer(cfg *config.Config) *Indexer {
	emb := embedding.NewMockEmbedder(cfg.Provider.EmbedDimensions)
	return NewIndexer(cfg, emb, extract.NewExtractor(), zap.NewNop())
}

func TestIndexer_IndexAndPersist(t *testing.T) {
	cfg := testConfig(t, 8)
	writeDocs(t, cfg.Storage.SourceDir, map[string]string{
		"policy.txt":        "revenue recognition follows the five step model " + strings.Repeat("detail ", 30),
		"sub/inventory.md":  "inventory is valued at lower of cost and net realizable value",
		"ignored/skip.json": `{"not": "a document"}`,
	})

	idx := newTestIndexer(cfg)
	defer idx.Close()
	ctx := context.Background()

	n, err := idx.Index(ctx, cfg.Storage.SourceDir)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if n == 0 {
		t.Fatal("no chunks indexed")
	}

	coll, err := idx.Collection(ctx)
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	count, _ := coll.Store.CountChunks(ctx)
	if int(count) != n {
		t.Errorf("stored chunks = %d, indexed = %d", count, n)
	}
	if coll.Vectors.Size() != n {
		t.Errorf("vector entries = %d, want %d", coll.Vectors.Size(), n)
	}
	kc, _ := coll.Keywords.DocCount()
	if int(kc) != n {
		t.Errorf("keyword entries = %d, want %d", kc, n)
	}

	dim, err := coll.Store.GetMeta(ctx, storage.MetaEmbeddingDimension)
	if err != nil || dim != "8" {
		t.Errorf("dimension meta = %q, err %v", dim, err)
	}
	if _, err := coll.Store.GetMeta(ctx, storage.MetaSourceFingerprint); err != nil {
		t.Errorf("fingerprint meta missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Storage.CollectionDir, "vectors.bin")); err != nil {
		t.Errorf("vectors.bin not saved: %v", err)
	}
}

func TestIndexer_SkipsWhenUnchanged(t *testing.T) {
	cfg := testConfig(t, 8)
	writeDocs(t, cfg.Storage.SourceDir, map[string]string{"a.txt": "alpha beta gamma delta"})

	idx := newTestIndexer(cfg)
	defer idx.Close()
	ctx := context.Background()

	n1, err := idx.Index(ctx, cfg.Storage.SourceDir)
	if err != nil {
		t.Fatalf("first Index: %v", err)
	}
	n2, err := idx.Index(ctx, cfg.Storage.SourceDir)
	if err != nil {
		t.Fatalf("second Index: %v", err)
	}
	if n1 != n2 {
		t.Errorf("counts differ: %d vs %d", n1, n2)
	}
	coll, _ := idx.Collection(ctx)
	if coll.Vectors.Size() != n1 {
		t.Errorf("vector entries = %d after re-index, want %d", coll.Vectors.Size(), n1)
	}
}

func TestIndexer_RebuildsOnSourceChange(t *testing.T) {
	cfg := testConfig(t, 8)
	writeDocs(t, cfg.Storage.SourceDir, map[string]string{"a.txt": "alpha beta gamma delta"})

	idx := newTestIndexer(cfg)
	defer idx.Close()
	ctx := context.Background()
	if _, err := idx.Index(ctx, cfg.Storage.SourceDir); err != nil {
		t.Fatalf("first Index: %v", err)
	}

	// mtime granularity can swallow fast successive writes.
	future := time.Now().Add(2 * time.Second)
	writeDocs(t, cfg.Storage.SourceDir, map[string]string{"b.txt": "epsilon zeta eta theta"})
	if err := os.Chtimes(filepath.Join(cfg.Storage.SourceDir, "b.txt"), future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	n, err := idx.Index(ctx, cfg.Storage.SourceDir)
	if err != nil {
		t.Fatalf("Index after change: %v", err)
	}
	coll, _ := idx.Collection(ctx)
	ids := []string{"a_chunk_0", "b_chunk_0"}
	got, err := coll.Store.GetChunks(ctx, ids)
	if err != nil {
		t.Fatalf("GetChunks: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("chunks after rebuild = %d, want both documents (total %d)", len(got), n)
	}
}

func TestIndexer_DimensionMismatchBackup(t *testing.T) {
	cfg := testConfig(t, 8)
	writeDocs(t, cfg.Storage.SourceDir, map[string]string{"a.txt": "alpha beta gamma delta"})
	ctx := context.Background()

	idx8 := newTestIndexer(cfg)
	if _, err := idx8.Index(ctx, cfg.Storage.SourceDir); err != nil {
		t.Fatalf("Index at 8d: %v", err)
	}
	if err := idx8.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cfg.Provider.EmbedDimensions = 16
	idx16 := newTestIndexer(cfg)
	defer idx16.Close()
	n, err := idx16.Index(ctx, cfg.Storage.SourceDir)
	if err != nil {
		t.Fatalf("Index at 16d: %v", err)
	}
	if n == 0 {
		t.Fatal("no chunks after rebuild")
	}

	backup := filepath.Join(filepath.Dir(cfg.Storage.CollectionDir), "collection_backup_16d")
	if _, err := os.Stat(filepath.Join(backup, "chunks.db")); err != nil {
		t.Errorf("backup not created: %v", err)
	}

	coll, _ := idx16.Collection(ctx)
	dim, _ := coll.Store.GetMeta(ctx, storage.MetaEmbeddingDimension)
	if dim != "16" {
		t.Errorf("dimension meta = %q, want 16", dim)
	}
	if coll.Vectors.Dimensions() != 16 {
		t.Errorf("vector dimensions = %d", coll.Vectors.Dimensions())
	}
}

func TestIndexer_LegacyCollectionWithoutDimensionMeta(t *testing.T) {
	cfg := testConfig(t, 8)
	writeDocs(t, cfg.Storage.SourceDir, map[string]string{"a.txt": "alpha beta gamma delta"})
	ctx := context.Background()

	idx8 := newTestIndexer(cfg)
	if _, err := idx8.Index(ctx, cfg.Storage.SourceDir); err != nil {
		t.Fatalf("Index at 8d: %v", err)
	}
	if err := idx8.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Blank the dimension metadata so the populated collection looks like
	// one persisted before dimensions were recorded.
	store, err := storage.NewSQLiteStore(filepath.Join(cfg.Storage.CollectionDir, chunksFile))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.SetMeta(ctx, storage.MetaEmbeddingDimension, ""); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// A legacy collection is assumed 768-wide, so a 16d config must back it
	// up and rebuild, exactly like an explicit mismatch.
	cfg.Provider.EmbedDimensions = 16
	idx16 := newTestIndexer(cfg)
	defer idx16.Close()
	n, err := idx16.Index(ctx, cfg.Storage.SourceDir)
	if err != nil {
		t.Fatalf("Index at 16d: %v", err)
	}
	if n == 0 {
		t.Fatal("no chunks after rebuild")
	}

	backup := filepath.Join(filepath.Dir(cfg.Storage.CollectionDir), "collection_backup_16d")
	if _, err := os.Stat(filepath.Join(backup, chunksFile)); err != nil {
		t.Errorf("backup not created: %v", err)
	}

	coll, _ := idx16.Collection(ctx)
	dim, _ := coll.Store.GetMeta(ctx, storage.MetaEmbeddingDimension)
	if dim != "16" {
		t.Errorf("dimension meta = %q, want 16", dim)
	}
	if coll.Vectors.Dimensions() != 16 {
		t.Errorf("vector dimensions = %d", coll.Vectors.Dimensions())
	}
}

func TestIndexer_SourceDirMissing(t *testing.T) {
	cfg := testConfig(t, 8)
	idx := newTestIndexer(cfg)
	defer idx.Close()

	_, err := idx.Index(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIndexer_NoDocuments(t *testing.T) {
	cfg := testConfig(t, 8)
	writeDocs(t, cfg.Storage.SourceDir, map[string]string{"only.json": "{}"})

	idx := newTestIndexer(cfg)
	defer idx.Close()
	_, err := idx.Index(context.Background(), cfg.Storage.SourceDir)
	if !errors.Is(err, models.ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}

func TestSourceFingerprint(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{"a.txt": "one", "b.md": "two"})

	fp1, err := sourceFingerprint(dir)
	if err != nil {
		t.Fatalf("sourceFingerprint: %v", err)
	}
	fp2, _ := sourceFingerprint(dir)
	if fp1 != fp2 {
		t.Error("fingerprint not stable")
	}

	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(filepath.Join(dir, "a.txt"), future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	fp3, _ := sourceFingerprint(dir)
	if fp3 == fp1 {
		t.Error("fingerprint did not change after touch")
	}

	// Files outside the supported extensions never affect the fingerprint.
	writeDocs(t, dir, map[string]string{"c.tmp": "scratch"})
	fp4, _ := sourceFingerprint(dir)
	if fp4 != fp3 {
		t.Error("unsupported file changed the fingerprint")
	}
}

func TestResolveSourceDir_Fallback(t *testing.T) {
	if _, err := resolveSourceDir(filepath.Join(t.TempDir(), fmt.Sprintf("missing-%d", time.Now().UnixNano()))); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	dir := t.TempDir()
	got, err := resolveSourceDir(dir)
	if err != nil || got != dir {
		t.Errorf("resolveSourceDir = %q, %v", got, err)
	}
}
