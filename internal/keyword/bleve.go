// Package keyword provides the Bleve implementation of Index.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/hanron/internal/models"
)

// chunkDoc is the shape indexed into Bleve per chunk.
type chunkDoc struct {
	Content  string `json:"content"`
	DocTitle string `json:"doc_title"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// reused so unchanged collections need no re-index. Remove the directory to
// force a rebuild after a mapping change.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) keeps financial
	// terms like "EBITDA" or ticker symbols matching exactly.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textField)
	docMapping.AddFieldMappingsAt("doc_title", textField)
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Add indexes a chunk's content and document title under the chunk ID.
func (b *BleveIndex) Add(ctx context.Context, chunk *models.Chunk) error {
	return b.index.Index(chunk.ID, chunkDoc{
		Content:  chunk.Content,
		DocTitle: chunk.DocTitle,
	})
}

// Search runs a match query over content and title and returns up to limit hits.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	out := make([]*Result, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes a chunk from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the underlying index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
