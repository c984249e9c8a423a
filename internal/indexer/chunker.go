// Package indexer builds the persisted evidence collection from internal
// documents: chunking, embedding, and index population.
package indexer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/hanron/internal/models"
)

// Chunker splits text into overlapping word-based chunks.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits text into overlapping windows. Chunk IDs are deterministic
// (<docID>_chunk_<index>) so re-indexing the same document replaces its
// chunks instead of accumulating duplicates.
func (c *Chunker) Chunk(docID, text string) []*models.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	var chunks []*models.Chunk
	index := 0
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, &models.Chunk{
			ID:         fmt.Sprintf("%s_chunk_%d", docID, index),
			DocID:      docID,
			Content:    strings.Join(words[i:end], " "),
			ChunkIndex: index,
		})
		index++
		if end >= len(words) {
			break
		}
	}
	return chunks
}
