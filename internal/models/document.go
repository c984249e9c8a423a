// Package models defines core data structures for documents, claims, and analyses.
package models

import "time"

// Page is one page of extracted document text. Flat formats (TXT, DOCX)
// produce a single page numbered 1.
type Page struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

// Document is an internal evidence document loaded from the source directory.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
	Text  string `json:"text"`
}

// Chunk is an overlapping window of document text, the unit of embedding
// and retrieval. Immutable once created; the ID is deterministic
// (doc id + "_chunk_" + index) so re-indexing identical text yields
// identical IDs.
type Chunk struct {
	ID         string    `json:"id" db:"id"`
	DocID      string    `json:"doc_id" db:"doc_id"`
	DocTitle   string    `json:"doc_title" db:"doc_title"`
	DocPath    string    `json:"doc_path" db:"doc_path"`
	Content    string    `json:"content" db:"content"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
