// Package extract provides page-aware text extraction from document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/hanron/internal/models"
)

// Extractor extracts text from document files as ordered pages. Paginated
// formats (PDF) yield one entry per page; flat formats yield a single page
// numbered 1.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its pages. maxPages bounds how
// many pages are read from paginated formats; 0 or negative means all pages.
// Returns an error if the file cannot be read or the format is unsupported.
func (e *Extractor) Extract(path string, maxPages int) ([]models.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext, maxPages)
}

// ExtractBytes extracts pages from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string, maxPages int) ([]models.Page, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content, maxPages)
	case ".docx", ".doc":
		text, err := extractDOCX(content)
		if err != nil {
			return nil, err
		}
		return singlePage(text), nil
	case ".xlsx":
		text, err := extractExcel(content)
		if err != nil {
			return nil, err
		}
		return singlePage(text), nil
	case ".txt", ".md", "":
		text, err := extractPlain(content)
		if err != nil {
			return nil, err
		}
		return singlePage(text), nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

// ExtractText returns the full document text as one string, pages joined
// with page headers. Used when loading internal documents for indexing.
func (e *Extractor) ExtractText(path string) (string, error) {
	pages, err := e.Extract(path, 0)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n")), nil
}

func singlePage(text string) []models.Page {
	return []models.Page{{Number: 1, Text: strings.TrimSpace(text)}}
}
