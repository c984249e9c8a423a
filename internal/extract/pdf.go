package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/hanron/internal/models"
)

// extractPDF extracts per-page text from PDF bytes. Pages whose text cannot
// be decoded are emitted empty rather than aborting the document, so a
// single bad page does not lose the rest. maxPages <= 0 reads all pages.
func extractPDF(content []byte, maxPages int) ([]models.Page, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	if maxPages > 0 && numPages > maxPages {
		numPages = maxPages
	}
	pages := make([]models.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, models.Page{Number: i})
			continue
		}
		pages = append(pages, models.Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}
