// Package fileid derives stable document IDs from file paths.
package fileid

import (
	"path/filepath"
	"strings"
	"unicode"
)

// DocID returns a deterministic document ID for the file at path: the file
// name without its extension, lowercased, with runs of whitespace and
// punctuation collapsed to single underscores. The same path always yields
// the same ID, so re-indexing replaces rather than duplicates.
func DocID(path string) string {
	base := filepath.Base(filepath.Clean(path))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(stem) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "doc"
	}
	return b.String()
}
