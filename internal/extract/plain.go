package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain handles .txt and .md content. Invalid UTF-8 sequences are
// replaced rather than rejected so partially corrupted reports still index.
func extractPlain(content []byte) (string, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return strings.TrimSpace(text), nil
}
