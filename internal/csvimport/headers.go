package csvimport

import (
	"regexp"
	"strings"

	"github.com/bookstore-catalog-api/internal/validation"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeHeader maps a human-authored column header to its canonical
// field name: lower-cased, trimmed, whitespace runs joined with "_", then
// resolved through the field registry's synonym table. Headers with no
// synonym are returned in their normalized form.
func NormalizeHeader(raw string) string {
	h := strings.TrimPrefix(raw, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = whitespaceRun.ReplaceAllString(h, "_")
	return validation.CanonicalName(h)
}

// NormalizeHeaders applies NormalizeHeader to every header in a row
func NormalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		out[i] = NormalizeHeader(h)
	}
	return out
}
