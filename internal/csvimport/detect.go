package csvimport

import (
	"strings"

	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/validation"
)

// alternativeMarkers flag a title cell that embeds pricing ("Title = 4k",
// "Title (2) = 3k5 each"). "=" also covers "= ".
var alternativeMarkers = []string{"=", "each"}

// DetectFormat decides once per file which pipeline handles every row.
// The alternative format needs both author and title columns and at least
// one title cell carrying an embedded price marker.
func DetectFormat(headers []string, rows []Row) models.ImportFormat {
	if !hasHeader(headers, validation.FieldAuthor) || !hasHeader(headers, validation.FieldTitle) {
		return models.FormatStandard
	}
	for _, row := range rows {
		title, ok := row.Get(validation.FieldTitle)
		if !ok {
			continue
		}
		for _, marker := range alternativeMarkers {
			if strings.Contains(title, marker) {
				return models.FormatAlternative
			}
		}
	}
	return models.FormatStandard
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
