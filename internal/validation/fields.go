package validation

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bookstore-catalog-api/internal/models"
)

// Canonical field names produced by header normalization
const (
	FieldTitle           = "title"
	FieldAuthor          = "author"
	FieldDescription     = "description"
	FieldPrice           = "price"
	FieldCoverImage      = "coverImage"
	FieldISBN            = "isbn"
	FieldPublisher       = "publisher"
	FieldPublicationDate = "publicationDate"
	FieldPageCount       = "pageCount"
	FieldStockQuantity   = "stockQuantity"
	FieldRating          = "rating"
	FieldGenre           = "genre"
)

// Limits enforced on imported values
const (
	MaxTitleLength  = 200
	MaxAuthorLength = 100
	MaxPrice        = 10000
	MaxPageCount    = 10000
	MaxRating       = 5
)

var isbnStripper = regexp.MustCompile(`[\s-]`)
var isbnDigits = regexp.MustCompile(`^(\d{10}|\d{13})$`)

// dateLayouts are tried in order when parsing publication dates
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006-01",
	"2006",
}

// Field binds a canonical column name to its header synonyms, its
// validator and the setter that copies a validated value into a record.
type Field struct {
	Name     string
	Synonyms []string
	// Required fields must be present and non-blank in standard-format rows
	Required bool
	// Check validates a trimmed, non-blank raw value
	Check func(value string) error
	// Apply copies a trimmed, non-blank value into the record
	Apply func(value string, row *models.ImportedBookRow)
}

var registry = []Field{
	{
		Name:     FieldTitle,
		Synonyms: []string{"book_title", "booktitle", "book"},
		Required: true,
		Check:    maxLength("title", MaxTitleLength),
		Apply:    func(v string, r *models.ImportedBookRow) { r.Title = v },
	},
	{
		Name:     FieldAuthor,
		Synonyms: []string{"author_name", "authorname", "authors", "writer"},
		Required: true,
		Check:    maxLength("author", MaxAuthorLength),
		Apply:    func(v string, r *models.ImportedBookRow) { r.Author = v },
	},
	{
		Name:     FieldDescription,
		Synonyms: []string{"desc", "summary", "synopsis"},
		Apply:    func(v string, r *models.ImportedBookRow) { r.Description = v },
	},
	{
		Name:     FieldPrice,
		Synonyms: []string{"cost", "selling_price", "sale_price"},
		Required: true,
		Check:    numberInRange("price", 0, MaxPrice),
		Apply:    func(v string, r *models.ImportedBookRow) { r.Price = ParseNumber(v) },
	},
	{
		Name:     FieldCoverImage,
		Synonyms: []string{"cover_image", "coverimage", "cover_image_url", "coverimageurl", "cover", "cover_url", "image", "image_url"},
		Check:    checkURL,
		Apply:    func(v string, r *models.ImportedBookRow) { r.CoverImage = v },
	},
	{
		Name:     FieldISBN,
		Synonyms: []string{"isbn10", "isbn13", "isbn_10", "isbn_13"},
		Required: true,
		Check:    checkISBN,
		Apply:    func(v string, r *models.ImportedBookRow) { r.ISBN = NormalizeISBN(v) },
	},
	{
		Name:     FieldPublisher,
		Synonyms: []string{"publisher_name", "imprint"},
		Apply:    func(v string, r *models.ImportedBookRow) { r.Publisher = v },
	},
	{
		Name:     FieldPublicationDate,
		Synonyms: []string{"pub_date", "pubdate", "publication_date", "publicationdate", "published", "published_date", "release_date"},
		Check:    checkDate,
		Apply: func(v string, r *models.ImportedBookRow) {
			if t, ok := ParseDate(v); ok {
				r.PublicationDate = t.Format("2006-01-02")
			}
		},
	},
	{
		Name:     FieldPageCount,
		Synonyms: []string{"page_count", "pagecount", "pages", "number_of_pages"},
		Check:    integerInRange("pageCount", 1, MaxPageCount),
		Apply:    func(v string, r *models.ImportedBookRow) { r.PageCount = ParseInt(v) },
	},
	{
		Name:     FieldStockQuantity,
		Synonyms: []string{"stock", "quantity", "qty", "stock_quantity", "stockquantity", "in_stock"},
		Check:    integerInRange("stockQuantity", 0, math.MaxInt32),
		Apply:    func(v string, r *models.ImportedBookRow) { r.StockQuantity = ParseInt(v) },
	},
	{
		Name:     FieldRating,
		Synonyms: []string{"stars", "average_rating"},
		Check:    numberInRange("rating", 0, MaxRating),
		Apply:    func(v string, r *models.ImportedBookRow) { r.Rating = ParseNumber(v) },
	},
	{
		Name:     FieldGenre,
		Synonyms: []string{"genres", "category", "categories", "subjects"},
		Apply:    func(v string, r *models.ImportedBookRow) { r.Genre = SplitGenres(v) },
	},
}

var synonyms = buildSynonymIndex(registry)

func buildSynonymIndex(fields []Field) map[string]string {
	index := make(map[string]string)
	for _, f := range fields {
		index[strings.ToLower(f.Name)] = f.Name
		for _, s := range f.Synonyms {
			index[s] = f.Name
		}
	}
	return index
}

// Fields returns the registry in template column order
func Fields() []Field {
	out := make([]Field, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the registry entry for a canonical field name
func Lookup(name string) (Field, bool) {
	for _, f := range registry {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CanonicalName maps an already lower-cased, underscore-joined header to
// its canonical field name. Unknown names are returned unchanged.
func CanonicalName(normalized string) string {
	if name, ok := synonyms[normalized]; ok {
		return name
	}
	return normalized
}

// NormalizeISBN strips hyphens and whitespace
func NormalizeISBN(s string) string {
	return isbnStripper.ReplaceAllString(s, "")
}

// ParseDate parses s with the first matching supported layout
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SplitGenres splits a comma-delimited cell into trimmed, non-empty tokens
func SplitGenres(s string) []string {
	genres := []string{}
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// ParseNumber parses a float, returning 0 when the value is not a finite number
func ParseNumber(s string) float64 {
	f, err := parseFinite(s)
	if err != nil {
		return 0
	}
	return f
}

// ParseInt parses an integer, returning 0 when the value is not an integer
func ParseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}

func maxLength(name string, max int) func(string) error {
	return func(v string) error {
		if utf8.RuneCountInString(v) > max {
			return fmt.Errorf("%s must be at most %d characters", name, max)
		}
		return nil
	}
}

func numberInRange(name string, min, max float64) func(string) error {
	return func(v string) error {
		f, err := parseFinite(v)
		if err != nil {
			return fmt.Errorf("%s must be a number", name)
		}
		if f < min || f > max {
			return fmt.Errorf("%s must be between %s and %s", name, formatBound(min), formatBound(max))
		}
		return nil
	}
}

func integerInRange(name string, min, max int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a whole number", name)
		}
		if n < min {
			return fmt.Errorf("%s must be at least %d", name, min)
		}
		if n > max {
			return fmt.Errorf("%s must be at most %d", name, max)
		}
		return nil
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func checkISBN(v string) error {
	if !isbnDigits.MatchString(NormalizeISBN(v)) {
		return errors.New("isbn must contain exactly 10 or 13 digits")
	}
	return nil
}

func checkDate(v string) error {
	if _, ok := ParseDate(v); !ok {
		return errors.New("publicationDate must be a valid date (YYYY-MM-DD)")
	}
	return nil
}

func checkURL(v string) error {
	u, err := url.ParseRequestURI(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("coverImage must be a valid http or https URL")
	}
	return nil
}
