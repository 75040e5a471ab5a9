package validation

import (
	"reflect"
	"strings"
	"testing"
)

func validRow() map[string]string {
	return map[string]string{
		"title":           "The Pragmatic Programmer",
		"author":          "David Thomas",
		"description":     "Classic software craftsmanship book",
		"price":           "2500",
		"coverImage":      "https://example.com/covers/pragmatic.jpg",
		"isbn":            "978-0-13-595705-9",
		"publisher":       "Addison-Wesley",
		"publicationDate": "2019-09-13",
		"pageCount":       "352",
		"stockQuantity":   "3",
		"rating":          "4.5",
		"genre":           "Programming, Software",
	}
}

func with(overrides map[string]string) map[string]string {
	row := validRow()
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestValidateRow(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		row        map[string]string
		wantErrors int
		wantFields []string
	}{
		{
			name:       "valid row with all fields",
			row:        validRow(),
			wantErrors: 0,
		},
		{
			name: "valid row with only required fields",
			row: map[string]string{
				"title":  "Dune",
				"author": "Frank Herbert",
				"price":  "4000",
				"isbn":   "0441013597",
			},
			wantErrors: 0,
		},
		{
			name:       "missing title - required field",
			row:        with(map[string]string{"title": ""}),
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name:       "blank author - required field",
			row:        with(map[string]string{"author": "   "}),
			wantErrors: 1,
			wantFields: []string{"author"},
		},
		{
			name:       "title too long",
			row:        with(map[string]string{"title": strings.Repeat("a", 201)}),
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name:       "author too long",
			row:        with(map[string]string{"author": strings.Repeat("b", 101)}),
			wantErrors: 1,
			wantFields: []string{"author"},
		},
		{
			name:       "price not a number",
			row:        with(map[string]string{"price": "cheap"}),
			wantErrors: 1,
			wantFields: []string{"price"},
		},
		{
			name:       "negative price",
			row:        with(map[string]string{"price": "-1"}),
			wantErrors: 1,
			wantFields: []string{"price"},
		},
		{
			name:       "invalid isbn length",
			row:        with(map[string]string{"isbn": "12345"}),
			wantErrors: 1,
			wantFields: []string{"isbn"},
		},
		{
			name:       "invalid date",
			row:        with(map[string]string{"publicationDate": "2023-02-30"}),
			wantErrors: 1,
			wantFields: []string{"publicationDate"},
		},
		{
			name:       "invalid cover url",
			row:        with(map[string]string{"coverImage": "not a url"}),
			wantErrors: 1,
			wantFields: []string{"coverImage"},
		},
		{
			name:       "fractional page count",
			row:        with(map[string]string{"pageCount": "12.5"}),
			wantErrors: 1,
			wantFields: []string{"pageCount"},
		},
		{
			name:       "negative stock",
			row:        with(map[string]string{"stockQuantity": "-2"}),
			wantErrors: 1,
			wantFields: []string{"stockQuantity"},
		},
		{
			name: "multiple validation errors",
			row: map[string]string{
				"title":     "",
				"author":    "",
				"price":     "abc",
				"isbn":      "1",
				"pageCount": "0",
				"rating":    "9",
			},
			wantErrors: 6,
		},
		{
			name:       "missing price and isbn",
			row:        map[string]string{"title": "Emma", "author": "Jane Austen"},
			wantErrors: 2,
			wantFields: []string{"price", "isbn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := validator.ValidateRow(tt.row)
			if len(errors) != tt.wantErrors {
				t.Errorf("ValidateRow() got %d errors, want %d. Errors: %v", len(errors), tt.wantErrors, errors)
			}

			for _, wantField := range tt.wantFields {
				found := false
				for _, err := range errors {
					if err.Field == wantField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("Expected error for field '%s' but not found", wantField)
				}
			}
		})
	}
}

func TestValidateRow_BoundaryValues(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		field string
		value string
		valid bool
	}{
		{"price", "0", true},
		{"price", "10000", true},
		{"price", "10000.01", false},
		{"rating", "0", true},
		{"rating", "5", true},
		{"rating", "5.01", false},
		{"pageCount", "1", true},
		{"pageCount", "10000", true},
		{"pageCount", "0", false},
		{"pageCount", "10001", false},
		{"stockQuantity", "0", true},
		{"title", strings.Repeat("t", 200), true},
		{"author", strings.Repeat("a", 100), true},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			errors := validator.ValidateRow(with(map[string]string{tt.field: tt.value}))
			if got := len(errors) == 0; got != tt.valid {
				t.Errorf("%s=%q valid = %v, want %v (errors: %v)", tt.field, tt.value, got, tt.valid, errors)
			}
		})
	}
}

func TestValidateRow_ErrorCarriesRawValue(t *testing.T) {
	errors := NewValidator().ValidateRow(with(map[string]string{"rating": "excellent"}))
	if len(errors) != 1 {
		t.Fatalf("expected 1 error, got %v", errors)
	}
	if errors[0].Value != "excellent" {
		t.Errorf("Value = %v, want %q", errors[0].Value, "excellent")
	}
	if errors[0].Message != "rating must be a number" {
		t.Errorf("Message = %q", errors[0].Message)
	}
}

func TestTransform(t *testing.T) {
	row := NewValidator().Transform(with(map[string]string{
		"title":           "  The Pragmatic Programmer ",
		"publicationDate": "Sep 13, 2019",
		"genre":           "Programming, , Software ,",
	}))

	if row.Title != "The Pragmatic Programmer" {
		t.Errorf("Title = %q", row.Title)
	}
	if row.ISBN != "9780135957059" {
		t.Errorf("ISBN = %q, want normalized digits", row.ISBN)
	}
	if row.Price != 2500 {
		t.Errorf("Price = %v", row.Price)
	}
	if row.PageCount != 352 || row.StockQuantity != 3 || row.Rating != 4.5 {
		t.Errorf("numeric fields = %d/%d/%v", row.PageCount, row.StockQuantity, row.Rating)
	}
	if row.PublicationDate != "2019-09-13" {
		t.Errorf("PublicationDate = %q", row.PublicationDate)
	}
	if !reflect.DeepEqual(row.Genre, []string{"Programming", "Software"}) {
		t.Errorf("Genre = %v", row.Genre)
	}
}

func TestTransform_AbsentOptionalFields(t *testing.T) {
	row := NewValidator().Transform(map[string]string{"title": "Emma", "author": "Jane Austen"})
	if row.PageCount != 0 || row.StockQuantity != 0 || row.Rating != 0 || row.Price != 0 {
		t.Errorf("expected zero numeric defaults, got %+v", row)
	}
	if row.Genre == nil || len(row.Genre) != 0 {
		t.Errorf("Genre = %#v, want empty slice", row.Genre)
	}
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"978-0-13-468599-1", "9780134685991", true},
		{"0 441 01359 7", "0441013597", true},
		{"12345", "12345", false},
		{"978-0-13-46859X-1", "97801346859X1", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeISBN(tt.in); got != tt.want {
				t.Errorf("NormalizeISBN(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got := checkISBN(tt.in) == nil; got != tt.valid {
				t.Errorf("checkISBN(%q) valid = %v, want %v", tt.in, got, tt.valid)
			}
		})
	}
}

func TestCanonicalName(t *testing.T) {
	tests := map[string]string{
		"cover_image":      "coverImage",
		"coverimage":       "coverImage",
		"cover_image_url":  "coverImage",
		"pub_date":         "publicationDate",
		"publication_date": "publicationDate",
		"publicationdate":  "publicationDate",
		"stock":            "stockQuantity",
		"quantity":         "stockQuantity",
		"stock_quantity":   "stockQuantity",
		"stockquantity":    "stockQuantity",
		"category":         "genre",
		"categories":       "genre",
		"genres":           "genre",
		"page_count":       "pageCount",
		"condition":        "condition",
	}

	for in, want := range tests {
		if got := CanonicalName(in); got != want {
			t.Errorf("CanonicalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	f, ok := Lookup(FieldPrice)
	if !ok || !f.Required {
		t.Fatalf("price should be a registered required field")
	}
	if _, ok := Lookup("condition"); ok {
		t.Error("unknown field should not be found")
	}
	if len(Fields()) != 12 {
		t.Errorf("expected 12 registered fields, got %d", len(Fields()))
	}
}
