package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/bookstore-catalog-api/internal/models"
)

const fieldCSV = "csv"

// parsedFile holds the materialized content of one CSV file
type parsedFile struct {
	Headers []string
	Rows    []Row
	// Issues are parse-level problems (malformed quoting, ragged rows)
	Issues []models.ValidationError
}

// parse reads the whole input. A returned error means the input could not
// be read at all; per-record problems are collected as issues instead.
func parse(r io.Reader, lazyQuotes bool) (*parsedFile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = lazyQuotes

	out := &parsedFile{}

	header, err := reader.Read()
	if err == io.EOF {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.Headers = NormalizeHeaders(header)

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				out.Issues = append(out.Issues, models.ValidationError{
					Line:    line,
					Field:   fieldCSV,
					Message: fmt.Sprintf("Malformed CSV: %v", parseErr.Err),
				})
				continue
			}
			return nil, err
		}

		row := newRow(line, out.Headers, record)
		if row.blank() {
			continue
		}

		if n := len(record); n != len(out.Headers) {
			problem := "Too few fields"
			if n > len(out.Headers) {
				problem = "Too many fields"
			}
			out.Issues = append(out.Issues, models.ValidationError{
				Line:    line,
				Field:   fieldCSV,
				Message: fmt.Sprintf("%s: expected %d fields but parsed %d", problem, len(out.Headers), n),
			})
		}

		out.Rows = append(out.Rows, row)
	}

	return out, nil
}
