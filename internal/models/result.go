package models

import "fmt"

// ImportFormat identifies which row layout a CSV file uses
type ImportFormat string

const (
	// FormatStandard is one row per book with explicit columns
	FormatStandard ImportFormat = "standard"
	// FormatAlternative is one row per author with prices embedded in title cells
	FormatAlternative ImportFormat = "alternative"
)

// ValidationError represents a single problem found while importing.
// Line is the 1-based data row number (header excluded); for persistence
// failures it is the 1-based index of the record in the result data.
type ValidationError struct {
	Line    int         `json:"line" yaml:"line"`
	Field   string      `json:"field" yaml:"field"`
	Message string      `json:"message" yaml:"message"`
	Value   interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

// String renders the error the way it is reported to users
func (e ValidationError) String() string {
	if e.Line <= 0 {
		return e.Message
	}
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("Row %d: %s (value: %q)", e.Line, e.Message, s)
	}
	return fmt.Sprintf("Row %d: %s", e.Line, e.Message)
}

// CSVProcessResult is the outcome of one import invocation
type CSVProcessResult struct {
	Success   bool              `json:"success" yaml:"success"`
	Format    ImportFormat      `json:"format,omitempty" yaml:"format,omitempty"`
	Data      []ImportedBookRow `json:"data" yaml:"data"`
	Errors    []string          `json:"errors" yaml:"errors"`
	TotalRows int               `json:"totalRows" yaml:"totalRows"`
	ValidRows int               `json:"validRows" yaml:"validRows"`

	// Issues holds the structured form of Errors, one entry per string
	Issues []ValidationError `json:"-" yaml:"-"`
}

// AddIssue appends a structured issue together with its rendered message
func (r *CSVProcessResult) AddIssue(issue ValidationError) {
	r.Issues = append(r.Issues, issue)
	r.Errors = append(r.Errors, issue.String())
}

// Preview returns at most limit accepted records
func (r *CSVProcessResult) Preview(limit int) []ImportedBookRow {
	if limit <= 0 || limit >= len(r.Data) {
		return r.Data
	}
	return r.Data[:limit]
}
