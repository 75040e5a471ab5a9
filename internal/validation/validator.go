package validation

import (
	"fmt"
	"strings"

	"github.com/bookstore-catalog-api/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator checks standard-format rows against the field registry
type Validator struct {
	fields []Field
}

// NewValidator creates a new validator instance over the default registry
func NewValidator() *Validator {
	return &Validator{fields: registry}
}

// ValidateRow validates a row keyed by canonical field name. Every
// required field that is missing produces one error; every present field
// whose check fails produces one error carrying the raw value.
func (v *Validator) ValidateRow(cells map[string]string) []ValidationError {
	var errors []ValidationError

	for _, f := range v.fields {
		raw := strings.TrimSpace(cells[f.Name])
		if raw == "" {
			if f.Required {
				errors = append(errors, ValidationError{
					Field:   f.Name,
					Message: fmt.Sprintf("%s is required", f.Name),
				})
			}
			continue
		}
		if f.Check == nil {
			continue
		}
		if err := f.Check(raw); err != nil {
			errors = append(errors, ValidationError{
				Field:   f.Name,
				Message: err.Error(),
				Value:   cells[f.Name],
			})
		}
	}

	return errors
}

// Transform builds a record from a row that passed ValidateRow. Values are
// trimmed; numeric fields that do not parse become zero.
func (v *Validator) Transform(cells map[string]string) models.ImportedBookRow {
	row := models.ImportedBookRow{Genre: []string{}}
	for _, f := range v.fields {
		raw := strings.TrimSpace(cells[f.Name])
		if raw == "" || f.Apply == nil {
			continue
		}
		f.Apply(raw, &row)
	}
	return row
}
