package csvimport

import (
	"github.com/bookstore-catalog-api/internal/models"
)

// standardRow validates one explicit-column row. A row with any error
// contributes no record but reports every error it has.
func (p *Processor) standardRow(row Row) rowOutcome {
	cells := row.Values()

	errs := p.validator.ValidateRow(cells)
	if len(errs) > 0 {
		out := rowOutcome{issues: make([]models.ValidationError, 0, len(errs))}
		for _, e := range errs {
			out.issues = append(out.issues, models.ValidationError{
				Line:    row.Line,
				Field:   e.Field,
				Message: e.Message,
				Value:   e.Value,
			})
		}
		return out
	}

	return rowOutcome{records: []models.ImportedBookRow{p.validator.Transform(cells)}}
}
