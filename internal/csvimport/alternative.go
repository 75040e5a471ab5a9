package csvimport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/validation"
)

// alternativeRow expands one author row into one record per title
// fragment. Title-bearing cells are joined and re-split on commas so a
// title broken across columns is read as one stream of fragments.
func (p *Processor) alternativeRow(row Row) rowOutcome {
	raw, _ := row.Get(validation.FieldAuthor)
	author := strings.TrimSpace(raw)
	if author == "" {
		return rejected(row.Line, validation.FieldAuthor, "Missing or invalid author", nil)
	}

	author, fallbackPrice := splitAuthorPrice(author)
	if err := p.check(validation.FieldAuthor, author); err != nil {
		return rejected(row.Line, validation.FieldAuthor, err.Error(), author)
	}

	var parts []string
	for _, c := range row.Cells {
		if c.Key == validation.FieldAuthor {
			continue
		}
		if v := strings.TrimSpace(c.Value); v != "" {
			parts = append(parts, v)
		}
	}

	var out rowOutcome
	for _, fragment := range strings.Split(strings.Join(parts, ","), ",") {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}

		ex := ExtractTitlePrice(fragment)
		if ex.Title == "" {
			continue
		}

		price := ex.Price
		if price <= 0 {
			price = fallbackPrice
		}

		if issue, ok := p.checkExtracted(row.Line, ex, price, fragment); !ok {
			out.issues = append(out.issues, issue)
			continue
		}

		out.records = append(out.records, models.ImportedBookRow{
			Title:         ex.Title,
			Author:        author,
			Price:         price,
			StockQuantity: ex.Quantity,
			Genre:         []string{},
		})
	}

	if len(out.records) == 0 {
		out.issues = append(out.issues, models.ValidationError{
			Line:    row.Line,
			Field:   validation.FieldTitle,
			Message: fmt.Sprintf(`No valid books found for author "%s"`, author),
		})
	}

	return out
}

// checkExtracted holds extracted records to the same field limits as
// standard rows.
func (p *Processor) checkExtracted(line int, ex Extraction, price float64, fragment string) (models.ValidationError, bool) {
	if err := p.check(validation.FieldTitle, ex.Title); err != nil {
		return models.ValidationError{Line: line, Field: validation.FieldTitle, Message: err.Error(), Value: fragment}, false
	}
	if err := p.check(validation.FieldPrice, strconv.FormatFloat(price, 'f', -1, 64)); err != nil {
		return models.ValidationError{Line: line, Field: validation.FieldPrice, Message: err.Error(), Value: fragment}, false
	}
	if err := p.check(validation.FieldStockQuantity, strconv.Itoa(ex.Quantity)); err != nil {
		return models.ValidationError{Line: line, Field: validation.FieldStockQuantity, Message: err.Error(), Value: fragment}, false
	}
	return models.ValidationError{}, true
}

func (p *Processor) check(field, value string) error {
	f, ok := validation.Lookup(field)
	if !ok || f.Check == nil {
		return nil
	}
	return f.Check(value)
}

func rejected(line int, field, message string, value interface{}) rowOutcome {
	return rowOutcome{issues: []models.ValidationError{{
		Line:    line,
		Field:   field,
		Message: message,
		Value:   value,
	}}}
}
