// Package csvimport turns uploaded CSV files into validated book records.
//
// A file is parsed in full, its headers normalized through the field
// registry, and its format detected once. Standard files map one row to
// one book; alternative files map one author row to many books whose
// price and quantity are embedded in the title text. Every row is an
// independent unit, so rows may be evaluated in parallel; results are
// always reassembled in source order.
package csvimport

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bookstore-catalog-api/internal/metrics"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/validation"
	"github.com/rs/zerolog"
)

// parallelThreshold is the minimum rows per worker before rows are fanned out
const parallelThreshold = 256

// Options configures a Processor
type Options struct {
	// Workers > 1 evaluates rows concurrently
	Workers int
	// LazyQuotes tolerates bare quotes inside unquoted fields
	LazyQuotes bool
	Metrics    *metrics.Metrics
}

// Processor runs the import pipeline. It holds no per-import state and
// is safe for concurrent use.
type Processor struct {
	validator *validation.Validator
	opts      Options
	log       zerolog.Logger
}

// rowOutcome is what one source row contributes to the result
type rowOutcome struct {
	records []models.ImportedBookRow
	issues  []models.ValidationError
}

// NewProcessor creates a Processor
func NewProcessor(opts Options, log zerolog.Logger) *Processor {
	return &Processor{
		validator: validation.NewValidator(),
		opts:      opts,
		log:       log.With().Str("component", "csvimport").Logger(),
	}
}

// ProcessFile runs the pipeline over a file on disk
func (p *Processor) ProcessFile(path string) *models.CSVProcessResult {
	file, err := os.Open(path)
	if err != nil {
		return p.failed(err)
	}
	defer file.Close()
	return p.Process(file)
}

// Process parses r and returns the import result. It never returns an
// error: unreadable input yields an unsuccessful result carrying a single
// parse failure message.
func (p *Processor) Process(r io.Reader) *models.CSVProcessResult {
	start := time.Now()

	parsed, err := parse(r, p.opts.LazyQuotes)
	if err != nil {
		return p.failed(err)
	}

	format := DetectFormat(parsed.Headers, parsed.Rows)
	outcomes := p.evaluate(format, parsed.Rows)

	result := &models.CSVProcessResult{
		Format:    format,
		Data:      []models.ImportedBookRow{},
		Errors:    []string{},
		TotalRows: len(parsed.Rows),
	}
	for _, issue := range parsed.Issues {
		result.AddIssue(issue)
	}
	for _, out := range outcomes {
		if len(out.records) > 0 {
			result.ValidRows++
			result.Data = append(result.Data, out.records...)
		}
		for _, issue := range out.issues {
			result.AddIssue(issue)
		}
	}
	result.Success = len(result.Data) > 0

	elapsed := time.Since(start)
	p.opts.Metrics.IncFile(string(format))
	p.opts.Metrics.AddRows("accepted", result.ValidRows)
	p.opts.Metrics.AddRows("rejected", result.TotalRows-result.ValidRows)
	p.opts.Metrics.AddRecords(len(result.Data))
	p.opts.Metrics.ObserveDuration(elapsed)

	p.log.Info().
		Str("format", string(format)).
		Int("total_rows", result.TotalRows).
		Int("valid_rows", result.ValidRows).
		Int("records", len(result.Data)).
		Int("errors", len(result.Errors)).
		Dur("duration", elapsed).
		Msg("CSV processed")

	return result
}

// evaluate runs the format's row pipeline over every row and returns the
// outcomes indexed by row position.
func (p *Processor) evaluate(format models.ImportFormat, rows []Row) []rowOutcome {
	handle := p.standardRow
	if format == models.FormatAlternative {
		handle = p.alternativeRow
	}

	outcomes := make([]rowOutcome, len(rows))

	workers := p.opts.Workers
	if workers <= 1 || len(rows) < workers*parallelThreshold {
		for i, row := range rows {
			outcomes[i] = handle(row)
		}
		return outcomes
	}

	p.log.Debug().Int("workers", workers).Int("rows", len(rows)).Msg("Evaluating rows in parallel")

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				outcomes[i] = handle(rows[i])
			}
		}()
	}
	for i := range rows {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return outcomes
}

func (p *Processor) failed(err error) *models.CSVProcessResult {
	p.log.Warn().Err(err).Msg("CSV could not be parsed")
	p.opts.Metrics.IncFile("unreadable")

	result := &models.CSVProcessResult{
		Data:   []models.ImportedBookRow{},
		Errors: []string{},
	}
	result.AddIssue(models.ValidationError{
		Field:   fieldCSV,
		Message: fmt.Sprintf("Failed to parse CSV: %v", err),
	})
	return result
}
