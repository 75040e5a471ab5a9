package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bookstore-catalog-api/internal/csvimport"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/repository"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// Export formats
const (
	FormatCSV     = "csv"
	FormatNDJSON  = "ndjson"
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// flushEvery is how many records are written between flushes
const flushEvery = 100

// ExportFormats lists the supported export formats
var ExportFormats = []string{FormatCSV, FormatNDJSON, FormatJSON, FormatParquet}

var exportContentTypes = map[string]string{
	FormatCSV:     "text/csv",
	FormatNDJSON:  "application/x-ndjson",
	FormatJSON:    "application/json",
	FormatParquet: "application/vnd.apache.parquet",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repo repository.BookRepository
	log  zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repo repository.BookRepository, log zerolog.Logger) *exportService {
	return &exportService{
		repo: repo,
		log:  log.With().Str("service", "export").Logger(),
	}
}

// StreamBooks streams the catalog in the specified format
func (s *exportService) StreamBooks(ctx context.Context, w http.ResponseWriter, format string) error {
	contentType, ok := exportContentTypes[format]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	s.log.Info().Str("format", format).Msg("Starting books export")

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=books."+format)

	var count int
	var err error
	switch format {
	case FormatCSV:
		count, err = s.streamCSV(ctx, w)
	case FormatNDJSON:
		count, err = s.streamNDJSON(ctx, w)
	case FormatJSON:
		count, err = s.streamJSON(ctx, w)
	case FormatParquet:
		count, err = s.streamParquet(ctx, w)
	}

	if err != nil {
		s.log.Error().Err(err).Str("format", format).Int("count", count).Msg("Books export failed")
		return err
	}
	s.log.Info().Str("format", format).Int("count", count).Msg("Books export completed")
	return nil
}

// streamCSV writes the template columns so an export can be re-imported
func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter) (int, error) {
	writer := csv.NewWriter(w)
	flusher, _ := w.(http.Flusher)

	if err := writer.Write(csvimport.TemplateHeader); err != nil {
		return 0, err
	}

	count := 0
	err := s.repo.StreamAll(ctx, func(book *models.Book) error {
		if err := writer.Write(bookCSVRecord(book)); err != nil {
			return err
		}
		count++
		if count%flushEvery == 0 {
			writer.Flush()
			if flusher != nil {
				flusher.Flush()
			}
		}
		return nil
	})

	writer.Flush()
	if err == nil {
		err = writer.Error()
	}
	return count, err
}

func bookCSVRecord(book *models.Book) []string {
	publicationDate := ""
	if book.PublicationDate != nil {
		publicationDate = book.PublicationDate.Format("2006-01-02")
	}
	optionalInt := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	optionalFloat := func(f float64) string {
		if f == 0 {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return []string{
		book.Title,
		book.Author,
		book.Description,
		strconv.FormatFloat(book.Price, 'f', -1, 64),
		book.CoverImage,
		book.ISBN,
		book.Publisher,
		publicationDate,
		optionalInt(book.PageCount),
		strconv.Itoa(book.StockQuantity),
		optionalFloat(book.Rating),
		strings.Join(book.Genre, ", "),
	}
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repo.StreamAll(ctx, func(book *models.Book) error {
		data, err := json.Marshal(book)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}
	count := 0

	err := s.repo.StreamAll(ctx, func(book *models.Book) error {
		if count > 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}

		data, err := json.Marshal(book)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++
		return nil
	})

	if _, werr := w.Write([]byte("]")); err == nil {
		err = werr
	}
	return count, err
}

// bookParquet is the parquet row layout of a catalog book
type bookParquet struct {
	ID              string    `parquet:"id"`
	Title           string    `parquet:"title"`
	Author          string    `parquet:"author"`
	Description     string    `parquet:"description"`
	Price           float64   `parquet:"price"`
	CoverImage      string    `parquet:"cover_image"`
	ISBN            string    `parquet:"isbn"`
	Publisher       string    `parquet:"publisher"`
	PublicationDate string    `parquet:"publication_date,optional"`
	PageCount       int32     `parquet:"page_count"`
	StockQuantity   int32     `parquet:"stock_quantity"`
	Rating          float64   `parquet:"rating"`
	Genre           []string  `parquet:"genre,list"`
	CreatedAt       time.Time `parquet:"created_at"`
	UpdatedAt       time.Time `parquet:"updated_at"`
}

func toParquet(book *models.Book) bookParquet {
	row := bookParquet{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		Description:   book.Description,
		Price:         book.Price,
		CoverImage:    book.CoverImage,
		ISBN:          book.ISBN,
		Publisher:     book.Publisher,
		PageCount:     int32(book.PageCount),
		StockQuantity: int32(book.StockQuantity),
		Rating:        book.Rating,
		Genre:         book.Genre,
		CreatedAt:     book.CreatedAt.UTC(),
		UpdatedAt:     book.UpdatedAt.UTC(),
	}
	if book.PublicationDate != nil {
		row.PublicationDate = book.PublicationDate.Format("2006-01-02")
	}
	if row.Genre == nil {
		row.Genre = []string{}
	}
	return row
}

// streamParquet buffers rows into batches; the footer is written on Close
func (s *exportService) streamParquet(ctx context.Context, w http.ResponseWriter) (int, error) {
	writer := parquet.NewGenericWriter[bookParquet](w)
	batch := make([]bookParquet, 0, flushEvery)
	count := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	err := s.repo.StreamAll(ctx, func(book *models.Book) error {
		batch = append(batch, toParquet(book))
		count++
		if len(batch) == cap(batch) {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	return count, err
}

// GetCount returns the number of books available for export
func (s *exportService) GetCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
