package service

import (
	"context"
	"io"
	"net/http"

	"github.com/bookstore-catalog-api/internal/config"
	"github.com/bookstore-catalog-api/internal/csvimport"
	"github.com/bookstore-catalog-api/internal/metrics"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/repository"
	"github.com/rs/zerolog"
)

// ImportService defines the interface for the preview/confirm import flow
type ImportService interface {
	// Preview stores and validates an upload without touching the catalog
	Preview(ctx context.Context, req *models.ImportRequest, src io.Reader) (*models.ImportPreview, error)
	GetPreview(ctx context.Context, jobID string) (*models.ImportPreview, error)
	Confirm(ctx context.Context, jobID string) (*models.ImportJob, error)
	Cancel(ctx context.Context, jobID string) error
	ProcessImport(ctx context.Context, job *models.ImportJob) error
}

// BookService defines the interface for catalog operations
type BookService interface {
	Upsert(ctx context.Context, row *models.ImportedBookRow) (*models.Book, bool, error)
	Save(ctx context.Context, req *models.BookRequest) (*models.Book, bool, error)
	Update(ctx context.Context, id string, req *models.BookRequest) (*models.Book, error)
	Get(ctx context.Context, id string) (*models.Book, error)
	List(ctx context.Context, limit, offset int) (*models.BookPage, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamBooks(ctx context.Context, w http.ResponseWriter, format string) error
	GetCount(ctx context.Context) (int, error)
}

// JobService defines the interface for job management
type JobService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	GetJob(ctx context.Context, id string) (*models.JobResponse, error)
	GetJobByIdempotencyKey(ctx context.Context, key string) (*models.ImportJob, error)
	GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error)
	CountByStatus(ctx context.Context) (map[models.JobStatus]int, error)
	SetImportService(importService ImportService)
}

// Services holds all service interfaces
type Services struct {
	Import     ImportService
	Book       BookService
	Export     ExportService
	Job        JobService
	Downloader Downloader
}

// NewServices creates all services. m may be nil.
func NewServices(repos *repository.Repositories, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *Services {
	processor := csvimport.NewProcessor(csvimport.Options{
		Workers:    cfg.Import.Workers,
		LazyQuotes: cfg.Import.LazyQuotes,
		Metrics:    m,
	}, log)

	jobSvc := newJobService(repos.Job, cfg.Import, m, log)
	bookSvc := newBookService(repos.Book, log)
	importSvc := newImportService(repos.Job, bookSvc, processor, cfg.Import, m, log)
	exportSvc := newExportService(repos.Book, log)

	// Wire up job processor to import service
	jobSvc.SetImportService(importSvc)

	return &Services{
		Import:     importSvc,
		Book:       bookSvc,
		Export:     exportSvc,
		Job:        jobSvc,
		Downloader: NewDownloader(&http.Client{Timeout: cfg.Import.DownloadTimeout}, cfg.Import.MaxUploadSize, log),
	}
}
