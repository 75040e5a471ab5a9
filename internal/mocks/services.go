package mocks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/service"
)

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	mu          sync.Mutex
	PreviewFunc func(ctx context.Context, req *models.ImportRequest, src io.Reader) (*models.ImportPreview, error)
	Previews    map[string]*models.ImportPreview
	Requests    []*models.ImportRequest
	// Uploads holds the body read for each Preview call
	Uploads       []string
	ConfirmErr    error
	CancelErr     error
	Confirmed     []string
	Cancelled     []string
	ProcessedJobs []*models.ImportJob
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{
		Previews: make(map[string]*models.ImportPreview),
	}
}

func (m *MockImportService) Preview(ctx context.Context, req *models.ImportRequest, src io.Reader) (*models.ImportPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	m.Uploads = append(m.Uploads, string(body))

	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, req, strings.NewReader(string(body)))
	}
	preview := &models.ImportPreview{
		JobID:   "test-job-id",
		Status:  models.JobStatusAwaitingConfirmation,
		Format:  models.FormatStandard,
		Preview: []models.ImportedBookRow{},
		Errors:  []string{},
	}
	m.Previews[preview.JobID] = preview
	return preview, nil
}

func (m *MockImportService) GetPreview(ctx context.Context, jobID string) (*models.ImportPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	preview, ok := m.Previews[jobID]
	if !ok {
		return nil, service.ErrJobNotFound
	}
	return preview, nil
}

func (m *MockImportService) Confirm(ctx context.Context, jobID string) (*models.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ConfirmErr != nil {
		return nil, m.ConfirmErr
	}
	if _, ok := m.Previews[jobID]; !ok {
		return nil, service.ErrJobNotFound
	}
	m.Confirmed = append(m.Confirmed, jobID)
	return &models.ImportJob{ID: jobID, Status: models.JobStatusPending}, nil
}

func (m *MockImportService) Cancel(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CancelErr != nil {
		return m.CancelErr
	}
	if _, ok := m.Previews[jobID]; !ok {
		return service.ErrJobNotFound
	}
	m.Cancelled = append(m.Cancelled, jobID)
	return nil
}

func (m *MockImportService) ProcessImport(ctx context.Context, job *models.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ProcessedJobs = append(m.ProcessedJobs, job)
	job.Status = models.JobStatusCompleted
	return nil
}

// MockBookService is a mock implementation of BookService
type MockBookService struct {
	Books   map[string]*models.Book
	SaveErr error
	nextID  int
}

// Verify interface compliance
var _ service.BookService = (*MockBookService)(nil)

func NewMockBookService() *MockBookService {
	return &MockBookService{Books: make(map[string]*models.Book)}
}

func (m *MockBookService) Upsert(ctx context.Context, row *models.ImportedBookRow) (*models.Book, bool, error) {
	book := row.ToBook()
	m.nextID++
	book.ID = fmt.Sprintf("book-%d", m.nextID)
	m.Books[book.ID] = book
	return book, true, nil
}

func (m *MockBookService) Save(ctx context.Context, req *models.BookRequest) (*models.Book, bool, error) {
	if m.SaveErr != nil {
		return nil, false, m.SaveErr
	}
	for _, b := range m.Books {
		if req.ISBN != "" && b.ISBN == req.ISBN {
			b.Title, b.Author, b.Price = req.Title, req.Author, req.Price
			return b, false, nil
		}
	}
	book := &models.Book{
		ID:     "created-book",
		Title:  req.Title,
		Author: req.Author,
		Price:  req.Price,
		ISBN:   req.ISBN,
		Genre:  []string{},
	}
	m.Books[book.ID] = book
	return book, true, nil
}

func (m *MockBookService) Update(ctx context.Context, id string, req *models.BookRequest) (*models.Book, error) {
	book, ok := m.Books[id]
	if !ok {
		return nil, service.ErrBookNotFound
	}
	book.Title, book.Author, book.Price = req.Title, req.Author, req.Price
	return book, nil
}

func (m *MockBookService) Get(ctx context.Context, id string) (*models.Book, error) {
	book, ok := m.Books[id]
	if !ok {
		return nil, service.ErrBookNotFound
	}
	return book, nil
}

func (m *MockBookService) List(ctx context.Context, limit, offset int) (*models.BookPage, error) {
	books := []*models.Book{}
	for _, b := range m.Books {
		books = append(books, b)
	}
	return &models.BookPage{Books: books, Total: len(books), Limit: limit, Offset: offset}, nil
}

func (m *MockBookService) Delete(ctx context.Context, id string) error {
	if _, ok := m.Books[id]; !ok {
		return service.ErrBookNotFound
	}
	delete(m.Books, id)
	return nil
}

func (m *MockBookService) Count(ctx context.Context) (int, error) {
	return len(m.Books), nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamBooksFunc func(ctx context.Context, w http.ResponseWriter, format string) error
	Count           int
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamBooks(ctx context.Context, w http.ResponseWriter, format string) error {
	if m.StreamBooksFunc != nil {
		return m.StreamBooksFunc(ctx, w, format)
	}
	return nil
}

func (m *MockExportService) GetCount(ctx context.Context) (int, error) {
	return m.Count, nil
}

// MockJobService is a mock implementation of JobService
type MockJobService struct {
	Jobs          map[string]*models.JobResponse
	Errors        map[string][]models.ValidationError
	ImportService service.ImportService
}

// Verify interface compliance
var _ service.JobService = (*MockJobService)(nil)

func NewMockJobService() *MockJobService {
	return &MockJobService{
		Jobs:   make(map[string]*models.JobResponse),
		Errors: make(map[string][]models.ValidationError),
	}
}

func (m *MockJobService) StartProcessor(ctx context.Context) {}

func (m *MockJobService) StopProcessor() {}

func (m *MockJobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	return m.Jobs[id], nil
}

func (m *MockJobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.ImportJob, error) {
	for _, job := range m.Jobs {
		if job.IdempotencyKey == key {
			return &job.ImportJob, nil
		}
	}
	return nil, nil
}

func (m *MockJobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	return m.Errors[id], nil
}

func (m *MockJobService) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	counts := make(map[models.JobStatus]int)
	for _, job := range m.Jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (m *MockJobService) SetImportService(importService service.ImportService) {
	m.ImportService = importService
}

// MockDownloader is a mock implementation of Downloader
type MockDownloader struct {
	Files map[string]string
	Err   error
	URLs  []string
}

// Verify interface compliance
var _ service.Downloader = (*MockDownloader)(nil)

func NewMockDownloader() *MockDownloader {
	return &MockDownloader{Files: make(map[string]string)}
}

func (m *MockDownloader) Fetch(ctx context.Context, rawURL string) (*service.Download, error) {
	m.URLs = append(m.URLs, rawURL)
	if m.Err != nil {
		return nil, m.Err
	}
	body, ok := m.Files[rawURL]
	if !ok {
		return nil, service.ErrInvalidURL
	}
	name := rawURL[strings.LastIndex(rawURL, "/")+1:]
	return &service.Download{FileName: name, Body: io.NopCloser(strings.NewReader(body))}, nil
}
