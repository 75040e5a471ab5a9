package api_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bookstore-catalog-api/internal/api"
	"github.com/bookstore-catalog-api/internal/config"
	"github.com/bookstore-catalog-api/internal/csvimport"
	"github.com/bookstore-catalog-api/internal/metrics"
	"github.com/bookstore-catalog-api/internal/mocks"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type testRouter struct {
	router     *gin.Engine
	imports    *mocks.MockImportService
	books      *mocks.MockBookService
	exports    *mocks.MockExportService
	jobs       *mocks.MockJobService
	downloader *mocks.MockDownloader
	metrics    *metrics.Metrics
}

func setupTestRouter() *testRouter {
	gin.SetMode(gin.TestMode)

	tr := &testRouter{
		imports:    mocks.NewMockImportService(),
		books:      mocks.NewMockBookService(),
		exports:    mocks.NewMockExportService(),
		jobs:       mocks.NewMockJobService(),
		downloader: mocks.NewMockDownloader(),
		metrics:    metrics.New(),
	}

	services := &service.Services{
		Import:     tr.imports,
		Book:       tr.books,
		Export:     tr.exports,
		Job:        tr.jobs,
		Downloader: tr.downloader,
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Import: config.ImportConfig{
			MaxUploadSize: 1024,
			UploadDir:     "/tmp/test-uploads",
		},
	}

	tr.router = api.NewRouter(services, cfg, tr.metrics, nil, zerolog.Nop())
	return tr
}

func (tr *testRouter) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte(content))
	writer.Close()
	return body, writer.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return response
}

func TestHealthEndpoint(t *testing.T) {
	tr := setupTestRouter()

	w := tr.do(httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "bookstore-catalog-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

type fakeDB struct{ err error }

func (f fakeDB) HealthCheck(ctx context.Context) error { return f.err }

func TestHealthEndpoint_Database(t *testing.T) {
	gin.SetMode(gin.TestMode)
	services := &service.Services{
		Import: mocks.NewMockImportService(),
		Book:   mocks.NewMockBookService(),
		Export: mocks.NewMockExportService(),
		Job:    mocks.NewMockJobService(),
	}

	tests := []struct {
		name       string
		db         fakeDB
		expectCode int
		expectBody string
	}{
		{"reachable", fakeDB{}, http.StatusOK, "healthy"},
		{"unreachable", fakeDB{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := api.NewRouter(services, &config.Config{}, nil, tt.db, zerolog.Nop())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

			if w.Code != tt.expectCode {
				t.Errorf("Expected status %d, got %d", tt.expectCode, w.Code)
			}
			if status := decode(t, w)["status"]; status != tt.expectBody {
				t.Errorf("Expected status %q, got %v", tt.expectBody, status)
			}
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	tr := setupTestRouter()
	tr.exports.Count = 42
	tr.jobs.Jobs["a"] = &models.JobResponse{ImportJob: models.ImportJob{ID: "a", Status: models.JobStatusCompleted}}
	tr.jobs.Jobs["b"] = &models.JobResponse{ImportJob: models.ImportJob{ID: "b", Status: models.JobStatusCompleted}}
	tr.jobs.Jobs["c"] = &models.JobResponse{ImportJob: models.ImportJob{ID: "c", Status: models.JobStatusPending}}

	w := tr.do(httptest.NewRequest("GET", "/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	db := decode(t, w)["database"].(map[string]interface{})
	if db["books"].(float64) != 42 {
		t.Errorf("Expected 42 books, got %v", db["books"])
	}
	jobs := db["import_jobs"].(map[string]interface{})
	if jobs["completed"].(float64) != 2 || jobs["pending"].(float64) != 1 {
		t.Errorf("Unexpected job counts: %v", jobs)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	tr := setupTestRouter()
	tr.metrics.IncFile(string(models.FormatStandard))

	w := tr.do(httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `catalog_import_files_total{format="standard"} 1`) {
		t.Errorf("Expected files counter in exposition, got:\n%s", w.Body.String())
	}
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	services := &service.Services{
		Import: mocks.NewMockImportService(),
		Book:   mocks.NewMockBookService(),
		Export: mocks.NewMockExportService(),
		Job:    mocks.NewMockJobService(),
	}
	router := api.NewRouter(services, &config.Config{}, nil, nil, zerolog.Nop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without metrics, got %d", w.Code)
	}
}

func TestCreateImport_Upload(t *testing.T) {
	tr := setupTestRouter()
	content := "title,author,price,isbn\nDune,Frank Herbert,3500,9780441013593\n"
	tr.imports.PreviewFunc = func(ctx context.Context, req *models.ImportRequest, _ io.Reader) (*models.ImportPreview, error) {
		return &models.ImportPreview{
			JobID:     "job-1",
			Status:    models.JobStatusAwaitingConfirmation,
			Format:    models.FormatStandard,
			Success:   true,
			TotalRows: 1,
			ValidRows: 1,
			Records:   1,
			Preview:   []models.ImportedBookRow{{Title: "Dune", Author: "Frank Herbert", Price: 3500}},
			Errors:    []string{},
		}, nil
	}

	body, contentType := multipartUpload(t, "file", "books.csv", content)
	req := httptest.NewRequest("POST", "/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Idempotency-Key", "upload-1")
	w := tr.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var preview models.ImportPreview
	if err := json.Unmarshal(w.Body.Bytes(), &preview); err != nil {
		t.Fatalf("Failed to decode preview: %v", err)
	}
	if preview.JobID != "job-1" || !preview.Success || len(preview.Preview) != 1 {
		t.Errorf("Unexpected preview: %+v", preview)
	}

	if len(tr.imports.Requests) != 1 {
		t.Fatalf("Expected 1 preview call, got %d", len(tr.imports.Requests))
	}
	got := tr.imports.Requests[0]
	if got.FileName != "books.csv" {
		t.Errorf("Expected file name books.csv, got %q", got.FileName)
	}
	if got.IdempotencyKey != "upload-1" {
		t.Errorf("Expected idempotency key to be forwarded, got %q", got.IdempotencyKey)
	}
	if tr.imports.Uploads[0] != content {
		t.Errorf("Upload body not forwarded, got %q", tr.imports.Uploads[0])
	}
}

func TestCreateImport_FromURL(t *testing.T) {
	tr := setupTestRouter()
	tr.downloader.Files["https://files.example.com/catalog/books.csv"] = "title,author,price,isbn\n"

	req := httptest.NewRequest("POST", "/v1/imports",
		strings.NewReader(`{"file_url":"https://files.example.com/catalog/books.csv"}`))
	req.Header.Set("Content-Type", "application/json")
	w := tr.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(tr.downloader.URLs) != 1 {
		t.Fatalf("Expected one download, got %v", tr.downloader.URLs)
	}
	got := tr.imports.Requests[0]
	if got.FileName != "books.csv" || got.FileURL != "https://files.example.com/catalog/books.csv" {
		t.Errorf("Unexpected import request: %+v", got)
	}
	if tr.imports.Uploads[0] != "title,author,price,isbn\n" {
		t.Errorf("Downloaded body not forwarded, got %q", tr.imports.Uploads[0])
	}
}

func TestCreateImport_Validation(t *testing.T) {
	tests := []struct {
		name        string
		body        func(t *testing.T) (*bytes.Buffer, string)
		expectCode  int
		description string
	}{
		{
			name: "empty body",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return bytes.NewBufferString(""), "application/json"
			},
			expectCode:  http.StatusBadRequest,
			description: "Should reject a request without file or file_url",
		},
		{
			name: "file_url not a url",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return bytes.NewBufferString(`{"file_url":"books.csv"}`), "application/json"
			},
			expectCode:  http.StatusBadRequest,
			description: "Should reject a relative file_url",
		},
		{
			name: "unsupported scheme",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return bytes.NewBufferString(`{"file_url":"ftp://example.com/books.csv"}`), "application/json"
			},
			expectCode:  http.StatusBadRequest,
			description: "Downloader rejects non-http URLs",
		},
		{
			name: "wrong multipart field",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartUpload(t, "upload", "books.csv", "title\n")
			},
			expectCode:  http.StatusBadRequest,
			description: "Should require the file field",
		},
		{
			name: "upload too large",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartUpload(t, "file", "books.csv", strings.Repeat("x", 2048))
			},
			expectCode:  http.StatusRequestEntityTooLarge,
			description: "Should reject uploads over the size limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := setupTestRouter()
			body, contentType := tt.body(t)

			req := httptest.NewRequest("POST", "/v1/imports", body)
			req.Header.Set("Content-Type", contentType)
			w := tr.do(req)

			if w.Code != tt.expectCode {
				t.Errorf("%s: expected status %d, got %d: %s", tt.description, tt.expectCode, w.Code, w.Body.String())
			}
			if len(tr.imports.Requests) != 0 {
				t.Errorf("%s: preview should not run", tt.description)
			}
		})
	}
}

func TestCreateImport_ServiceErrors(t *testing.T) {
	tests := []struct {
		err        error
		expectCode int
	}{
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("wrapped: %w", service.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{errors.New("database unavailable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			tr := setupTestRouter()
			tr.imports.PreviewFunc = func(context.Context, *models.ImportRequest, io.Reader) (*models.ImportPreview, error) {
				return nil, tt.err
			}

			body, contentType := multipartUpload(t, "file", "books.csv", "title\n")
			req := httptest.NewRequest("POST", "/v1/imports", body)
			req.Header.Set("Content-Type", contentType)
			w := tr.do(req)

			if w.Code != tt.expectCode {
				t.Errorf("Expected status %d, got %d", tt.expectCode, w.Code)
			}
		})
	}
}

func TestGetTemplate(t *testing.T) {
	tr := setupTestRouter()

	w := tr.do(httptest.NewRequest("GET", "/v1/imports/template", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "book_import_template.csv") {
		t.Errorf("Expected template file name, got %q", cd)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("Template is not valid CSV: %v", err)
	}
	if strings.Join(records[0], ",") != strings.Join(csvimport.TemplateHeader, ",") {
		t.Errorf("Unexpected template header: %v", records[0])
	}
}

func TestGetPreview(t *testing.T) {
	tr := setupTestRouter()
	tr.imports.Previews["job-1"] = &models.ImportPreview{JobID: "job-1", Status: models.JobStatusAwaitingConfirmation}

	w := tr.do(httptest.NewRequest("GET", "/v1/imports/job-1/preview", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if decode(t, w)["job_id"] != "job-1" {
		t.Errorf("Unexpected preview body: %s", w.Body.String())
	}

	w = tr.do(httptest.NewRequest("GET", "/v1/imports/unknown/preview", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestConfirmImport(t *testing.T) {
	tests := []struct {
		name       string
		jobID      string
		confirmErr error
		expectCode int
	}{
		{"confirmed", "job-1", nil, http.StatusAccepted},
		{"unknown job", "missing", nil, http.StatusNotFound},
		{"already confirmed", "job-1", fmt.Errorf("%w: pending", service.ErrInvalidJobState), http.StatusConflict},
		{"nothing to import", "job-1", service.ErrNothingToImport, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := setupTestRouter()
			tr.imports.Previews["job-1"] = &models.ImportPreview{JobID: "job-1"}
			tr.imports.ConfirmErr = tt.confirmErr

			w := tr.do(httptest.NewRequest("POST", "/v1/imports/"+tt.jobID+"/confirm", nil))

			if w.Code != tt.expectCode {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectCode, w.Code, w.Body.String())
			}
			if tt.expectCode == http.StatusAccepted {
				response := decode(t, w)
				if response["status"] != string(models.JobStatusPending) {
					t.Errorf("Expected pending status, got %v", response["status"])
				}
				if len(tr.imports.Confirmed) != 1 || tr.imports.Confirmed[0] != "job-1" {
					t.Errorf("Expected job-1 confirmed, got %v", tr.imports.Confirmed)
				}
			}
		})
	}
}

func TestCancelImport(t *testing.T) {
	tr := setupTestRouter()
	tr.imports.Previews["job-1"] = &models.ImportPreview{JobID: "job-1"}

	w := tr.do(httptest.NewRequest("DELETE", "/v1/imports/job-1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if len(tr.imports.Cancelled) != 1 {
		t.Errorf("Expected one cancellation, got %v", tr.imports.Cancelled)
	}

	w = tr.do(httptest.NewRequest("DELETE", "/v1/imports/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	tr.imports.CancelErr = service.ErrInvalidJobState
	w = tr.do(httptest.NewRequest("DELETE", "/v1/imports/job-1", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestGetImportStatus(t *testing.T) {
	tr := setupTestRouter()
	tr.jobs.Jobs["test-job-123"] = &models.JobResponse{
		ImportJob: models.ImportJob{
			ID:           "test-job-123",
			Status:       models.JobStatusCompleted,
			FileName:     "books.csv",
			Format:       models.FormatAlternative,
			TotalRows:    10,
			ValidRows:    8,
			RecordCount:  20,
			ErrorCount:   2,
			CreatedCount: 15,
			UpdatedCount: 5,
		},
		ErrorReport: "/v1/imports/test-job-123/errors",
	}

	w := tr.do(httptest.NewRequest("GET", "/v1/imports/test-job-123", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response["job_id"] != "test-job-123" {
		t.Errorf("Expected job_id 'test-job-123', got %v", response["job_id"])
	}
	if response["status"] != "completed" {
		t.Errorf("Expected status 'completed', got %v", response["status"])
	}
	if response["format"] != "alternative" {
		t.Errorf("Expected format 'alternative', got %v", response["format"])
	}
	if response["created"].(float64) != 15 || response["updated"].(float64) != 5 {
		t.Errorf("Unexpected persistence counts: %v / %v", response["created"], response["updated"])
	}
	if response["error_report_url"] != "/v1/imports/test-job-123/errors" {
		t.Errorf("Unexpected error report url: %v", response["error_report_url"])
	}
	if _, ok := response["file_path"]; ok {
		t.Error("file_path must not be exposed")
	}
}

func TestGetImportStatus_NotFound(t *testing.T) {
	tr := setupTestRouter()

	w := tr.do(httptest.NewRequest("GET", "/v1/imports/non-existent", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetImportErrors(t *testing.T) {
	tr := setupTestRouter()
	tr.jobs.Jobs["job-1"] = &models.JobResponse{ImportJob: models.ImportJob{ID: "job-1", ErrorCount: 2}}
	tr.jobs.Errors["job-1"] = []models.ValidationError{
		{Line: 2, Field: "price", Message: "price must be between 0 and 10000", Value: "99999"},
		{Line: 5, Field: "isbn", Message: "invalid ISBN", Value: "123"},
	}

	w := tr.do(httptest.NewRequest("GET", "/v1/imports/job-1/errors", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response["error_count"].(float64) != 2 {
		t.Errorf("Expected 2 errors, got %v", response["error_count"])
	}
	first := response["errors"].([]interface{})[0].(map[string]interface{})
	if first["field"] != "price" || first["line"].(float64) != 2 {
		t.Errorf("Unexpected first error: %v", first)
	}
}

func TestGetImportErrors_CSV(t *testing.T) {
	tr := setupTestRouter()
	tr.jobs.Jobs["job-1"] = &models.JobResponse{ImportJob: models.ImportJob{ID: "job-1", ErrorCount: 1}}
	tr.jobs.Errors["job-1"] = []models.ValidationError{
		{Line: 3, Field: "author", Message: "Missing or invalid author", Value: "Jane, Doe"},
	}

	w := tr.do(httptest.NewRequest("GET", "/v1/imports/job-1/errors?format=csv", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected Content-Type text/csv, got %s", ct)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("Error report is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d rows", len(records))
	}
	want := []string{"3", "author", "Missing or invalid author", "Jane, Doe"}
	if strings.Join(records[1], "|") != strings.Join(want, "|") {
		t.Errorf("Expected %v, got %v", want, records[1])
	}
}

func TestGetImportErrors_EmptyErrors(t *testing.T) {
	tr := setupTestRouter()
	tr.jobs.Jobs["clean"] = &models.JobResponse{ImportJob: models.ImportJob{ID: "clean"}}

	w := tr.do(httptest.NewRequest("GET", "/v1/imports/clean/errors", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"errors":[]`) {
		t.Errorf("Expected empty errors array, got %s", w.Body.String())
	}
}

func TestGetImportErrors_NotFound(t *testing.T) {
	tr := setupTestRouter()

	w := tr.do(httptest.NewRequest("GET", "/v1/imports/missing/errors", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateBook(t *testing.T) {
	tr := setupTestRouter()
	payload := `{"title":"Dune","author":"Frank Herbert","price":3500,"isbn":"9780441013593","stock_quantity":3}`

	req := httptest.NewRequest("POST", "/v1/books", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := tr.do(req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if decode(t, w)["id"] != "created-book" {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}

	// Same ISBN updates the existing book
	req = httptest.NewRequest("POST", "/v1/books", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w = tr.do(req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 on upsert, got %d", w.Code)
	}
}

func TestCreateBook_Validation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing title", `{"author":"Frank Herbert","price":10}`},
		{"missing author", `{"title":"Dune","price":10}`},
		{"price too high", `{"title":"Dune","author":"Frank Herbert","price":10001}`},
		{"negative stock", `{"title":"Dune","author":"Frank Herbert","stock_quantity":-1}`},
		{"rating out of range", `{"title":"Dune","author":"Frank Herbert","rating":6}`},
		{"bad cover url", `{"title":"Dune","author":"Frank Herbert","cover_image":"not a url"}`},
		{"bad date", `{"title":"Dune","author":"Frank Herbert","publication_date":"01/08/1965"}`},
		{"malformed json", `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := setupTestRouter()

			req := httptest.NewRequest("POST", "/v1/books", strings.NewReader(tt.payload))
			req.Header.Set("Content-Type", "application/json")
			w := tr.do(req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", w.Code, w.Body.String())
			}
			if len(tr.books.Books) != 0 {
				t.Error("Invalid book must not be saved")
			}
		})
	}
}

func TestCreateBook_InvalidISBN(t *testing.T) {
	tr := setupTestRouter()
	tr.books.SaveErr = fmt.Errorf("%w: invalid ISBN", service.ErrInvalidBook)

	req := httptest.NewRequest("POST", "/v1/books", strings.NewReader(`{"title":"Dune","author":"Frank Herbert","isbn":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := tr.do(req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestBookCRUD(t *testing.T) {
	tr := setupTestRouter()
	tr.books.Books["b1"] = &models.Book{ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: []string{}}

	w := tr.do(httptest.NewRequest("GET", "/v1/books/b1", nil))
	if w.Code != http.StatusOK || decode(t, w)["title"] != "Dune" {
		t.Fatalf("GET: unexpected %d %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest("PUT", "/v1/books/b1", strings.NewReader(`{"title":"Dune Messiah","author":"Frank Herbert","price":20}`))
	req.Header.Set("Content-Type", "application/json")
	w = tr.do(req)
	if w.Code != http.StatusOK || decode(t, w)["title"] != "Dune Messiah" {
		t.Fatalf("PUT: unexpected %d %s", w.Code, w.Body.String())
	}

	w = tr.do(httptest.NewRequest("GET", "/v1/books?limit=10&offset=0", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("LIST: unexpected %d", w.Code)
	}
	page := decode(t, w)
	if page["total"].(float64) != 1 || page["limit"].(float64) != 10 {
		t.Errorf("Unexpected page: %v", page)
	}

	w = tr.do(httptest.NewRequest("DELETE", "/v1/books/b1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE: expected 204, got %d", w.Code)
	}

	for _, method := range []string{"GET", "DELETE"} {
		w = tr.do(httptest.NewRequest(method, "/v1/books/b1", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", method, w.Code)
		}
	}

	req = httptest.NewRequest("PUT", "/v1/books/b1", strings.NewReader(`{"title":"X","author":"Y"}`))
	req.Header.Set("Content-Type", "application/json")
	w = tr.do(req)
	if w.Code != http.StatusNotFound {
		t.Errorf("PUT after delete: expected 404, got %d", w.Code)
	}
}

func TestListBooks_InvalidPaging(t *testing.T) {
	tr := setupTestRouter()

	for _, query := range []string{"limit=ten", "offset=-x"} {
		w := tr.do(httptest.NewRequest("GET", "/v1/books?"+query, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, w.Code)
		}
	}
}

func TestExportStream(t *testing.T) {
	tr := setupTestRouter()
	var formats []string
	tr.exports.StreamBooksFunc = func(ctx context.Context, w http.ResponseWriter, format string) error {
		formats = append(formats, format)
		for _, f := range service.ExportFormats {
			if f == format {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("books"))
				return nil
			}
		}
		return fmt.Errorf("%w: %s", service.ErrUnsupportedFormat, format)
	}

	tests := []struct {
		query      string
		expectFmt  string
		expectCode int
	}{
		{"", "csv", http.StatusOK},
		{"?format=ndjson", "ndjson", http.StatusOK},
		{"?format=json", "json", http.StatusOK},
		{"?format=parquet", "parquet", http.StatusOK},
		{"?format=xml", "xml", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.expectFmt, func(t *testing.T) {
			formats = nil
			w := tr.do(httptest.NewRequest("GET", "/v1/exports"+tt.query, nil))

			if w.Code != tt.expectCode {
				t.Errorf("Expected status %d, got %d", tt.expectCode, w.Code)
			}
			if len(formats) != 1 || formats[0] != tt.expectFmt {
				t.Errorf("Expected format %q, got %v", tt.expectFmt, formats)
			}
			if tt.expectCode == http.StatusBadRequest && !strings.Contains(w.Body.String(), "parquet") {
				t.Errorf("Expected supported formats in error, got %s", w.Body.String())
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	tr := setupTestRouter()

	req := httptest.NewRequest("OPTIONS", "/v1/books/b1", nil)
	w := tr.do(req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for OPTIONS, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Missing Access-Control-Allow-Origin header")
	}
	methods := w.Header().Get("Access-Control-Allow-Methods")
	for _, m := range []string{"PUT", "DELETE"} {
		if !strings.Contains(methods, m) {
			t.Errorf("Expected %s in allowed methods, got %q", m, methods)
		}
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key") {
		t.Error("Idempotency-Key should be an allowed header")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	tr := setupTestRouter()
	tr.exports.StreamBooksFunc = func(context.Context, http.ResponseWriter, string) error {
		panic("boom")
	}

	w := tr.do(httptest.NewRequest("GET", "/v1/exports", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 after panic, got %d", w.Code)
	}
}
