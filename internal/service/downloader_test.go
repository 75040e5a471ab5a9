package service_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/service"
	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
)

func newMockedDownloader(maxSize int64) (service.Downloader, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	client := &http.Client{Transport: transport}
	return service.NewDownloader(client, maxSize, zerolog.Nop()), transport
}

func TestDownloader_Fetch(t *testing.T) {
	d, transport := newMockedDownloader(1024)
	transport.RegisterResponder("GET", "https://files.example.test/exports/books.csv",
		httpmock.NewStringResponder(200, "title,author,price,isbn\n"))

	download, err := d.Fetch(context.Background(), "https://files.example.test/exports/books.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer download.Body.Close()

	if download.FileName != "books.csv" {
		t.Errorf("FileName = %q, want books.csv", download.FileName)
	}
	body, _ := io.ReadAll(download.Body)
	if string(body) != "title,author,price,isbn\n" {
		t.Errorf("Unexpected body %q", body)
	}
	if transport.GetTotalCallCount() != 1 {
		t.Errorf("Expected 1 call, got %d", transport.GetTotalCallCount())
	}
}

func TestDownloader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		status  int
		wantErr error
	}{
		{"not found", "https://files.example.test/missing.csv", 404, nil},
		{"server error", "https://files.example.test/broken.csv", 500, nil},
		{"ftp scheme", "ftp://files.example.test/books.csv", 0, service.ErrInvalidURL},
		{"relative", "books.csv", 0, service.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, transport := newMockedDownloader(1024)
			if tt.status != 0 {
				transport.RegisterResponder("GET", tt.url, httpmock.NewStringResponder(tt.status, ""))
			}

			_, err := d.Fetch(context.Background(), tt.url)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDownloader_SizeLimit(t *testing.T) {
	d, transport := newMockedDownloader(8)

	transport.RegisterResponder("GET", "https://files.example.test/declared.csv",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(200, strings.Repeat("x", 64))
			resp.ContentLength = 64
			return resp, nil
		})
	transport.RegisterResponder("GET", "https://files.example.test/streamed.csv",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(200, strings.Repeat("x", 64))
			resp.ContentLength = -1
			return resp, nil
		})

	if _, err := d.Fetch(context.Background(), "https://files.example.test/declared.csv"); !errors.Is(err, service.ErrFileTooLarge) {
		t.Errorf("Declared oversize should fail up front, got %v", err)
	}

	download, err := d.Fetch(context.Background(), "https://files.example.test/streamed.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer download.Body.Close()
	if _, err := io.ReadAll(download.Body); !errors.Is(err, service.ErrFileTooLarge) {
		t.Errorf("Undeclared oversize should fail while reading, got %v", err)
	}
}

func TestDownloader_FeedsPreview(t *testing.T) {
	h := newTestHarness(t, nil)
	d, transport := newMockedDownloader(1024 * 1024)
	transport.RegisterResponder("GET", "https://files.example.test/books.csv",
		httpmock.NewStringResponder(200, booksCSV(3)))

	download, err := d.Fetch(context.Background(), "https://files.example.test/books.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer download.Body.Close()

	preview, err := h.services.Import.Preview(context.Background(),
		&models.ImportRequest{FileName: download.FileName}, download.Body)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if preview.Records != 3 {
		t.Errorf("Expected 3 records, got %d", preview.Records)
	}
}
