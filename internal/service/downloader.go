package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/rs/zerolog"
)

// ErrInvalidURL is returned for file URLs that are not absolute http(s) URLs
var ErrInvalidURL = errors.New("file_url must be an absolute http or https URL")

// Downloader fetches remote CSV files for import
type Downloader interface {
	// Fetch opens url. The returned body fails with ErrFileTooLarge once it
	// exceeds the size limit.
	Fetch(ctx context.Context, rawURL string) (*Download, error)
}

// Download is an open remote file
type Download struct {
	FileName string
	Body     io.ReadCloser
}

type httpDownloader struct {
	client  *http.Client
	maxSize int64
	log     zerolog.Logger
}

// NewDownloader creates a Downloader on client. maxSize <= 0 disables the limit.
func NewDownloader(client *http.Client, maxSize int64, log zerolog.Logger) Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpDownloader{
		client:  client,
		maxSize: maxSize,
		log:     log.With().Str("service", "downloader").Logger(),
	}
}

func (d *httpDownloader) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download failed: unexpected status %d", resp.StatusCode)
	}
	if d.maxSize > 0 && resp.ContentLength > d.maxSize {
		resp.Body.Close()
		return nil, ErrFileTooLarge
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = "download.csv"
	}

	d.log.Info().Str("url", u.Redacted()).Int64("content_length", resp.ContentLength).Msg("Remote file opened")

	body := resp.Body
	if d.maxSize > 0 {
		body = &cappedBody{ReadCloser: resp.Body, remaining: d.maxSize}
	}
	return &Download{FileName: name, Body: body}, nil
}

// cappedBody fails with ErrFileTooLarge once more than the limit is read
type cappedBody struct {
	io.ReadCloser
	remaining int64
}

func (c *cappedBody) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.ReadCloser.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}
