// Package downloader fetches remote documents over HTTP.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure Downloader implements the interface.
var _ driven.Downloader = (*Downloader)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultExtension = ".pdf"
)

// Config holds configuration for the HTTP downloader.
type Config struct {
	// Timeout bounds the whole request, body included.
	Timeout time.Duration

	// MaxBytes caps the body read. Zero means unlimited. One byte past the
	// cap is read so callers can detect oversized documents.
	MaxBytes int64

	// Client overrides the HTTP client, for tests.
	Client *http.Client
}

// Downloader fetches documents with a single HTTP GET.
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// New creates a new HTTP downloader.
func New(cfg Config) *Downloader {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Downloader{client: client, maxBytes: cfg.MaxBytes}
}

// Download returns the body of rawURL and the extension of its path.
// Any network error or non-2xx status yields domain.ErrDownloadFailed.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("%w: invalid url %q", domain.ErrDownloadFailed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		logger.Debug("download %s: %v", u.Redacted(), err)
		return nil, "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: status %d", domain.ErrDownloadFailed, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if d.maxBytes > 0 {
		body = io.LimitReader(resp.Body, d.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read body: %v", domain.ErrDownloadFailed, err)
	}

	return data, Extension(u), nil
}

// Extension returns the lower-cased extension of the URL path, with its dot.
// A path without one yields DefaultExtension.
func Extension(u *url.URL) string {
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || ext == "." {
		return DefaultExtension
	}
	return ext
}
