// Package download provides the HTTP artifact downloader adapter.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/stagehand-dev/stagehand/internal/ports"
)

// HTTPDownloader fetches artifacts over HTTP(S), hashing the content as
// it streams. Partial downloads never land at the destination path: the
// write goes to a temp file that is renamed only on success.
type HTTPDownloader struct {
	client *http.Client
}

// Option configures the downloader.
type Option func(*HTTPDownloader)

// WithClient sets the HTTP client (default: 10 minute timeout).
func WithClient(client *http.Client) Option {
	return func(d *HTTPDownloader) {
		d.client = client
	}
}

// NewHTTPDownloader creates a new HTTPDownloader.
func NewHTTPDownloader(opts ...Option) *HTTPDownloader {
	d := &HTTPDownloader{
		client: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads url to dest, returning the byte count and sha256.
func (d *HTTPDownloader) Fetch(ctx context.Context, url, dest string) (ports.DownloadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.DownloadResult{}, fmt.Errorf("invalid download url %q: %w", url, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return ports.DownloadResult{}, fmt.Errorf("download %q: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ports.DownloadResult{}, fmt.Errorf("download %q: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return ports.DownloadResult{}, fmt.Errorf("create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".partial-*")
	if err != nil {
		return ports.DownloadResult{}, fmt.Errorf("create download temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		return ports.DownloadResult{}, fmt.Errorf("download %q: %w", url, err)
	}
	if closeErr != nil {
		return ports.DownloadResult{}, fmt.Errorf("write download: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return ports.DownloadResult{}, fmt.Errorf("finalize download: %w", err)
	}

	return ports.DownloadResult{
		Path:     dest,
		Bytes:    n,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Ensure HTTPDownloader implements ports.Downloader.
var _ ports.Downloader = (*HTTPDownloader)(nil)
