package ports

import "context"

// DownloadResult describes a completed artifact download.
type DownloadResult struct {
	// Path is the local filesystem path the artifact was written to.
	Path string
	// Bytes is the number of bytes written.
	Bytes int64
	// Checksum is the hex-encoded sha256 of the downloaded content.
	Checksum string
}

// Downloader fetches remote artifacts to the local filesystem.
// Implementations must honor context cancellation promptly and must not
// leave a partially written file at the destination path on failure.
type Downloader interface {
	// Fetch downloads url to dest and returns the result.
	Fetch(ctx context.Context, url, dest string) (DownloadResult, error)
}
