package driven

import "context"

// Downloader fetches documents over the network.
type Downloader interface {
	// Download returns the document bytes and its file extension (with dot).
	// Network and HTTP failures return domain.ErrDownloadFailed.
	Download(ctx context.Context, url string) ([]byte, string, error)
}
