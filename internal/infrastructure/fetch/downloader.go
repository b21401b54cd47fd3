package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Downloader fetches a remote image into a private temporary file. The file
// is handed to the caller, who must remove it on every exit path; on any
// failure here the partial file is already cleaned up.
type Downloader struct {
	client *http.Client
	logger *logrus.Logger
}

// NewDownloader creates a downloader whose requests are bounded by timeout.
func NewDownloader(timeout time.Duration, logger *logrus.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchToFile implements ports.ImageFetcher.
func (d *Downloader) FetchToFile(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building image request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading image: unexpected status %d", resp.StatusCode)
	}

	path := filepath.Join(os.TempDir(), "avatar-"+uuid.NewString())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if d.logger != nil {
		d.logger.WithFields(logrus.Fields{"url": url, "path": path}).Debug("image downloaded")
	}
	return path, nil
}
