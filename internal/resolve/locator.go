package resolve

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jmylchreest/tapedeck/internal/models"
)

// MediaLocator resolves a clip to a directly decodable local path, fetching
// remote assets when needed.
type MediaLocator interface {
	Locate(ctx context.Context, clip *models.Clip) (string, error)
}

// FileLocator serves clips whose media already lives on the local filesystem.
type FileLocator struct{}

// Locate verifies the clip's source file exists and returns its path.
func (FileLocator) Locate(_ context.Context, clip *models.Clip) (string, error) {
	path := clip.SourcePath
	if path == "" {
		return "", fmt.Errorf("%w: clip %s has no local source", ErrAssetUnavailable, clip.ID)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrAssetUnavailable, path, err)
	}
	return path, nil
}

// HTTPLocator downloads remote assets into a local cache directory, falling
// back to FileLocator for clips with a local source. Downloads are keyed by
// URL so repeated resolutions reuse the same file.
type HTTPLocator struct {
	client   *http.Client
	cacheDir string
	local    FileLocator
}

// NewHTTPLocator creates a locator downloading into cacheDir.
func NewHTTPLocator(cacheDir string, timeout time.Duration) *HTTPLocator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPLocator{
		client:   &http.Client{Timeout: timeout},
		cacheDir: cacheDir,
	}
}

// Locate returns a local path for the clip's media, downloading it first when
// the clip is remote.
func (l *HTTPLocator) Locate(ctx context.Context, clip *models.Clip) (string, error) {
	if !clip.IsRemote() {
		return l.local.Locate(ctx, clip)
	}

	dest := filepath.Join(l.cacheDir, l.cacheName(clip))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating asset cache dir: %w", err)
	}
	if err := l.download(ctx, clip.AssetURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// cacheName derives a stable filename from the asset URL, preserving the
// extension so downstream tooling can sniff the container.
func (l *HTTPLocator) cacheName(clip *models.Clip) string {
	h := fnv.New64a()
	h.Write([]byte(clip.AssetURL))
	return fmt.Sprintf("%016x%s", h.Sum64(), filepath.Ext(clip.AssetURL))
}

// download fetches url into dest via a temp file so partial downloads never
// appear at the final path.
func (l *HTTPLocator) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building asset request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetching %s: %v", ErrAssetUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fetching %s: status %d", ErrAssetUnavailable, url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(l.cacheDir, "fetch-*")
	if err != nil {
		return fmt.Errorf("creating download temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: downloading %s: %v", ErrAssetUnavailable, url, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
