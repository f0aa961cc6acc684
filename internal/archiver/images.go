package archiver

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// imagesSubdir is the path-like prefix of every local image identifier. It is
// what ends up embedded in archived HTML src attributes (behind /api/).
const imagesSubdir = "storage/images"

// DownloadedImage describes one image fetched into local storage.
type DownloadedImage struct {
	OriginalURL string
	LocalPath   string
	FileSize    int64
}

// ImageArchiver downloads article images into content-addressed local storage.
// The storage directory is append-only from the archiver's perspective;
// unique filenames avoid collisions without locking.
type ImageArchiver struct {
	client    *http.Client
	dataDir   string
	userAgent string
}

func NewImageArchiver(dataDir string, timeout time.Duration, userAgent string) *ImageArchiver {
	return &ImageArchiver{
		client:    &http.Client{Timeout: timeout},
		dataDir:   dataDir,
		userAgent: userAgent,
	}
}

// Download fetches imageURL and stores the bytes under a unique local
// identifier derived from the owning article, the current time and a random
// suffix. Non-2xx responses and non-image content types are errors; callers
// skip the image and keep going.
func (ia *ImageArchiver) Download(imageURL string, articleID int64) (*DownloadedImage, error) {
	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %v", err)
	}
	req.Header.Set("User-Agent", ia.userAgent)

	resp, err := ia.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("not an image: content-type %q", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %v", err)
	}

	filename := fmt.Sprintf("%d_%d_%s.%s",
		articleID, time.Now().UnixMilli(), uuid.NewString()[:8], extensionFor(imageURL))

	dir := filepath.Join(ia.dataDir, filepath.FromSlash(imagesSubdir))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0640); err != nil {
		return nil, fmt.Errorf("failed to write image file: %v", err)
	}

	return &DownloadedImage{
		OriginalURL: imageURL,
		LocalPath:   imagesSubdir + "/" + filename,
		FileSize:    int64(len(data)),
	}, nil
}

// extensionFor derives a file extension from the URL path, defaulting to jpg.
func extensionFor(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "jpg"
	}
	ext := strings.TrimPrefix(path.Ext(u.Path), ".")
	if ext == "" || len(ext) > 5 {
		return "jpg"
	}
	return strings.ToLower(ext)
}
