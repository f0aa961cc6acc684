package retention

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"rssreader/internal/storage"
)

// Cleaner reclaims storage from archives older than the retention window:
// archived articles are purged (content nulled, metadata kept) and expired
// image files are deleted from disk along with their rows. Scheduling is the
// caller's responsibility; Cleanup runs once per invocation.
type Cleaner struct {
	store   storage.Store
	dataDir string
	window  time.Duration
}

func NewCleaner(store storage.Store, dataDir string, window time.Duration) *Cleaner {
	return &Cleaner{store: store, dataDir: dataDir, window: window}
}

func (c *Cleaner) Cleanup() error {
	purged, err := c.store.PurgeExpiredArchives(c.window)
	if err != nil {
		return fmt.Errorf("failed to purge expired archives: %v", err)
	}
	if purged > 0 {
		log.Printf("Purged archived content of %d article(s) older than %v", purged, c.window)
	}

	// Collect file paths before the rows disappear.
	expired, err := c.store.ListExpiredImages(c.window)
	if err != nil {
		return fmt.Errorf("failed to list expired images: %v", err)
	}

	for _, img := range expired {
		path := filepath.Join(c.dataDir, filepath.FromSlash(img.LocalPath))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: failed to delete image file %s: %v", img.LocalPath, err)
		}
	}

	deleted, err := c.store.DeleteExpiredImages(c.window)
	if err != nil {
		return fmt.Errorf("failed to delete expired image rows: %v", err)
	}
	if deleted > 0 {
		log.Printf("Deleted %d expired image(s)", deleted)
	}

	return nil
}
