package reader

import (
	"fmt"
	"log"

	"rssreader/internal/archiver"
	"rssreader/internal/cache"
	"rssreader/internal/feed"
	"rssreader/internal/models"
	"rssreader/internal/retention"
	"rssreader/internal/storage"
)

// Service is the orchestrating surface of the acquisition pipeline. Feed
// refreshes merge parsed items into the store (dedup by link) and then kick
// off background archival without waiting for it.
type Service struct {
	store    storage.Store
	fetcher  *feed.Fetcher
	worker   *archiver.Worker
	cleaner  *retention.Cleaner
	cacheMgr *cache.Manager
}

func NewService(store storage.Store, fetcher *feed.Fetcher, worker *archiver.Worker, cleaner *retention.Cleaner, cacheMgr *cache.Manager) *Service {
	return &Service{
		store:    store,
		fetcher:  fetcher,
		worker:   worker,
		cleaner:  cleaner,
		cacheMgr: cacheMgr,
	}
}

// AddFeed fetches and validates the feed URL, stores it with its current
// items, and triggers background archival. Returns the new feed id.
func (s *Service) AddFeed(url string) (int64, error) {
	parsed, err := s.fetcher.Fetch(url)
	if err != nil {
		return 0, err
	}

	feedID, err := s.store.InsertFeed(url, parsed.Title, parsed.Description)
	if err != nil {
		return 0, err
	}

	s.mergeItems(feedID, parsed.Items)
	s.cacheMgr.InvalidateFeeds()
	s.worker.Notify()
	return feedID, nil
}

// RefreshFeed re-fetches one feed, updates its metadata and merges any new
// items. Archival of the new items happens in the background after return.
func (s *Service) RefreshFeed(feedID int64) error {
	f, err := s.store.GetFeed(feedID)
	if err != nil {
		return err
	}

	parsed, err := s.fetcher.Fetch(f.URL)
	if err != nil {
		return err
	}

	if err := s.store.UpdateFeed(feedID, parsed.Title, parsed.Description); err != nil {
		return err
	}

	inserted := s.mergeItems(feedID, parsed.Items)
	if inserted > 0 {
		log.Printf("Feed %d (%s): %d new article(s)", feedID, f.URL, inserted)
	}
	s.cacheMgr.InvalidateFeeds()
	s.worker.Notify()
	return nil
}

// RefreshAllFeeds refreshes every feed. Per-feed errors are logged and
// skipped; the batch never aborts.
func (s *Service) RefreshAllFeeds() {
	feeds, err := s.store.ListFeeds()
	if err != nil {
		log.Printf("Error listing feeds for refresh: %v", err)
		return
	}

	for _, f := range feeds {
		if err := s.RefreshFeed(f.ID); err != nil {
			log.Printf("Error refreshing feed %d (%s): %v", f.ID, f.URL, err)
		}
	}
}

// mergeItems inserts parsed items into the store, relying on the store's
// link-based dedup gate, and returns the number actually inserted.
func (s *Service) mergeItems(feedID int64, items []models.ParsedItem) int {
	inserted := 0
	for _, item := range items {
		_, isNew, err := s.store.InsertArticle(&models.Article{
			FeedID:      feedID,
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Link:        item.Link,
			PubDate:     item.Published,
		})
		if err != nil {
			log.Printf("Error inserting article %s: %v", item.Link, err)
			continue
		}
		if isNew {
			inserted++
		}
	}
	return inserted
}

// ProcessUndownloadedArticles drains the archival queue once, synchronously.
// Exposed for explicit maintenance triggers; the background worker uses the
// same drain.
func (s *Service) ProcessUndownloadedArticles() {
	s.worker.Archiver().ProcessQueue()
}

// CleanupOldContent invokes the retention manager once.
func (s *Service) CleanupOldContent() error {
	return s.cleaner.Cleanup()
}

// ResetArchiveState forces all articles back to unarchived so the next queue
// drain re-attempts them. The only path back to retry after failures.
func (s *Service) ResetArchiveState() (int64, error) {
	count, err := s.store.ResetArchiveState()
	if err != nil {
		return 0, err
	}
	s.cacheMgr.InvalidateFeeds()
	log.Printf("Reset archive state for %d article(s)", count)
	return count, nil
}

// ListFeeds returns all feeds with unread counts, served from cache when hot.
func (s *Service) ListFeeds() ([]models.Feed, error) {
	if cached, found := s.cacheMgr.GetFeeds(); found {
		if feeds, ok := cached.([]models.Feed); ok {
			return feeds, nil
		}
	}

	feeds, err := s.store.ListFeeds()
	if err != nil {
		return nil, err
	}
	s.cacheMgr.SetFeeds(feeds)
	return feeds, nil
}

func (s *Service) GetFeed(id int64) (*models.Feed, error) {
	return s.store.GetFeed(id)
}

func (s *Service) DeleteFeed(id int64) error {
	if err := s.store.DeleteFeed(id); err != nil {
		return err
	}
	s.cacheMgr.InvalidateFeeds()
	return nil
}

func (s *Service) ListArticles(feedID int64, unreadOnly bool) ([]models.Article, error) {
	return s.store.ListArticles(feedID, unreadOnly)
}

// GetArticleContent returns the archived full content when available, falling
// back to the feed-provided content so the reader always sees something.
func (s *Service) GetArticleContent(id int64) (*models.Article, string, error) {
	article, err := s.store.GetArticle(id)
	if err != nil {
		return nil, "", err
	}

	if article.ArchiveState == models.StateArchived && article.FullContent != "" {
		return article, article.FullContent, nil
	}
	if article.Content != "" {
		return article, article.Content, nil
	}
	return article, article.Description, nil
}

func (s *Service) MarkRead(id int64) error {
	if err := s.store.MarkRead(id); err != nil {
		return err
	}
	s.cacheMgr.InvalidateFeeds()
	return nil
}

func (s *Service) MarkUnread(id int64) error {
	if err := s.store.MarkUnread(id); err != nil {
		return err
	}
	s.cacheMgr.InvalidateFeeds()
	return nil
}

// Describe summarizes the pipeline state for health reporting.
func (s *Service) Describe() string {
	return fmt.Sprintf("worker running: %v", s.worker.IsRunning())
}
