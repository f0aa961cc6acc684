package storage

import (
	"errors"
	"testing"
	"time"

	"rssreader/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertTestFeed(t *testing.T, store *SQLiteStore, url string) int64 {
	t.Helper()
	id, err := store.InsertFeed(url, "Test Feed", "A feed for testing")
	if err != nil {
		t.Fatalf("Failed to insert feed: %v", err)
	}
	return id
}

func TestSQLiteStore_DuplicateFeed(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.InsertFeed("https://example.com/feed.xml", "Feed", ""); err != nil {
		t.Fatalf("Failed to insert feed: %v", err)
	}

	_, err := store.InsertFeed("https://example.com/feed.xml", "Feed Again", "")
	if !errors.Is(err, ErrDuplicateFeed) {
		t.Errorf("Expected ErrDuplicateFeed, got %v", err)
	}
}

func TestSQLiteStore_ArticleDedupByLink(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")

	first, inserted, err := store.InsertArticle(&models.Article{
		FeedID: feedID,
		Title:  "Original Title",
		Link:   "https://example.com/article-1",
	})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	if !inserted {
		t.Fatal("Expected first insert to create a row")
	}

	// Same link from a second feed with a changed title must not create a
	// second row.
	otherFeed := insertTestFeed(t, store, "https://other.example.com/feed.xml")
	second, inserted, err := store.InsertArticle(&models.Article{
		FeedID: otherFeed,
		Title:  "Changed Title Upstream",
		Link:   "https://example.com/article-1",
	})
	if err != nil {
		t.Fatalf("Failed to re-insert article: %v", err)
	}
	if inserted {
		t.Error("Expected re-insert with existing link to be a no-op")
	}
	if second.ID != first.ID {
		t.Errorf("Expected existing article %d, got %d", first.ID, second.ID)
	}
	if second.Title != "Original Title" {
		t.Errorf("Expected original title to survive, got %q", second.Title)
	}

	articles, err := store.ListArticles(0, false)
	if err != nil {
		t.Fatalf("Failed to list articles: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("Expected 1 article, got %d", len(articles))
	}
}

func TestSQLiteStore_ArchiveStateMachine(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")

	article, _, err := store.InsertArticle(&models.Article{
		FeedID: feedID,
		Title:  "Article",
		Link:   "https://example.com/a",
	})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}

	if article.ArchiveState != models.StateUnarchived {
		t.Errorf("Expected initial state unarchived, got %s", article.ArchiveState)
	}

	if err := store.SaveArchiveResult(article.ID, "<p>archived body</p>", "storage/images/1_a.jpg"); err != nil {
		t.Fatalf("Failed to save archive result: %v", err)
	}

	got, err := store.GetArticle(article.ID)
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}
	if got.ArchiveState != models.StateArchived {
		t.Errorf("Expected state archived, got %s", got.ArchiveState)
	}
	if got.FullContent != "<p>archived body</p>" {
		t.Errorf("Expected archived content, got %q", got.FullContent)
	}
	if got.FeaturedImage != "storage/images/1_a.jpg" {
		t.Errorf("Expected featured image, got %q", got.FeaturedImage)
	}
	if got.ArchivedAt == nil {
		t.Error("Expected archived_at to be set")
	}
}

func TestSQLiteStore_MarkArchiveFailed(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")

	article, _, err := store.InsertArticle(&models.Article{
		FeedID: feedID,
		Title:  "Article",
		Link:   "https://example.com/a",
	})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}

	if err := store.MarkArchiveFailed(article.ID); err != nil {
		t.Fatalf("Failed to mark archive failed: %v", err)
	}

	got, err := store.GetArticle(article.ID)
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}
	if got.ArchiveState != models.StateArchiveFailed {
		t.Errorf("Expected state archive_failed, got %s", got.ArchiveState)
	}
	if got.FullContent != "" {
		t.Errorf("Expected empty content after failure, got %q", got.FullContent)
	}
	// Failed articles carry an archive timestamp with no content, and must
	// not show up as queue candidates again.
	if got.ArchivedAt == nil {
		t.Error("Expected archived_at to be set on failure")
	}

	queue, err := store.ListUnarchived()
	if err != nil {
		t.Fatalf("Failed to list unarchived: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("Expected empty queue after failure, got %d", len(queue))
	}
}

func TestSQLiteStore_ListUnarchivedSkipsRead(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")

	unread, _, err := store.InsertArticle(&models.Article{FeedID: feedID, Title: "A", Link: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	read, _, err := store.InsertArticle(&models.Article{FeedID: feedID, Title: "B", Link: "https://example.com/b"})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	if err := store.MarkRead(read.ID); err != nil {
		t.Fatalf("Failed to mark read: %v", err)
	}

	queue, err := store.ListUnarchived()
	if err != nil {
		t.Fatalf("Failed to list unarchived: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("Expected 1 queue candidate, got %d", len(queue))
	}
	if queue[0].ID != unread.ID {
		t.Errorf("Expected article %d in queue, got %d", unread.ID, queue[0].ID)
	}
}

func TestSQLiteStore_PurgeExpiredArchives(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")

	old, _, err := store.InsertArticle(&models.Article{FeedID: feedID, Title: "Old", Link: "https://example.com/old"})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	recent, _, err := store.InsertArticle(&models.Article{FeedID: feedID, Title: "Recent", Link: "https://example.com/recent"})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}

	for _, id := range []int64{old.ID, recent.ID} {
		if err := store.SaveArchiveResult(id, "<p>body</p>", "storage/images/x.jpg"); err != nil {
			t.Fatalf("Failed to archive article %d: %v", id, err)
		}
	}

	// Backdate one archive to 8 days ago; the other stays at 6 days.
	if _, err := store.db.Exec(`UPDATE articles SET archived_at = datetime('now', '-8 days') WHERE id = ?`, old.ID); err != nil {
		t.Fatalf("Failed to backdate archive: %v", err)
	}
	if _, err := store.db.Exec(`UPDATE articles SET archived_at = datetime('now', '-6 days') WHERE id = ?`, recent.ID); err != nil {
		t.Fatalf("Failed to backdate archive: %v", err)
	}

	purged, err := store.PurgeExpiredArchives(7 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Failed to purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected 1 purged article, got %d", purged)
	}

	gotOld, err := store.GetArticle(old.ID)
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}
	if gotOld.ArchiveState != models.StatePurged {
		t.Errorf("Expected old article purged, got %s", gotOld.ArchiveState)
	}
	if gotOld.FullContent != "" || gotOld.FeaturedImage != "" {
		t.Error("Expected purged article content and featured image cleared")
	}
	if gotOld.Title != "Old" {
		t.Error("Expected article metadata to survive purge")
	}

	gotRecent, err := store.GetArticle(recent.ID)
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}
	if gotRecent.ArchiveState != models.StateArchived {
		t.Errorf("Expected recent article untouched, got %s", gotRecent.ArchiveState)
	}
	if gotRecent.FullContent != "<p>body</p>" {
		t.Error("Expected recent article content untouched")
	}

	// Purged articles never re-enter the queue on their own.
	queue, err := store.ListUnarchived()
	if err != nil {
		t.Fatalf("Failed to list unarchived: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("Expected empty queue after purge, got %d", len(queue))
	}
}

func TestSQLiteStore_ResetArchiveState(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")

	a, _, _ := store.InsertArticle(&models.Article{FeedID: feedID, Title: "A", Link: "https://example.com/a"})
	b, _, _ := store.InsertArticle(&models.Article{FeedID: feedID, Title: "B", Link: "https://example.com/b"})

	if err := store.SaveArchiveResult(a.ID, "<p>a</p>", ""); err != nil {
		t.Fatalf("Failed to archive: %v", err)
	}
	if err := store.MarkArchiveFailed(b.ID); err != nil {
		t.Fatalf("Failed to mark failed: %v", err)
	}

	count, err := store.ResetArchiveState()
	if err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 reset articles, got %d", count)
	}

	for _, id := range []int64{a.ID, b.ID} {
		got, err := store.GetArticle(id)
		if err != nil {
			t.Fatalf("Failed to get article: %v", err)
		}
		if got.ArchiveState != models.StateUnarchived {
			t.Errorf("Expected article %d unarchived after reset, got %s", id, got.ArchiveState)
		}
		if got.ArchivedAt != nil {
			t.Errorf("Expected article %d archived_at cleared", id)
		}
	}
}

func TestSQLiteStore_DeleteFeedCascades(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")

	article, _, err := store.InsertArticle(&models.Article{FeedID: feedID, Title: "A", Link: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	if _, err := store.InsertImage(&models.ArchivedImage{
		ArticleID:   article.ID,
		OriginalURL: "https://example.com/img.jpg",
		LocalPath:   "storage/images/1_img.jpg",
		FileSize:    123,
	}); err != nil {
		t.Fatalf("Failed to insert image: %v", err)
	}

	if err := store.DeleteFeed(feedID); err != nil {
		t.Fatalf("Failed to delete feed: %v", err)
	}

	articles, err := store.ListArticles(0, false)
	if err != nil {
		t.Fatalf("Failed to list articles: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("Expected cascade to remove articles, got %d", len(articles))
	}
	images, err := store.ListImagesByArticle(article.ID)
	if err != nil {
		t.Fatalf("Failed to list images: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("Expected cascade to remove images, got %d", len(images))
	}
}

func TestSQLiteStore_UnreadCounts(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")

	a, _, _ := store.InsertArticle(&models.Article{FeedID: feedID, Title: "A", Link: "https://example.com/a"})
	store.InsertArticle(&models.Article{FeedID: feedID, Title: "B", Link: "https://example.com/b"})

	count, err := store.CountUnread(feedID)
	if err != nil {
		t.Fatalf("Failed to count unread: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 unread, got %d", count)
	}

	if err := store.MarkRead(a.ID); err != nil {
		t.Fatalf("Failed to mark read: %v", err)
	}

	feeds, err := store.ListFeeds()
	if err != nil {
		t.Fatalf("Failed to list feeds: %v", err)
	}
	if len(feeds) != 1 {
		t.Fatalf("Expected 1 feed, got %d", len(feeds))
	}
	if feeds[0].UnreadCount != 1 {
		t.Errorf("Expected unread count 1, got %d", feeds[0].UnreadCount)
	}
}

func TestSQLiteStore_ExpiredImages(t *testing.T) {
	store := newTestStore(t)
	feedID := insertTestFeed(t, store, "https://example.com/feed.xml")
	article, _, _ := store.InsertArticle(&models.Article{FeedID: feedID, Title: "A", Link: "https://example.com/a"})

	if _, err := store.InsertImage(&models.ArchivedImage{
		ArticleID:   article.ID,
		OriginalURL: "https://example.com/old.jpg",
		LocalPath:   "storage/images/old.jpg",
		FileSize:    10,
	}); err != nil {
		t.Fatalf("Failed to insert image: %v", err)
	}
	if _, err := store.InsertImage(&models.ArchivedImage{
		ArticleID:   article.ID,
		OriginalURL: "https://example.com/new.jpg",
		LocalPath:   "storage/images/new.jpg",
		FileSize:    10,
	}); err != nil {
		t.Fatalf("Failed to insert image: %v", err)
	}
	if _, err := store.db.Exec(`UPDATE article_images SET created_at = datetime('now', '-8 days') WHERE local_path = ?`, "storage/images/old.jpg"); err != nil {
		t.Fatalf("Failed to backdate image: %v", err)
	}

	expired, err := store.ListExpiredImages(7 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Failed to list expired images: %v", err)
	}
	if len(expired) != 1 || expired[0].LocalPath != "storage/images/old.jpg" {
		t.Fatalf("Expected only the old image expired, got %+v", expired)
	}

	deleted, err := store.DeleteExpiredImages(7 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Failed to delete expired images: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted image row, got %d", deleted)
	}

	remaining, err := store.ListImagesByArticle(article.ID)
	if err != nil {
		t.Fatalf("Failed to list images: %v", err)
	}
	if len(remaining) != 1 || remaining[0].LocalPath != "storage/images/new.jpg" {
		t.Errorf("Expected only the new image to remain, got %+v", remaining)
	}
}

func TestSQLiteStore_GetFeedNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetFeed(42)
	if !errors.Is(err, ErrFeedNotFound) {
		t.Errorf("Expected ErrFeedNotFound, got %v", err)
	}
}
