package storage

import (
	"errors"
	"time"

	"rssreader/internal/models"
)

var (
	// ErrDuplicateFeed is returned when inserting a feed whose URL already exists.
	ErrDuplicateFeed = errors.New("feed URL already exists")

	// ErrFeedNotFound is returned when a feed id does not exist.
	ErrFeedNotFound = errors.New("feed not found")

	// ErrArticleNotFound is returned when an article id does not exist.
	ErrArticleNotFound = errors.New("article not found")
)

// Store defines the persistence operations used by the acquisition pipeline.
// All write operations are atomic with respect to a single feed/article row.
type Store interface {
	// Feeds
	ListFeeds() ([]models.Feed, error)
	GetFeed(id int64) (*models.Feed, error)
	InsertFeed(url, title, description string) (int64, error)
	UpdateFeed(id int64, title, description string) error
	DeleteFeed(id int64) error

	// Articles
	ListArticles(feedID int64, unreadOnly bool) ([]models.Article, error)
	GetArticle(id int64) (*models.Article, error)
	CountUnread(feedID int64) (int, error)
	// InsertArticle is the dedup gate: if an article with the same link already
	// exists, the existing row is returned unchanged and no insert happens.
	InsertArticle(article *models.Article) (*models.Article, bool, error)
	MarkRead(id int64) error
	MarkUnread(id int64) error

	// Archival state machine
	ListUnarchived() ([]models.Article, error)
	SaveArchiveResult(articleID int64, fullContent, featuredImage string) error
	MarkArchiveFailed(articleID int64) error
	ResetArchiveState() (int64, error)

	// Archived images
	InsertImage(image *models.ArchivedImage) (int64, error)
	ListImagesByArticle(articleID int64) ([]models.ArchivedImage, error)

	// Retention
	PurgeExpiredArchives(window time.Duration) (int64, error)
	ListExpiredImages(window time.Duration) ([]models.ArchivedImage, error)
	DeleteExpiredImages(window time.Duration) (int64, error)

	Close() error
}
