package models

import (
	"time"
)

// ArchiveState tracks the lifecycle of an article's locally archived full content.
type ArchiveState string

const (
	// StateUnarchived means no full-content fetch has been attempted yet.
	StateUnarchived ArchiveState = "unarchived"
	// StateArchiveFailed means a fetch/extraction attempt yielded nothing usable.
	// Terminal: failed articles are not retried automatically.
	StateArchiveFailed ArchiveState = "archive_failed"
	// StateArchived means full content and zero or more images are stored locally.
	StateArchived ArchiveState = "archived"
	// StatePurged means the archive was reclaimed after the retention window.
	// Article metadata survives; only an explicit reset re-enters unarchived.
	StatePurged ArchiveState = "purged"
)

// Feed represents a subscribed RSS/Atom source.
type Feed struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	UnreadCount int       `json:"unread_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Article represents a single feed item. Link is globally unique and is the
// sole deduplication key when merging freshly parsed items into the store.
type Article struct {
	ID            int64        `json:"id"`
	FeedID        int64        `json:"feed_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Content       string       `json:"content,omitempty"`
	FullContent   string       `json:"full_content,omitempty"`
	Link          string       `json:"link"`
	PubDate       *time.Time   `json:"pub_date,omitempty"`
	IsRead        bool         `json:"is_read"`
	ArchiveState  ArchiveState `json:"archive_state"`
	ArchivedAt    *time.Time   `json:"archived_at,omitempty"`
	FeaturedImage string       `json:"featured_image,omitempty"`
	Language      string       `json:"language,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ArchivedImage records one image downloaded into local storage for an article.
type ArchivedImage struct {
	ID          int64     `json:"id"`
	ArticleID   int64     `json:"article_id"`
	OriginalURL string    `json:"original_url"`
	LocalPath   string    `json:"local_path"`
	AltText     string    `json:"alt_text,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// ParsedFeed is the validated result of fetching and parsing a feed URL.
type ParsedFeed struct {
	Title       string
	Description string
	Items       []ParsedItem
}

// ParsedItem is one article stub as provided by the feed document itself.
type ParsedItem struct {
	Title       string
	Description string
	Content     string
	Link        string
	Published   *time.Time
}
