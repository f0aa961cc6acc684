package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rssreader/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pemistahl/lingua-go"
)

type SQLiteStore struct {
	db       *sql.DB
	detector lingua.LanguageDetector
}

func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "rss_reader.db")
	log.Printf("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// serializes the per-row state transitions the pipeline relies on.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	// Language detector for the most common feed languages
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English, lingua.German, lingua.French, lingua.Spanish,
			lingua.Japanese, lingua.Chinese, lingua.Russian, lingua.Italian,
			lingua.Portuguese, lingua.Dutch,
		).
		Build()

	return &SQLiteStore{db: db, detector: detector}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS feeds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		feed_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		content TEXT,
		full_content TEXT,
		link TEXT UNIQUE NOT NULL,
		pub_date DATETIME,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		archive_state TEXT NOT NULL DEFAULT 'unarchived',
		archived_at DATETIME,
		featured_image TEXT,
		language TEXT DEFAULT 'en',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (feed_id) REFERENCES feeds (id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS article_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id INTEGER NOT NULL,
		original_url TEXT NOT NULL,
		local_path TEXT NOT NULL,
		alt_text TEXT,
		width INTEGER,
		height INTEGER,
		file_size INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (article_id) REFERENCES articles (id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_articles_feed_id ON articles(feed_id);
	CREATE INDEX IF NOT EXISTS idx_articles_pub_date ON articles(pub_date DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_is_read ON articles(is_read);
	CREATE INDEX IF NOT EXISTS idx_articles_archive_state ON articles(archive_state);
	CREATE INDEX IF NOT EXISTS idx_article_images_article_id ON article_images(article_id);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %v", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Feeds ---

func (s *SQLiteStore) ListFeeds() ([]models.Feed, error) {
	rows, err := s.db.Query(`
		SELECT f.id, f.url, f.title, COALESCE(f.description, ''), f.created_at, f.updated_at,
			(SELECT COUNT(*) FROM articles a WHERE a.feed_id = f.id AND a.is_read = FALSE)
		FROM feeds f ORDER BY f.title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %v", err)
	}
	defer rows.Close()

	var feeds []models.Feed
	for rows.Next() {
		var f models.Feed
		if err := rows.Scan(&f.ID, &f.URL, &f.Title, &f.Description, &f.CreatedAt, &f.UpdatedAt, &f.UnreadCount); err != nil {
			return nil, fmt.Errorf("failed to scan feed: %v", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (s *SQLiteStore) GetFeed(id int64) (*models.Feed, error) {
	var f models.Feed
	err := s.db.QueryRow(`
		SELECT id, url, title, COALESCE(description, ''), created_at, updated_at
		FROM feeds WHERE id = ?`, id).
		Scan(&f.ID, &f.URL, &f.Title, &f.Description, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("feed %d: %w", id, ErrFeedNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed %d: %v", id, err)
	}
	return &f, nil
}

func (s *SQLiteStore) InsertFeed(url, title, description string) (int64, error) {
	result, err := s.db.Exec(`INSERT INTO feeds (url, title, description) VALUES (?, ?, ?)`,
		url, title, nullable(description))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("feed %s: %w", url, ErrDuplicateFeed)
		}
		return 0, fmt.Errorf("failed to insert feed: %v", err)
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateFeed(id int64, title, description string) error {
	result, err := s.db.Exec(`
		UPDATE feeds SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, title, nullable(description), id)
	if err != nil {
		return fmt.Errorf("failed to update feed %d: %v", id, err)
	}
	return requireRow(result, ErrFeedNotFound)
}

func (s *SQLiteStore) DeleteFeed(id int64) error {
	// Cascades to articles and their images via foreign keys.
	result, err := s.db.Exec(`DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed %d: %v", id, err)
	}
	return requireRow(result, ErrFeedNotFound)
}

// --- Articles ---

const articleColumns = `id, feed_id, title, COALESCE(description, ''), COALESCE(content, ''),
	COALESCE(full_content, ''), link, pub_date, is_read, archive_state, archived_at,
	COALESCE(featured_image, ''), COALESCE(language, 'en'), created_at`

func (s *SQLiteStore) scanArticle(row interface{ Scan(...interface{}) error }) (*models.Article, error) {
	var a models.Article
	var state string
	err := row.Scan(&a.ID, &a.FeedID, &a.Title, &a.Description, &a.Content,
		&a.FullContent, &a.Link, &a.PubDate, &a.IsRead, &state, &a.ArchivedAt,
		&a.FeaturedImage, &a.Language, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ArchiveState = models.ArchiveState(state)
	return &a, nil
}

func (s *SQLiteStore) ListArticles(feedID int64, unreadOnly bool) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	var conditions []string
	var args []interface{}
	if feedID > 0 {
		conditions = append(conditions, "feed_id = ?")
		args = append(args, feedID)
	}
	if unreadOnly {
		conditions = append(conditions, "is_read = FALSE")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY pub_date DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %v", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		a, err := s.scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %v", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func (s *SQLiteStore) GetArticle(id int64) (*models.Article, error) {
	a, err := s.scanArticle(s.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article %d: %w", id, ErrArticleNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article %d: %v", id, err)
	}
	return a, nil
}

func (s *SQLiteStore) CountUnread(feedID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE feed_id = ? AND is_read = FALSE`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread articles: %v", err)
	}
	return count, nil
}

// InsertArticle inserts a new article unless one with the same link already
// exists, in which case the existing row is returned and inserted is false.
// An item whose link already exists is never re-inserted, even if its title
// or content changed upstream.
func (s *SQLiteStore) InsertArticle(article *models.Article) (*models.Article, bool, error) {
	existing, err := s.findByLink(article.Link)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	language := s.detectLanguage(article.Title + " " + article.Description)

	result, err := s.db.Exec(`
		INSERT INTO articles (feed_id, title, description, content, link, pub_date, language)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		article.FeedID, article.Title, nullable(article.Description),
		nullable(article.Content), article.Link, article.PubDate, language)
	if err != nil {
		// A concurrent refresh may have inserted the same link between the
		// lookup and the insert; treat that as the dedup no-op path.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			existing, lookupErr := s.findByLink(article.Link)
			if lookupErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to insert article: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get inserted article id: %v", err)
	}
	inserted, err := s.GetArticle(id)
	if err != nil {
		return nil, false, err
	}
	return inserted, true, nil
}

func (s *SQLiteStore) findByLink(link string) (*models.Article, error) {
	a, err := s.scanArticle(s.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE link = ?`, link))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up article by link: %v", err)
	}
	return a, nil
}

func (s *SQLiteStore) MarkRead(id int64) error {
	result, err := s.db.Exec(`UPDATE articles SET is_read = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark article %d read: %v", id, err)
	}
	return requireRow(result, ErrArticleNotFound)
}

func (s *SQLiteStore) MarkUnread(id int64) error {
	result, err := s.db.Exec(`UPDATE articles SET is_read = FALSE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark article %d unread: %v", id, err)
	}
	return requireRow(result, ErrArticleNotFound)
}

// --- Archival state machine ---

func (s *SQLiteStore) ListUnarchived() ([]models.Article, error) {
	rows, err := s.db.Query(`
		SELECT `+articleColumns+` FROM articles
		WHERE archive_state = ? AND is_read = FALSE
		ORDER BY pub_date DESC`, string(models.StateUnarchived))
	if err != nil {
		return nil, fmt.Errorf("failed to list unarchived articles: %v", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		a, err := s.scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %v", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func (s *SQLiteStore) SaveArchiveResult(articleID int64, fullContent, featuredImage string) error {
	result, err := s.db.Exec(`
		UPDATE articles
		SET full_content = ?, featured_image = ?, archive_state = ?, archived_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		fullContent, nullable(featuredImage), string(models.StateArchived), articleID)
	if err != nil {
		return fmt.Errorf("failed to save archive result for article %d: %v", articleID, err)
	}
	return requireRow(result, ErrArticleNotFound)
}

// MarkArchiveFailed records a failed archival attempt so the article is not
// retried on every queue drain.
func (s *SQLiteStore) MarkArchiveFailed(articleID int64) error {
	result, err := s.db.Exec(`
		UPDATE articles
		SET full_content = NULL, featured_image = NULL, archive_state = ?, archived_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		string(models.StateArchiveFailed), articleID)
	if err != nil {
		return fmt.Errorf("failed to mark archive failed for article %d: %v", articleID, err)
	}
	return requireRow(result, ErrArticleNotFound)
}

// ResetArchiveState forces every article back to unarchived. Maintenance
// operation: the only path back to retry after failures or purges.
func (s *SQLiteStore) ResetArchiveState() (int64, error) {
	result, err := s.db.Exec(`
		UPDATE articles
		SET archive_state = ?, archived_at = NULL, full_content = NULL, featured_image = NULL`,
		string(models.StateUnarchived))
	if err != nil {
		return 0, fmt.Errorf("failed to reset archive state: %v", err)
	}
	return result.RowsAffected()
}

// --- Archived images ---

func (s *SQLiteStore) InsertImage(image *models.ArchivedImage) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO article_images (article_id, original_url, local_path, alt_text, width, height, file_size)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		image.ArticleID, image.OriginalURL, image.LocalPath, nullable(image.AltText),
		nullableInt(image.Width), nullableInt(image.Height), image.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %v", err)
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) ListImagesByArticle(articleID int64) ([]models.ArchivedImage, error) {
	rows, err := s.db.Query(`
		SELECT id, article_id, original_url, local_path, COALESCE(alt_text, ''),
			COALESCE(width, 0), COALESCE(height, 0), COALESCE(file_size, 0), created_at
		FROM article_images WHERE article_id = ? ORDER BY id`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images for article %d: %v", articleID, err)
	}
	defer rows.Close()

	var images []models.ArchivedImage
	for rows.Next() {
		var img models.ArchivedImage
		if err := rows.Scan(&img.ID, &img.ArticleID, &img.OriginalURL, &img.LocalPath,
			&img.AltText, &img.Width, &img.Height, &img.FileSize, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %v", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// --- Retention ---

func (s *SQLiteStore) PurgeExpiredArchives(window time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-window)
	result, err := s.db.Exec(`
		UPDATE articles
		SET full_content = '', featured_image = NULL, archive_state = ?, archived_at = NULL
		WHERE archive_state = ? AND archived_at < ?`,
		string(models.StatePurged), string(models.StateArchived), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired archives: %v", err)
	}
	return result.RowsAffected()
}

func (s *SQLiteStore) ListExpiredImages(window time.Duration) ([]models.ArchivedImage, error) {
	cutoff := time.Now().UTC().Add(-window)
	rows, err := s.db.Query(`
		SELECT id, article_id, original_url, local_path, COALESCE(alt_text, ''),
			COALESCE(width, 0), COALESCE(height, 0), COALESCE(file_size, 0), created_at
		FROM article_images WHERE created_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired images: %v", err)
	}
	defer rows.Close()

	var images []models.ArchivedImage
	for rows.Next() {
		var img models.ArchivedImage
		if err := rows.Scan(&img.ID, &img.ArticleID, &img.OriginalURL, &img.LocalPath,
			&img.AltText, &img.Width, &img.Height, &img.FileSize, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %v", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLiteStore) DeleteExpiredImages(window time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-window)
	result, err := s.db.Exec(`DELETE FROM article_images WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired images: %v", err)
	}
	return result.RowsAffected()
}

// --- Helpers ---

// detectLanguage detects the language of the given text using the lingua-go library
func (s *SQLiteStore) detectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return "en"
	}

	language, exists := s.detector.DetectLanguageOf(text)
	if !exists {
		return "en"
	}

	switch language {
	case lingua.English:
		return "en"
	case lingua.German:
		return "de"
	case lingua.French:
		return "fr"
	case lingua.Spanish:
		return "es"
	case lingua.Japanese:
		return "ja"
	case lingua.Chinese:
		return "zh"
	case lingua.Russian:
		return "ru"
	case lingua.Italian:
		return "it"
	case lingua.Portuguese:
		return "pt"
	case lingua.Dutch:
		return "nl"
	default:
		return "en"
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(i int) interface{} {
	if i == 0 {
		return nil
	}
	return i
}

func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %v", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
