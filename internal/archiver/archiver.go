package archiver

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"rssreader/internal/extractor"
	"rssreader/internal/models"
	"rssreader/internal/storage"
)

// localImageRoute is the serving prefix substituted into archived HTML for
// every downloaded image.
const localImageRoute = "/api/"

// Archiver drives per-article content acquisition: fetch the page, extract
// the body, download its images and persist the rewritten result.
type Archiver struct {
	store     storage.Store
	images    *ImageArchiver
	client    *http.Client
	userAgent string
	delay     time.Duration
}

func New(store storage.Store, images *ImageArchiver, articleTimeout, delay time.Duration, userAgent string) *Archiver {
	return &Archiver{
		store:     store,
		images:    images,
		client:    &http.Client{Timeout: articleTimeout},
		userAgent: userAgent,
		delay:     delay,
	}
}

// ProcessQueue drains the unarchived-article queue once, strictly
// sequentially with a fixed inter-article delay. The delay is a deliberate
// rate limit against source servers, not an accidental bottleneck. A single
// article's failure is logged and never halts the queue.
func (a *Archiver) ProcessQueue() {
	articles, err := a.store.ListUnarchived()
	if err != nil {
		log.Printf("Error listing unarchived articles: %v", err)
		return
	}
	if len(articles) == 0 {
		return
	}

	log.Printf("Processing %d unarchived article(s)", len(articles))
	for i, article := range articles {
		if err := a.ArchiveArticle(&article); err != nil {
			log.Printf("Error archiving article %d (%s): %v", article.ID, article.Link, err)
		}
		if i < len(articles)-1 {
			time.Sleep(a.delay)
		}
	}
}

// ArchiveArticle fetches and archives one article, transitioning it to
// archived on success or archive_failed when the page yields nothing usable.
// Partial image failure is tolerated: the article is archived with whatever
// images did download.
func (a *Archiver) ArchiveArticle(article *models.Article) error {
	html, err := a.fetchPage(article.Link)
	if err != nil {
		log.Printf("Failed to fetch article %d (%s): %v", article.ID, article.Link, err)
		return a.store.MarkArchiveFailed(article.ID)
	}

	result, err := extractor.Extract(html, article.Link, article.Title, article.Description)
	if err != nil {
		log.Printf("No usable content for article %d (%s): %v", article.ID, article.Link, err)
		return a.store.MarkArchiveFailed(article.ID)
	}

	featuredImage := ""

	for _, ref := range result.ImageReferences {
		img, err := a.images.Download(ref.URL, article.ID)
		if err != nil {
			// Per-image failures are always swallowed: one bad image never
			// fails the whole article archive.
			log.Printf("Skipping image %s for article %d: %v", ref.URL, article.ID, err)
			continue
		}

		result.SetImageSource(ref.URL, localImageRoute+img.LocalPath)

		if featuredImage == "" {
			featuredImage = img.LocalPath
		}

		if _, err := a.store.InsertImage(&models.ArchivedImage{
			ArticleID:   article.ID,
			OriginalURL: img.OriginalURL,
			LocalPath:   img.LocalPath,
			AltText:     ref.Alt,
			FileSize:    img.FileSize,
		}); err != nil {
			log.Printf("Warning: failed to record image %s: %v", img.LocalPath, err)
		}
	}

	body, err := result.Render()
	if err != nil {
		return fmt.Errorf("failed to render archived content: %v", err)
	}

	if err := a.store.SaveArchiveResult(article.ID, body, featuredImage); err != nil {
		return fmt.Errorf("failed to save archive result: %v", err)
	}

	log.Printf("Archived article %d (%s) with %d image reference(s)", article.ID, article.Link, len(result.ImageReferences))
	return nil
}

func (a *Archiver) fetchPage(pageURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
