package feed

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rssreader/internal/models"

	"github.com/mmcdole/gofeed"
)

var (
	// ErrNotAFeed is returned when the fetched document is not an RSS/Atom feed.
	// The common case is a user pasting a webpage URL instead of the feed URL.
	ErrNotAFeed = errors.New("URL does not point to an RSS or Atom feed")

	// ErrEmptyFeed is returned when a feed parses successfully but has no items.
	ErrEmptyFeed = errors.New("feed contains no items")
)

// FetchError reports a failed HTTP fetch of a feed document.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch feed %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves and validates feed documents. It is a pure fetch+parse
// component: no store writes happen here.
type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
		userAgent: userAgent,
	}
}

// Fetch downloads the document at url, validates that it looks like a feed
// before parsing, and returns the parsed feed with its ordered items.
func (f *Fetcher) Fetch(url string) (*models.ParsedFeed, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	if err := validateFeedBody(body); err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}

	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, ErrNotAFeed)
	}
	if len(parsed.Items) == 0 {
		return nil, fmt.Errorf("%s: %w", url, ErrEmptyFeed)
	}

	return convertFeed(parsed), nil
}

// validateFeedBody rejects obvious non-feed content before it reaches the
// parser: HTML documents and anything that does not start with an XML marker.
func validateFeedBody(body []byte) error {
	head := strings.TrimSpace(string(body[:min(len(body), 512)]))
	lower := strings.ToLower(head)

	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return ErrNotAFeed
	}
	if !strings.HasPrefix(head, "<") {
		return ErrNotAFeed
	}
	return nil
}

func convertFeed(parsed *gofeed.Feed) *models.ParsedFeed {
	result := &models.ParsedFeed{
		Title:       parsed.Title,
		Description: parsed.Description,
	}
	if result.Title == "" {
		result.Title = "Untitled Feed"
	}

	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}

		stub := models.ParsedItem{
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Link:        item.Link,
		}
		if stub.Title == "" {
			stub.Title = "Untitled Article"
		}
		// Prefer the full encoded content; fall back to the description snippet.
		if stub.Content == "" {
			stub.Content = item.Description
		}
		if item.PublishedParsed != nil {
			stub.Published = item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			stub.Published = item.UpdatedParsed
		}

		result.Items = append(result.Items, stub)
	}

	return result
}
