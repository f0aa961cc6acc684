package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoContent signals that no usable article body was found. Callers fall
// back to the feed-provided content rather than surfacing a hard error.
var ErrNoContent = errors.New("no usable content found")

// minBodyTextLength is the plain-text sanity threshold: an extracted body
// rendering to fewer characters than this is discarded as a false positive.
const minBodyTextLength = 100

// minParagraphTextLength and minParagraphCount govern the paragraph-collection
// fallback used when no body selector matches.
const (
	minParagraphTextLength = 50
	minParagraphCount      = 3
)

// Result is the cleaned output of a successful extraction. It keeps a handle
// on the extracted DOM so callers can redirect image sources and re-render.
type Result struct {
	Title           string
	BodyHTML        string
	Excerpt         string
	ImageReferences []ImageRef

	container *goquery.Selection
}

// ImageRef is one image discovered in the extracted body. URL is absolute.
type ImageRef struct {
	URL string
	Alt string
}

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
)

// Extract locates the article body inside raw HTML, cleans it and returns the
// rewritten content together with the absolute URLs of its images.
// fallbackTitle and fallbackExcerpt are used when the page itself carries no
// title or meta description.
func Extract(html, articleURL, fallbackTitle, fallbackExcerpt string) (*Result, error) {
	base, err := url.Parse(articleURL)
	if err != nil {
		return nil, fmt.Errorf("invalid article URL %q: %v", articleURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %v", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = fallbackTitle
	}

	excerpt := fallbackExcerpt
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && strings.TrimSpace(desc) != "" {
		excerpt = strings.TrimSpace(desc)
	}

	container := findContainer(doc)
	if container == nil {
		return nil, ErrNoContent
	}

	stripUnwanted(container)
	resolveLazyImages(container)
	refs := collectImages(container, base)
	absolutizeAttrs(container, base)

	// Near-empty bodies are false positives: a matched container that renders
	// to almost no text means the real article lives elsewhere on the page.
	if len(strings.TrimSpace(container.Text())) < minBodyTextLength {
		return nil, ErrNoContent
	}

	result := &Result{
		Title:           title,
		Excerpt:         excerpt,
		ImageReferences: refs,
		container:       container,
	}
	result.BodyHTML, err = result.Render()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize content: %v", err)
	}
	return result, nil
}

// SetImageSource redirects every extracted image whose src equals originalURL
// to newSrc. The change happens on the DOM, so the attribute value never needs
// to match its HTML-escaped serialized form. Render reflects it.
func (r *Result) SetImageSource(originalURL, newSrc string) {
	r.container.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, _ := img.Attr("src"); src == originalURL {
			img.SetAttr("src", newSrc)
		}
	})
}

// Render serializes the extracted container, stripping any residual script and
// style blocks that survived as text.
func (r *Result) Render() (string, error) {
	body, err := serializeContainer(r.container)
	if err != nil {
		return "", err
	}
	body = scriptBlockRe.ReplaceAllString(body, "")
	return styleBlockRe.ReplaceAllString(body, ""), nil
}

// findContainer walks the selector cascade and returns the first match. When
// nothing matches it synthesizes a container from long paragraphs.
func findContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range bodySelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}

	// Paragraph fallback: enough substantial paragraphs make an article even
	// without a recognizable container.
	paragraphs := doc.Find("p").FilterFunction(func(_ int, p *goquery.Selection) bool {
		return len(strings.TrimSpace(p.Text())) > minParagraphTextLength
	})
	if paragraphs.Length() >= minParagraphCount {
		return paragraphs
	}
	return nil
}

func stripUnwanted(container *goquery.Selection) {
	container.Find(strings.Join(strippedElements, ", ")).Remove()

	container.Find("*").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		if shouldStrip(class) || shouldStrip(id) {
			sel.Remove()
		}
	})
}

func shouldStrip(attr string) bool {
	if attr == "" {
		return false
	}
	lower := strings.ToLower(attr)
	for _, pattern := range strippedAttrPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	// "ad" alone is too short for substring matching (it would hit "header"),
	// so it is matched as a whole class/id token instead.
	for _, token := range strings.Fields(lower) {
		if token == "ad" || token == "ads" {
			return true
		}
	}
	return false
}

// resolveLazyImages promotes deferred-source attributes to src so that
// lazy-loaded images survive extraction.
func resolveLazyImages(container *goquery.Selection) {
	container.Find("img").Each(func(_ int, img *goquery.Selection) {
		for _, attr := range lazySrcAttrs {
			if val, ok := img.Attr(attr); ok && val != "" {
				img.SetAttr("src", val)
				break
			}
		}
	})
}

func collectImages(container *goquery.Selection, base *url.URL) []ImageRef {
	var refs []ImageRef
	container.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		resolved, err := base.Parse(src)
		if err != nil {
			return
		}
		// Normalize the attribute to the absolute URL so the archiver can
		// later swap it for the local copy by exact match.
		img.SetAttr("src", resolved.String())
		alt, _ := img.Attr("alt")
		refs = append(refs, ImageRef{URL: resolved.String(), Alt: alt})
	})
	return refs
}

// serializeContainer renders the chosen container to HTML. A single matched
// element serializes to its inner HTML; the synthesized paragraph fallback
// concatenates whole paragraphs.
func serializeContainer(container *goquery.Selection) (string, error) {
	if container.Length() == 1 {
		return container.Html()
	}

	var sb strings.Builder
	var serr error
	container.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			serr = err
			return false
		}
		sb.WriteString(html)
		return true
	})
	return sb.String(), serr
}

// absolutizeAttrs resolves root-relative src and href attributes against the
// article's origin so extracted links and media survive outside the page.
// Image srcs are already absolute at this point via collectImages.
func absolutizeAttrs(container *goquery.Selection, base *url.URL) {
	container.Find("[src], [href]").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range []string{"src", "href"} {
			val, ok := sel.Attr(attr)
			if !ok || !strings.HasPrefix(val, "/") || strings.HasPrefix(val, "//") {
				continue
			}
			if resolved, err := base.Parse(val); err == nil {
				sel.SetAttr(attr, resolved.String())
			}
		}
	})
}
