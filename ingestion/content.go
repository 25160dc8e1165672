package ingestion

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/poiesic/newsroom/core"
)

const (
	// BrowserUserAgent is sent with every outgoing request. Several news sites
	// refuse clients that do not look like a browser.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultContentTimeout bounds a single article page request.
	DefaultContentTimeout = 10 * time.Second

	// DefaultContentLimit is the maximum number of characters kept from a page.
	DefaultContentLimit = 5000

	// UnavailableContent replaces the content of pages that do not answer 200.
	UnavailableContent = "Unable to fetch full content"

	extractionErrorPrefix = "Error extracting content: "
)

// ContentExtractor produces the full text of an article page.
// It never fails: problems are reported in the returned text.
type ContentExtractor interface {
	Extract(ctx context.Context, link string) string
}

// HTMLExtractor downloads article pages and extracts their main text with goquery.
type HTMLExtractor struct {
	client *http.Client
	limit  int
}

var _ ContentExtractor = (*HTMLExtractor)(nil)

// ExtractorOption configures an HTMLExtractor.
type ExtractorOption func(*HTMLExtractor)

// WithHTTPClient sets the client used to fetch pages.
func WithHTTPClient(client *http.Client) ExtractorOption {
	return func(e *HTMLExtractor) {
		if client != nil {
			e.client = client
		}
	}
}

// WithContentLimit sets the maximum number of characters kept. Zero keeps everything.
func WithContentLimit(limit int) ExtractorOption {
	return func(e *HTMLExtractor) {
		e.limit = limit
	}
}

// NewHTMLExtractor creates an extractor with a 10 second timeout and a 5000 character limit.
func NewHTMLExtractor(opts ...ExtractorOption) *HTMLExtractor {
	e := &HTMLExtractor{
		client: &http.Client{Timeout: DefaultContentTimeout},
		limit:  DefaultContentLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches link and returns its main text.
func (e *HTMLExtractor) Extract(ctx context.Context, link string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return extractionErrorPrefix + err.Error()
	}
	req.Header.Set("User-Agent", BrowserUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return extractionErrorPrefix + err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnavailableContent
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return extractionErrorPrefix + err.Error()
	}
	return ExtractText(doc, e.limit)
}

// contentStrategies locate the main text of a page, most specific first.
var contentStrategies = []func(*goquery.Document) *goquery.Selection{
	func(d *goquery.Document) *goquery.Selection { return d.Find("article") },
	func(d *goquery.Document) *goquery.Selection { return findByAttr(d, "class", "content") },
	func(d *goquery.Document) *goquery.Selection { return findByAttr(d, "class", "body") },
	func(d *goquery.Document) *goquery.Selection { return findByAttr(d, "id", "content") },
	func(d *goquery.Document) *goquery.Selection { return d.Find("body") },
}

// ExtractText returns the text of the first element found by the content
// strategies, whitespace-collapsed and cut to limit characters.
func ExtractText(doc *goquery.Document, limit int) string {
	for _, strategy := range contentStrategies {
		sel := strategy(doc)
		if sel.Length() == 0 {
			continue
		}
		return truncate(selectionText(sel.First()), limit)
	}
	return core.NoContent
}

// findByAttr matches divs whose attr contains substr, ignoring case.
func findByAttr(doc *goquery.Document, attr, substr string) *goquery.Selection {
	return doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		value, ok := s.Attr(attr)
		return ok && strings.Contains(strings.ToLower(value), substr)
	})
}

// selectionText joins the text nodes below sel with single spaces.
// Script and style contents are skipped.
func selectionText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			switch goquery.NodeName(child) {
			case "#text":
				for _, word := range strings.Fields(child.Text()) {
					if b.Len() > 0 {
						b.WriteByte(' ')
					}
					b.WriteString(word)
				}
			case "script", "style", "noscript", "#comment":
			default:
				walk(child)
			}
		})
	}
	walk(sel)
	return b.String()
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
