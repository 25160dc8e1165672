package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/reembed"
)

// PublishedLayout is the format of published dates taken from parsed feed items.
const PublishedLayout = "2006-01-02 15:04:05"

// Feed is an RSS or Atom feed to ingest.
type Feed struct {
	Name string
	URL  string
}

// Fetcher retrieves the articles currently listed in a feed.
// FullContent is left empty; it is filled by a ContentExtractor.
type Fetcher interface {
	Fetch(ctx context.Context, feed Feed) ([]*core.Article, error)
}

// FeedFetcher fetches feeds over HTTP and parses them with gofeed.
type FeedFetcher struct {
	parser *gofeed.Parser
}

var _ Fetcher = (*FeedFetcher)(nil)

// NewFeedFetcher creates a fetcher. A nil client uses gofeed's default.
func NewFeedFetcher(client *http.Client) *FeedFetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = BrowserUserAgent
	if client != nil {
		parser.Client = client
	}
	return &FeedFetcher{parser: parser}
}

// Fetch downloads and parses feed. Client errors and unparseable documents
// are marked permanent so they are not retried.
func (f *FeedFetcher) Fetch(ctx context.Context, feed Feed) ([]*core.Article, error) {
	parsed, err := f.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrFeedUnavailable, feed.URL, err)
		if isPermanentFeedError(err) {
			return nil, reembed.Permanent(err)
		}
		return nil, err
	}
	return ArticlesFromFeed(parsed), nil
}

// isPermanentFeedError reports whether fetching again cannot help.
// Timeouts and rate limiting are worth another attempt.
func isPermanentFeedError(err error) bool {
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return true
	}
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode
		return code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests
	}
	return false
}

// ArticlesFromFeed maps the items of a parsed feed to articles.
// Fields the feed does not provide are left empty.
func ArticlesFromFeed(feed *gofeed.Feed) []*core.Article {
	articles := make([]*core.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		articles = append(articles, &core.Article{
			Title:         strings.TrimSpace(item.Title),
			Link:          strings.TrimSpace(item.Link),
			Summary:       item.Description,
			Author:        itemAuthor(item),
			Source:        strings.TrimSpace(feed.Title),
			PublishedDate: itemPublished(item),
			ImageURL:      itemImage(item),
		})
	}
	return articles
}

// itemAuthor prefers the author name, then the author email, then the Dublin Core creator.
func itemAuthor(item *gofeed.Item) string {
	for _, person := range item.Authors {
		if person == nil {
			continue
		}
		if person.Name != "" {
			return person.Name
		}
		if person.Email != "" {
			return person.Email
		}
	}
	if dc := item.DublinCoreExt; dc != nil {
		for _, creator := range dc.Creator {
			if creator != "" {
				return creator
			}
		}
	}
	return ""
}

func itemPublished(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(PublishedLayout)
	case item.Published != "":
		return item.Published
	default:
		return item.Updated
	}
}

// itemImage looks at media:content, media:thumbnail, the item image and
// image enclosures, in that order.
func itemImage(item *gofeed.Item) string {
	for _, name := range []string{"content", "thumbnail"} {
		for _, media := range item.Extensions["media"][name] {
			if url := media.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	return ""
}
