package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/newsroom/core"
)

// scrapeFileLayout is the timestamp embedded in saved scrape file names,
// e.g. articles_2024-01-02_15-04-05.json.
const scrapeFileLayout = "articles_2006-01-02_15-04-05"

// ImportOptions holds optional parameters for Import.
type ImportOptions struct {
	FetchedAt time.Time // Batch timestamp (uses current time if zero)
	Origin    string    // Recorded as the batch origin
}

// Import stores the articles of a scrape file, a JSON array of article
// objects, as a new batch and publishes it.
func (p *Pipeline) Import(ctx context.Context, r io.Reader, opts *ImportOptions) (*core.Batch, error) {
	if opts == nil {
		opts = &ImportOptions{}
	}

	articles, err := DecodeArticles(r)
	if err != nil {
		return nil, err
	}

	fetchedAt := opts.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = p.now()
	}

	batch, err := p.store(ctx, &core.Batch{FetchedAt: fetchedAt, Origin: opts.Origin}, articles)
	if err != nil {
		return nil, err
	}

	p.logger.Info("import finished", "batch", batch.Name(), "articles", batch.ArticleCount, "origin", opts.Origin)
	return batch, nil
}

// DecodeArticles reads a JSON array of articles. Null entries are dropped.
func DecodeArticles(r io.Reader) ([]*core.Article, error) {
	var decoded []*core.Article
	if err := json.NewDecoder(r).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	articles := make([]*core.Article, 0, len(decoded))
	for _, article := range decoded {
		if article != nil {
			articles = append(articles, article)
		}
	}
	return articles, nil
}

// FetchedAtFromName recovers the scrape time from a file name such as
// scrapes/articles_2024-01-02_15-04-05.json. The time is read as UTC.
func FetchedAtFromName(name string) (time.Time, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	t, err := time.ParseInLocation(scrapeFileLayout, base, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
