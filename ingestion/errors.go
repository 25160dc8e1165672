package ingestion

import "errors"

var (
	// ErrArticleRepositoryRequired is returned when an article repository is not provided.
	ErrArticleRepositoryRequired = errors.New("article repository required")

	// ErrPipelineRequired is returned when a scheduler is built without a pipeline.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrNoFeeds is returned when Run is called on a pipeline without feeds.
	ErrNoFeeds = errors.New("no feeds configured")

	// ErrFeedUnavailable wraps failures to download or parse a feed.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrAllFeedsFailed is returned when no feed could be fetched. No batch is written.
	ErrAllFeedsFailed = errors.New("every feed failed")

	// ErrInvalidImport is returned when an import file is not a JSON array of articles.
	ErrInvalidImport = errors.New("invalid article import")
)
