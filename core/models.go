package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Vector is an embedding as stored in the vector cache.
type Vector []float32

// Placeholders stored in place of fields the upstream feed did not provide.
const (
	NoTitle         = "No title available"
	NoLink          = "No link available"
	NoSummary       = "No summary available"
	NoContent       = "No content could be extracted"
	UnknownAuthor   = "Unknown author"
	UnknownSource   = "Unknown Source"
	NoPublishedDate = "No published date available"
	NoImage         = "No image available"
)

// Article is a single news item captured during an ingestion batch.
// Articles are immutable once stored; every field holds either the upstream
// value or its placeholder, never an empty string.
type Article struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Summary       string `json:"summary"`
	FullContent   string `json:"full_content"`
	Author        string `json:"author"`
	Source        string `json:"source"`
	PublishedDate string `json:"published_date"`
	ImageURL      string `json:"url_to_image"`
}

// WithDefaults returns a copy of the article with every empty field replaced
// by its placeholder. Ingestion applies this exactly once per article.
func (a Article) WithDefaults() Article {
	fill := func(v *string, placeholder string) {
		if *v == "" {
			*v = placeholder
		}
	}
	fill(&a.Title, NoTitle)
	fill(&a.Link, NoLink)
	fill(&a.Summary, NoSummary)
	fill(&a.FullContent, NoContent)
	fill(&a.Author, UnknownAuthor)
	fill(&a.Source, UnknownSource)
	fill(&a.PublishedDate, NoPublishedDate)
	fill(&a.ImageURL, NoImage)
	return a
}

// ID returns the content-based identifier of the article, derived from its link.
func (a *Article) ID() ID {
	return IDFromContent(a.Link)
}

// EmbeddingText is the text handed to the embedder when clustering.
func (a *Article) EmbeddingText() string {
	return a.Title + " " + a.Summary
}

// Batch describes one completed ingestion run.
type Batch struct {
	Id           ID
	FetchedAt    time.Time // When the feeds were scraped
	ArticleCount int
	Origin       string // Feed list or import file the batch came from
}

// Name returns the display name of the batch, e.g. "articles_2024-01-02_15-04-05".
func (b *Batch) Name() string {
	return "articles_" + b.FetchedAt.UTC().Format("2006-01-02_15-04-05")
}
