package search

import (
	"cmp"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/poiesic/newsroom/core"
)

// MatchRecord is a matched article plus the keys used to filter and sort it.
// It never leaves this package.
type MatchRecord struct {
	Article       *core.Article
	ContentLength int
	ParsedDate    time.Time
	HasDate       bool
}

func newMatchRecord(a *core.Article) MatchRecord {
	date, ok := core.ParseDate(a.PublishedDate)
	return MatchRecord{
		Article:       a,
		ContentLength: utf8.RuneCountInString(a.FullContent),
		ParsedDate:    date,
		HasDate:       ok,
	}
}

// Process filters matches by length and date and sorts them as q requests.
// The sort is stable. Articles without a parseable date sort as the oldest.
// Returns the surviving articles in order; q is assumed valid.
func Process(matches []*core.Article, q core.SearchQuery) []*core.Article {
	var (
		filterDate time.Time
		byDate     bool
	)
	if q.FilterDate != "" {
		var ok bool
		filterDate, ok = core.ParseDate(q.FilterDate)
		if !ok {
			return []*core.Article{}
		}
		byDate = true
	}

	records := make([]MatchRecord, 0, len(matches))
	for _, a := range matches {
		r := newMatchRecord(a)
		if r.ContentLength < q.MinLength || r.ContentLength > q.MaxLength {
			continue
		}
		if byDate && (!r.HasDate || !r.ParsedDate.Equal(filterDate)) {
			continue
		}
		records = append(records, r)
	}

	compare := compareLength
	if q.SortBy == core.SortByDate {
		compare = compareDate
	}
	if q.SortOrder == core.SortDesc {
		asc := compare
		compare = func(a, b MatchRecord) int { return asc(b, a) }
	}
	slices.SortStableFunc(records, compare)

	out := make([]*core.Article, len(records))
	for i, r := range records {
		out[i] = r.Article
	}
	return out
}

func compareLength(a, b MatchRecord) int {
	return cmp.Compare(a.ContentLength, b.ContentLength)
}

func compareDate(a, b MatchRecord) int {
	switch {
	case !a.HasDate && !b.HasDate:
		return 0
	case !a.HasDate:
		return -1
	case !b.HasDate:
		return 1
	}
	return a.ParsedDate.Compare(b.ParsedDate)
}
