package core

import (
	"strings"
	"time"
)

// dateLayouts is the ordered list of formats tried by ParseDate.
// The date-only layouts come first; the timestamp layouts cover what feeds
// and the scraper actually write into published_date.
var dateLayouts = []string{
	"2006-01-02",      // YYYY-MM-DD
	"2/1/2006",        // DD/MM/YYYY
	"1/2/2006",        // MM/DD/YYYY
	"January 2, 2006", // Month DD, YYYY
	"2 January 2006",  // DD Month YYYY
	"2006 January 2",  // YYYY Month DD
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate makes a best-effort attempt to read a calendar date from s.
// Layouts are tried in order and the first success wins. The result is
// truncated to midnight UTC of that date; ok is false when nothing matched.
func ParseDate(s string) (date time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
