package server

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/poiesic/newsroom/core"
)

// errLengthParam marks a min_length or max_length that is not an integer.
var errLengthParam = errors.New("invalid length parameter")

// parseQuery builds a search query from request parameters.
// Absent parameters take the defaults of core.DefaultQuery. Only the length
// bounds are checked here; the searcher validates everything else.
func parseQuery(values url.Values) (core.SearchQuery, error) {
	q := core.DefaultQuery(strings.TrimSpace(values.Get("q")))

	if v := values.Get("sort_by"); values.Has("sort_by") {
		q.SortBy = core.SortBy(v)
	}
	if v := values.Get("sort_order"); values.Has("sort_order") {
		q.SortOrder = core.SortOrder(v)
	}
	q.Cluster = strings.EqualFold(values.Get("cluster"), "true")
	q.FilterDate = strings.TrimSpace(values.Get("filter_date"))

	if values.Has("min_length") {
		n, err := strconv.Atoi(strings.TrimSpace(values.Get("min_length")))
		if err != nil {
			return q, errLengthParam
		}
		q.MinLength = n
	}
	if values.Has("max_length") {
		n, err := ParseMaxLength(values.Get("max_length"))
		if err != nil {
			return q, err
		}
		q.MaxLength = n
	}
	return q, nil
}

// ParseMaxLength reads an upper length bound. "inf" and "infinity" in any
// case mean core.Unbounded.
func ParseMaxLength(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "inf") || strings.EqualFold(s, "infinity") {
		return core.Unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errLengthParam
	}
	return n, nil
}

// queryErrorMessage maps a rejected query to the message shown to clients.
func queryErrorMessage(err error) string {
	switch {
	case errors.Is(err, errLengthParam), errors.Is(err, core.ErrInvalidLength):
		return msgInvalidLength
	case errors.Is(err, core.ErrEmptyTerm):
		return msgNoTerm
	case errors.Is(err, core.ErrInvalidSortBy), errors.Is(err, core.ErrInvalidSortOrder):
		return msgInvalidSort
	case errors.Is(err, core.ErrInvalidFilterDate):
		return msgInvalidDate
	default:
		return err.Error()
	}
}
