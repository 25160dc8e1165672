package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/newsroom/core"
)

// isWordRune reports whether r counts as part of a word for boundary checks.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// searchableText joins the fields a term is matched against.
func searchableText(a *core.Article) string {
	return strings.Join([]string{a.Title, a.Summary, a.FullContent, a.Author}, " ")
}

// Matches reports whether term occurs in the article as a whole word,
// ignoring case. The term is matched literally.
//
// An edge of the term that is a word character must not touch another word
// character in the text. An edge that is not a word character imposes no
// constraint, so a term made only of punctuation matches as a plain substring.
func Matches(term string, a *core.Article) bool {
	return containsWholeWord(strings.ToLower(searchableText(a)), strings.ToLower(term))
}

// containsWholeWord expects text and term to be lowercased already.
func containsWholeWord(text, term string) bool {
	if term == "" {
		return false
	}

	first, firstSize := utf8.DecodeRuneInString(term)
	last, _ := utf8.DecodeLastRuneInString(term)
	anchorStart := isWordRune(first)
	anchorEnd := isWordRune(last)

	for offset := 0; offset <= len(text)-len(term); {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(term)

		ok := true
		if anchorStart && start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			ok = !isWordRune(prev)
		}
		if ok && anchorEnd && end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			ok = !isWordRune(next)
		}
		if ok {
			return true
		}
		offset = start + firstSize
	}
	return false
}
