package matching

import (
	"strings"
	"unicode"
)

// patternSpecials are the characters with special meaning in the store's
// regex-based predicate language.
const patternSpecials = `.*+?^${}()|[]\`

// stopWords are dropped when extracting significant words from category-like
// phrases.
var stopWords = map[string]bool{
	"the":  true,
	"and":  true,
	"for":  true,
	"with": true,
	"from": true,
	"or":   true,
}

// EscapePattern escapes characters with special meaning in the matching
// engine so arbitrary user or database text can be embedded in a pattern.
func EscapePattern(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r < 128 && strings.ContainsRune(patternSpecials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// ContainsFold reports whether haystack contains needle, ignoring case.
// An empty or whitespace-only needle never matches; a blank needle must not
// read as a wildcard when scoring.
func ContainsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// EitherContainsFold reports whether either string contains the other,
// ignoring case. Blank values on either side never match.
func EitherContainsFold(a, b string) bool {
	return ContainsFold(a, b) || ContainsFold(b, a)
}

// SignificantWords splits a phrase on ampersands, whitespace and hyphens and
// returns the lowercased tokens longer than two characters, with stop words
// removed. Used to build lenient patterns for category names that have
// historically been entered inconsistently.
func SignificantWords(phrase string) []string {
	tokens := strings.FieldsFunc(phrase, func(r rune) bool {
		return r == '&' || r == '-' || unicode.IsSpace(r)
	})

	var words []string
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if len(tok) <= 2 || stopWords[tok] {
			continue
		}
		words = append(words, tok)
	}
	return words
}
