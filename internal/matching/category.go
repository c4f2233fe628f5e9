package matching

import (
	"fmt"
	"regexp"
	"strings"
)

// developmentVariants lists the spellings of "development" observed in
// historical category data. The misspellings are real values from old
// imports; matching must tolerate them.
var developmentVariants = []string{
	"development",
	"devlopment",
	"developement",
}

// CategoryRule is one acceptable-match pattern for a user-supplied category
// name. Rules are ordered from strictest to most lenient; the first matching
// rule wins.
type CategoryRule struct {
	Name    string
	pattern string
	expr    *regexp.Regexp
}

// Pattern returns the case-insensitive pattern source, suitable for embedding
// in a store predicate.
func (r CategoryRule) Pattern() string {
	return r.pattern
}

// Matches reports whether the candidate category satisfies this rule.
func (r CategoryRule) Matches(candidate string) bool {
	return r.expr.MatchString(candidate)
}

// CategoryRules builds the ordered acceptable-match rules for a user-supplied
// category string:
//
//  1. "exact": the normalized string itself, whole-value.
//  2. "flexible-amp": for ampersand categories, the parts joined with
//     flexible "&" spacing ("Web Design&Development", "Web Design  &
//     Development").
//  3. "word-span": first significant word through last significant word with
//     anything in between, tolerating missing middle words and the known
//     misspellings of "development".
//
// A blank category yields no rules. If lenient pattern construction produces
// nothing beyond rule 1, the exact rule alone is the result.
func CategoryRules(category string) []CategoryRule {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil
	}

	var rules []CategoryRule
	if r, ok := newRule("exact", `^\s*`+EscapePattern(category)+`\s*$`); ok {
		rules = append(rules, r)
	}

	if strings.Contains(category, "&") {
		if r, ok := newRule("flexible-amp", flexibleAmpPattern(category)); ok {
			rules = append(rules, r)
		}

		words := SignificantWords(category)
		if len(words) >= 2 {
			first := EscapePattern(words[0])
			last := wordPattern(words[len(words)-1])
			if r, ok := newRule("word-span", first+`.*`+last); ok {
				rules = append(rules, r)
			}
		}
	}

	return rules
}

// MatchesCategory reports whether a stored category value is an acceptable
// match for the user-supplied category, applying the rules in order.
func MatchesCategory(category, candidate string) bool {
	for _, rule := range CategoryRules(category) {
		if rule.Matches(candidate) {
			return true
		}
	}
	return false
}

func newRule(name, pattern string) (CategoryRule, bool) {
	expr, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		// Fall back to nothing rather than a broken rule; callers keep the
		// exact rule built from escaped text, which always compiles.
		return CategoryRule{}, false
	}
	return CategoryRule{Name: name, pattern: pattern, expr: expr}, true
}

func flexibleAmpPattern(category string) string {
	parts := strings.Split(category, "&")
	escaped := make([]string, 0, len(parts))
	for _, part := range parts {
		escaped = append(escaped, EscapePattern(strings.TrimSpace(part)))
	}
	return strings.Join(escaped, `\s*&\s*`)
}

// wordPattern returns the pattern for a single significant word, widening the
// known "development" misspellings into an alternation.
func wordPattern(word string) string {
	for _, variant := range developmentVariants {
		if word == variant {
			escaped := make([]string, len(developmentVariants))
			for i, v := range developmentVariants {
				escaped[i] = EscapePattern(v)
			}
			return fmt.Sprintf("(?:%s)", strings.Join(escaped, "|"))
		}
	}
	return EscapePattern(word)
}
