package domain

import (
	"strings"
	"unicode"
)

// Query represents a parsed user input
type Query struct {
	Raw        string   // Original input
	Normalized string   // Lower-cased, whitespace collapsed
	Compact    string   // Letters and digits only (for subsequence matching)
	Fragments  []string // Space-separated fragments
}

// ParseQuery parses user input into a structured query
// Examples:
//   - "Portal 2" -> normalized "portal 2", fragments ["portal", "2"]
//   - "  hl  " -> normalized "hl", fragments ["hl"]
func ParseQuery(input string) *Query {
	q := &Query{Raw: input}
	q.Fragments = splitAndClean(strings.ToLower(input))
	q.Normalized = strings.Join(q.Fragments, " ")
	q.Compact = compact(q.Normalized)
	return q
}

// Empty reports whether the query carries no text.
func (q *Query) Empty() bool {
	return q == nil || q.Normalized == ""
}

// splitAndClean splits on any whitespace and returns non-empty parts
func splitAndClean(s string) []string {
	return strings.Fields(s)
}

// compact keeps letters and digits, lower-cased
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

// nameWords splits a display name on anything that is not a letter or digit
func nameWords(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
