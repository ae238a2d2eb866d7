package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize lower-cases text, replaces punctuation with spaces, collapses
// consecutive whitespace, and drops tokens of length two or less.
//
// It is pure, total, and idempotent. The same function must be applied when
// inserting training examples and when classifying live text, otherwise the
// model sees a different feature distribution than it was trained on. An
// all-punctuation or all-short-token input normalises to the empty string,
// which callers must treat as "cannot classify".
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) > 2 {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Tokens returns the normalised word tokens of text, in order. It is the
// tokenisation used for both training and prediction.
func Tokens(text string) []string {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	return strings.Fields(norm)
}
