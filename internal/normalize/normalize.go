// Package normalize prepares raw feedback text for vectorization.
//
// The same function runs at training and at prediction time; any
// divergence between the two silently degrades prediction quality, so
// the transform is deterministic, pure, and idempotent:
//
//	normalize.Text(normalize.Text(s)) == normalize.Text(s)
//
// Safe for concurrent use by multiple goroutines.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// URL-ish tokens: anything starting with http(s) or www, up to whitespace.
	urlRe = regexp.MustCompile(`http\S+|www\S+`)

	// @mentions are dropped whole. Hashtags keep their word: only the
	// marker is removed, by the non-letter strip below.
	mentionRe = regexp.MustCompile(`@\w+`)

	nonLetterRe  = regexp.MustCompile(`[^a-zA-Z\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Text normalizes one feedback value. The steps run in fixed order:
// lowercase, strip URLs, strip @mentions, strip every rune that is not
// an ASCII letter or whitespace (digits, punctuation, emoji, hashtag
// markers), collapse whitespace runs, trim. Empty input yields "".
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = urlRe.ReplaceAllString(s, "")
	s = mentionRe.ReplaceAllString(s, "")
	s = nonLetterRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
