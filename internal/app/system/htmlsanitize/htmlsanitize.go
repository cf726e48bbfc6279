// Package htmlsanitize strips markup from user-supplied text before it is
// stored. Names, titles and descriptions are plain text; any tags a client
// sends are removed rather than escaped.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute. bluemonday policies are safe
// for concurrent use once built.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all HTML elements removed and surrounding
// whitespace trimmed. Entities produced by the sanitizer are decoded again
// so characters like "&" and quotes are stored as typed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// ContainsMarkup reports whether sanitizing s would change it beyond
// whitespace trimming.
func ContainsMarkup(s string) bool {
	return PlainText(s) != strings.TrimSpace(s)
}
