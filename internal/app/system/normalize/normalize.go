// Package normalize canonicalizes user input before it is validated,
// stored or used as a lookup key.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name; case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query string value; case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
