// Package inputval holds the field-level error map returned to clients and
// small validators shared by the request structs of each feature.
package inputval

import (
	"encoding/json"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors maps a request field to its validation messages. It renders as
//
//	{"field": ["message", ...]}
type Errors map[string][]string

// Add appends msg to field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Any reports whether at least one error was recorded.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Required records a "This field is required." error when v is blank.
// It returns true when the value is present.
func (e Errors) Required(field, v string) bool {
	if strings.TrimSpace(v) == "" {
		e.Add(field, "This field is required.")
		return false
	}
	return true
}

// MaxLen records an error when v is longer than max characters.
func (e Errors) MaxLen(field, v string, max int) {
	if utf8.RuneCountInString(v) > max {
		e.Add(field, "Ensure this field has no more than "+strconv.Itoa(max)+" characters.")
	}
}

// IsValidEmail checks for a bare addr-spec: no display name, no spaces,
// no leading, trailing or doubled dots.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if part == "" || strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

var usernameRE = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// UsernameMaxLen is the longest accepted username.
const UsernameMaxLen = 150

// IsValidUsername accepts letters, digits and @ . + - _ up to
// UsernameMaxLen characters.
func IsValidUsername(s string) bool {
	return s != "" && utf8.RuneCountInString(s) <= UsernameMaxLen && usernameRE.MatchString(s)
}

// ParseObjectID parses a hex ObjectID, reporting false for anything else.
func ParseObjectID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// Nullable distinguishes an absent JSON field from an explicit null in
// PATCH bodies. Set is true when the key was present; Null is true when
// its value was null.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON is only invoked when the key is present.
func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// Present reports whether the field was sent with a non-null value.
func (n Nullable[T]) Present() bool {
	return n.Set && !n.Null
}
