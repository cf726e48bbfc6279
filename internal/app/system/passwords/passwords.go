// Package passwords hashes credentials with bcrypt and enforces the
// registration password policy.
package passwords

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest accepted password.
const MinLength = 8

// maxBytes is bcrypt's input limit.
const maxBytes = 72

// Hash returns a bcrypt hash of pw at the default cost.
func Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether pw matches hash. An empty hash never matches.
func Matches(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// common holds frequently used passwords that are rejected outright.
var common = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		password password1 password123 passw0rd 12345678 123456789 1234567890
		qwerty qwerty123 qwertyuiop 11111111 00000000 abc12345 abcd1234
		iloveyou letmein welcome welcome1 admin123 administrator trustno1
		sunshine princess football baseball dragon monkey master superman
		starwars whatever freedom shadow michael computer internet changeme
		1q2w3e4r 1qaz2wsx zaq12wsx asdfghjkl azerty123 password! secret123
	`) {
		common[p] = struct{}{}
	}
}

// Validate returns the policy violations for pw, or nil when it is
// acceptable. username and email are used for the similarity check.
func Validate(pw, username, email string) []string {
	var problems []string

	if len(pw) < MinLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if len(pw) > maxBytes {
		problems = append(problems, "This password is too long.")
	}
	if pw != "" && isAllDigits(pw) {
		problems = append(problems, "This password is entirely numeric.")
	}
	if _, ok := common[strings.ToLower(pw)]; ok {
		problems = append(problems, "This password is too common.")
	}
	if field := similarTo(pw, username, email); field != "" {
		problems = append(problems, "The password is too similar to the "+field+".")
	}
	return problems
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similarTo names the attribute pw resembles: one contains the other,
// ignoring case, for values of at least 3 characters.
func similarTo(pw, username, email string) string {
	p := strings.ToLower(pw)
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	attrs := []struct{ name, value string }{
		{"username", username},
		{"email address", local},
	}
	for _, a := range attrs {
		v := strings.ToLower(strings.TrimSpace(a.value))
		if len(v) < 3 || len(p) < 3 {
			continue
		}
		if strings.Contains(p, v) || strings.Contains(v, p) {
			return a.name
		}
	}
	return ""
}
