package inputval

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name+tag@example.com", true},
		{"user@sub.example.co.uk", true},
		{"admin@localhost", true},

		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{".user@example.com", false},
		{"user.@example.com", false},
		{"user..name@example.com", false},
		{"user@.example.com", false},
		{"user@example..com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"mario", true},
		{"mario.rossi", true},
		{"m+r@x_y-z", true},
		{"Owner1", true},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
		{strings.Repeat("a", UsernameMaxLen), true},
		{strings.Repeat("a", UsernameMaxLen+1), false},
	}
	for _, tt := range tests {
		if got := IsValidUsername(tt.in); got != tt.want {
			t.Errorf("IsValidUsername(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestErrors(t *testing.T) {
	e := Errors{}
	if e.Any() {
		t.Fatal("new Errors should be empty")
	}

	e.Required("name", "  ")
	e.MaxLen("title", strings.Repeat("x", 201), 200)
	e.MaxLen("ok", "short", 200)

	if !e.Has("name") || !e.Has("title") || e.Has("ok") {
		t.Errorf("unexpected errors: %v", e)
	}
	if got := e["title"][0]; got != "Ensure this field has no more than 200 characters." {
		t.Errorf("got %q", got)
	}
}

func TestParseObjectID(t *testing.T) {
	if _, ok := ParseObjectID("64b7f0c2a1b2c3d4e5f60718"); !ok {
		t.Error("valid hex rejected")
	}
	for _, s := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, ok := ParseObjectID(s); ok {
			t.Errorf("%q accepted", s)
		}
	}
}

func TestNullable(t *testing.T) {
	type body struct {
		Due Nullable[time.Time] `json:"due_date"`
	}

	tests := []struct {
		name    string
		json    string
		set     bool
		null    bool
		present bool
	}{
		{"absent", `{}`, false, false, false},
		{"null", `{"due_date":null}`, true, true, false},
		{"value", `{"due_date":"2025-01-02T03:04:05Z"}`, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b body
			if err := json.Unmarshal([]byte(tt.json), &b); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if b.Due.Set != tt.set || b.Due.Null != tt.null || b.Due.Present() != tt.present {
				t.Errorf("got %+v (present=%v), want set=%v null=%v present=%v",
					b.Due, b.Due.Present(), tt.set, tt.null, tt.present)
			}
		})
	}
}
