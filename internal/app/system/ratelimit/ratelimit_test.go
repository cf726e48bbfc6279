package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowsBurstThenDenies(t *testing.T) {
	l := New(3)

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("request %d denied", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("4th request should be denied")
	}
	if !l.Allow("other") {
		t.Error("independent key should be allowed")
	}
}

func TestLimiter_Refills(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2)
	l.now = func() time.Time { return now }

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected denial after burst")
	}

	now = now.Add(30 * time.Second)
	if !l.Allow("k") {
		t.Error("expected one token after 30s at 2/min")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected denial")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("expected allow after Reset")
	}
}

func TestLimiter_PrunesIdleEntries(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(5)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	now = now.Add(11 * time.Minute)
	l.Allow("c")

	if got := l.Len(); got != 1 {
		t.Errorf("tracked keys: got %d, want 1", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"remote addr", "", "", "10.0.0.1:5555", "10.0.0.1"},
		{"x-forwarded-for first hop", "1.2.3.4, 10.0.0.1", "", "10.0.0.1:5555", "1.2.3.4"},
		{"x-real-ip", "", "5.6.7.8", "10.0.0.1:5555", "5.6.7.8"},
		{"remote without port", "", "", "10.0.0.9", "10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/auth/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiter(100, 2)
	r := httptest.NewRequest("POST", "/auth/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Mario"); !ok {
			t.Fatalf("attempt %d denied", i+1)
		}
	}
	ok, reason := ll.Check(r, " mario ")
	if ok {
		t.Fatal("3rd attempt for same credential should be denied")
	}
	if reason == "" {
		t.Error("expected a reason")
	}

	ll.ResetCredential("MARIO")
	if ok, _ := ll.Check(r, "mario"); !ok {
		t.Error("expected allow after ResetCredential")
	}
}
