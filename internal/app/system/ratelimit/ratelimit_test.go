package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndRemaining(t *testing.T) {
	l := New(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("fourth attempt should be limited")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if got := l.Remaining("other"); got != 3 {
		t.Errorf("Remaining(other) = %d, want 3", got)
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("expected allow after Reset")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, 20*time.Millisecond)
	defer l.Close()

	if !l.Allow("k") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second attempt should be limited")
	}
	time.Sleep(40 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("expected allow after window expired")
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
		{"forwarded list", "203.0.113.7, 10.0.0.1", "", "127.0.0.1:5000", "203.0.113.7"},
		{"real ip", "", " 192.168.1.9 ", "127.0.0.1:5000", "192.168.1.9"},
		{"remote with port", "", "", "10.0.0.5:1234", "10.0.0.5"},
		{"remote without port", "", "", "10.0.0.6", "10.0.0.6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmailLimiter_PerEmail(t *testing.T) {
	el := NewEmailLimiter(100, time.Minute, 2, time.Minute)
	defer el.Close()
	r := httptest.NewRequest("POST", "/", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := el.Check(r, "Leader@Example.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	ok, reason := el.Check(r, " leader@example.com ")
	if ok {
		t.Fatal("third attempt for the same email should be limited")
	}
	if reason == "" {
		t.Error("expected a reason when limited")
	}
	if ok, _ := el.Check(r, "someone@example.com"); !ok {
		t.Error("a different email should not be limited")
	}

	el.ResetEmail("LEADER@example.com")
	if ok, _ := el.Check(r, "leader@example.com"); !ok {
		t.Error("expected allow after ResetEmail")
	}
}

func TestEmailLimiter_PerIP(t *testing.T) {
	el := NewEmailLimiter(1, time.Minute, 100, time.Minute)
	defer el.Close()
	r := httptest.NewRequest("POST", "/", nil)

	if ok, _ := el.Check(r, "a@example.com"); !ok {
		t.Fatal("first attempt should be allowed")
	}
	if ok, _ := el.Check(r, "b@example.com"); ok {
		t.Error("second attempt from the same IP should be limited")
	}
}
