// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	cleanup  time.Duration
	stop     chan struct{}
	once     sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter that allows limit requests per key every duration.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || time.Now().After(w.expiresAt) {
		return l.limit
	}
	if remaining := l.limit - w.count; remaining > 0 {
		return remaining
	}
	return 0
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Close stops the background cleanup goroutine.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request, preferring the first
// X-Forwarded-For entry, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// EmailLimiter guards an email-keyed endpoint (login, registration codes)
// with one limit per client IP and a tighter one per email address.
type EmailLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
	ipMsg        string
	emailMsg     string
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per email per 5 minutes.
func NewLoginLimiter() *EmailLimiter {
	return &EmailLimiter{
		ipLimiter:    New(10, time.Minute),
		emailLimiter: New(5, 5*time.Minute),
		ipMsg:        "Too many login attempts. Please wait a minute before trying again.",
		emailMsg:     "Too many login attempts for this account. Please wait a few minutes.",
	}
}

// NewCodeLimiter allows 5 code requests per IP per 10 minutes and 3 per email per 10 minutes.
func NewCodeLimiter() *EmailLimiter {
	return &EmailLimiter{
		ipLimiter:    New(5, 10*time.Minute),
		emailLimiter: New(3, 10*time.Minute),
		ipMsg:        "Too many verification requests. Please try again later.",
		emailMsg:     "Too many verification codes requested for this email. Please try again later.",
	}
}

// NewEmailLimiter builds a limiter with custom limits.
func NewEmailLimiter(ipLimit int, ipDuration time.Duration, emailLimit int, emailDuration time.Duration) *EmailLimiter {
	return &EmailLimiter{
		ipLimiter:    New(ipLimit, ipDuration),
		emailLimiter: New(emailLimit, emailDuration),
		ipMsg:        "Too many requests. Please try again later.",
		emailMsg:     "Too many requests for this email. Please try again later.",
	}
}

// Check records an attempt and returns (allowed, reason).
func (el *EmailLimiter) Check(r *http.Request, email string) (bool, string) {
	if !el.ipLimiter.Allow(ClientIP(r)) {
		return false, el.ipMsg
	}
	if key := normalizeEmail(email); key != "" {
		if !el.emailLimiter.Allow(key) {
			return false, el.emailMsg
		}
	}
	return true, ""
}

// ResetEmail clears the per-email window, e.g. after a successful login.
func (el *EmailLimiter) ResetEmail(email string) {
	if key := normalizeEmail(email); key != "" {
		el.emailLimiter.Reset(key)
	}
}

// Close stops both limiters.
func (el *EmailLimiter) Close() {
	el.ipLimiter.Close()
	el.emailLimiter.Close()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
