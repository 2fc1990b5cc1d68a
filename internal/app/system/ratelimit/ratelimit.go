// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/normalize"
)

// Limiter counts hits per key inside a fixed window. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New returns a limiter allowing limit hits per key every period. A
// background sweep removes expired keys until Stop is called.
func New(limit int, period time.Duration) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.period)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining is the number of hits key may still make in its window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || time.Now().After(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
}

// Stop ends the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(2 * l.period)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are
// ignored here; when the server runs behind a trusted proxy, RealIP
// middleware has already rewritten RemoteAddr from them.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginLimiter throttles login attempts both per client IP and per account
// email.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows ipLimit attempts per IP per minute and emailLimit
// attempts per email per five minutes. Non-positive limits fall back to 10
// and 5.
func NewLoginLimiter(ipLimit, emailLimit int) *LoginLimiter {
	if ipLimit <= 0 {
		ipLimit = 10
	}
	if emailLimit <= 0 {
		emailLimit = 5
	}
	return &LoginLimiter{
		byIP:    New(ipLimit, time.Minute),
		byEmail: New(emailLimit, 5*time.Minute),
	}
}

// Check records an attempt. When it is refused, reason is a message safe to
// show the client.
func (ll *LoginLimiter) Check(r *http.Request, email string) (ok bool, reason string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := normalize.Email(email); key != "" && !ll.byEmail.Allow(key) {
		return false, "Too many login attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetEmail clears the per-account counter after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := normalize.Email(email); key != "" {
		ll.byEmail.Reset(key)
	}
}

// Stop ends both sweeps.
func (ll *LoginLimiter) Stop() {
	ll.byIP.Stop()
	ll.byEmail.Stop()
}
