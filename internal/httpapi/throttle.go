package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// loginThrottle counts failed logins per client in a sliding window. A
// successful login clears the client's history.
type loginThrottle struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
	failures map[string][]time.Time
}

func newLoginThrottle(limit int, window time.Duration) *loginThrottle {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &loginThrottle{
		limit:    limit,
		window:   window,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

// Blocked reports whether key has used up its failures for the window.
func (t *loginThrottle) Blocked(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.recent(key)) >= t.limit
}

func (t *loginThrottle) Fail(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[key] = append(t.recent(key), t.now())
}

func (t *loginThrottle) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, key)
}

// recent drops expired failures for key. Callers hold t.mu.
func (t *loginThrottle) recent(key string) []time.Time {
	cutoff := t.now().Add(-t.window)
	history := t.failures[key]
	i := 0
	for i < len(history) && !history[i].After(cutoff) {
		i++
	}
	if i == len(history) {
		delete(t.failures, key)
		return nil
	}
	kept := history[i:]
	t.failures[key] = kept
	return kept
}

// clientKey is the remote host without its port.
func clientKey(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
