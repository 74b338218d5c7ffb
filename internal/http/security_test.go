package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"untrusted peer ignores forwarding", "203.0.113.7:5000", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy bad header", "192.168.1.1:5000", "garbage", "", "192.168.1.1"},
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
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"normal", "GET", "/api/expenses", "Mozilla/5.0", false},
		{"path traversal", "GET", "/static/../.env", "", true},
		{"sql in query", "GET", "/api/expenses?q=1+union+select+1", "", true},
		{"scanner", "GET", "/", "sqlmap/1.7", true},
		{"trace", "TRACE", "/", "", true},
		{"long url", "GET", "/?q=" + strings.Repeat("a", maxURLLength), "", true},
	}
	var m securityMetrics
	flagged := 0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			_, got := detectSuspiciousRequest(r, &m)
			if got != tt.want {
				t.Errorf("suspicious = %v, want %v", got, tt.want)
			}
			if got {
				flagged++
			}
		})
	}
	if m.snapshot()["suspicious_requests"] != int64(flagged) {
		t.Errorf("metrics = %v, flagged %d", m.snapshot(), flagged)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := &rateLimiter{limit: 2, now: func() time.Time { return now }, clients: map[string]*clientInfo{}, stopCleanup: make(chan struct{})}
	var m securityMetrics

	if !rl.allow("a", &m) || !rl.allow("a", &m) {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a", &m) {
		t.Fatal("third request in window should be limited")
	}
	if !rl.allow("b", &m) {
		t.Fatal("other clients are counted separately")
	}

	now = now.Add(rateLimitWindow + time.Second)
	if !rl.allow("a", &m) {
		t.Fatal("new window should reset the counter")
	}
	if m.snapshot()["rate_limit_hits"] != 1 {
		t.Errorf("rate limit hits = %d", m.snapshot()["rate_limit_hits"])
	}

	now = now.Add(staleClientCutoff + time.Minute)
	if removed := rl.cleanupStaleEntries(); removed != 2 {
		t.Errorf("removed %d stale clients, want 2", removed)
	}
}
