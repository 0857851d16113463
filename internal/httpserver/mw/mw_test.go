package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{"localhost", "localhost", true},
		{"localhost:8080", "localhost", true},
		{"localhost:8080", "localhost:8080", true},
		{"localhost:9090", "localhost:8080", false},
		{"deck.lan:8080", "*.lan", true},
		{"lan", "*.lan", false},
		{"attacker.example", "localhost", false},
		{"[::1]:8080", "[::1]:8080", true},
	}

	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func serve(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/launch", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit(t *testing.T) {
	cfg := RateLimitConfig{Burst: 2, RefillPerMinute: 60}
	l := newLimiter(cfg)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	h := rateLimit(cfg, l)(ok)

	for i := 0; i < 2; i++ {
		if rec := serve(h, "10.0.0.1:4000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := serve(h, "10.0.0.1:4001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 once the burst is spent", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}

	if rec := serve(h, "10.0.0.2:4000"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := serve(h, "10.0.0.1:4000"); rec.Code != http.StatusOK {
		t.Errorf("status after refill = %d", rec.Code)
	}
}

func TestRateLimitEvictsIdleClients(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerMinute: 1, MaxEntries: 2, IdleTTL: time.Minute})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	h := rateLimit(RateLimitConfig{}, l)(ok)

	serve(h, "10.0.0.1:1")
	serve(h, "10.0.0.2:1")
	now = now.Add(2 * time.Minute)
	serve(h, "10.0.0.3:1")

	if n := len(l.buckets); n != 1 {
		t.Errorf("tracked clients = %d, want 1 after eviction", n)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"192.168.1.0/24", "::1", "not-an-ip"}, false, logger.NewNop())(ok)

	tests := []struct {
		remote string
		want   int
	}{
		{"192.168.1.20:5000", http.StatusOK},
		{"[::1]:5000", http.StatusOK},
		{"[::ffff:192.168.1.7]:5000", http.StatusOK},
		{"192.168.2.1:5000", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		if rec := serve(h, tt.remote); rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.remote, rec.Code, tt.want)
		}
	}
}

func TestAllowOnlyCIDRSTrustProxy(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"203.0.113.0/24"}, true, logger.NewNop())(ok)

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req.RemoteAddr = "127.0.0.1:9000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want the forwarded address to be used", rec.Code)
	}
}

func TestEmptyFiltersPassThrough(t *testing.T) {
	h := EnforceHost(nil, logger.NewNop())(AllowOnlyCIDRS(nil, false, logger.NewNop())(ok))
	if rec := serve(h, "198.51.100.1:1"); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
