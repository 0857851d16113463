package mw

import (
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/utils"
)

// RateLimitConfig sizes a per-client token bucket.
type RateLimitConfig struct {
	Burst           int
	RefillPerMinute int
	MaxEntries      int           // clients tracked at once, 0 = unbounded
	IdleTTL         time.Duration // a client idle this long forgets its bucket
	TrustProxy      bool          // resolve the client IP from proxy headers
}

type bucket struct {
	tokens   float64
	refilled time.Time
}

// limiter is a token bucket per client address. Launch and reload
// requests are rare enough that one mutex covers every bucket.
type limiter struct {
	burst    float64
	perSec   float64
	maxKeys  int
	idleTTL  time.Duration
	now      func() time.Time
	mu       sync.Mutex
	buckets  map[netip.Addr]*bucket
	nextScan time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillPerMinute < 1 {
		cfg.RefillPerMinute = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	return &limiter{
		burst:   float64(cfg.Burst),
		perSec:  float64(cfg.RefillPerMinute) / 60,
		maxKeys: cfg.MaxEntries,
		idleTTL: cfg.IdleTTL,
		now:     time.Now,
		buckets: make(map[netip.Addr]*bucket),
	}
}

// take spends one token of addr. When none is left it returns the wait
// until the next token.
func (l *limiter) take(addr netip.Addr) (remaining int, wait time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	b, ok := l.buckets[addr]
	if !ok {
		b = &bucket{tokens: l.burst, refilled: now}
		l.buckets[addr] = b
	}

	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.burst, b.tokens+elapsed*l.perSec)
		b.refilled = now
	}

	if b.tokens < 1 {
		return 0, time.Duration((1 - b.tokens) / l.perSec * float64(time.Second))
	}
	b.tokens--
	return int(b.tokens), 0
}

// evict drops idle buckets once per idleTTL, or immediately when the
// table is full. A full bucket that idled out behaves like a new one.
func (l *limiter) evict(now time.Time) {
	full := l.maxKeys > 0 && len(l.buckets) >= l.maxKeys
	if !full && now.Before(l.nextScan) {
		return
	}
	for addr, b := range l.buckets {
		if now.Sub(b.refilled) >= l.idleTTL {
			delete(l.buckets, addr)
		}
	}
	l.nextScan = now.Add(l.idleTTL)
}

// RateLimit rejects clients that exhaust their bucket with 429 and a
// Retry-After header.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return rateLimit(cfg, newLimiter(cfg))
}

func rateLimit(cfg RateLimitConfig, l *limiter) func(http.Handler) http.Handler {
	limit := strconv.Itoa(int(l.burst))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, wait := l.take(utils.ClientIP(r, cfg.TrustProxy))

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
