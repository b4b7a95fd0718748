package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	limiterIdleTTL = 10 * time.Minute
	limiterSweep   = 5 * time.Minute
)

// RateLimiter hands out submission tokens per client host. Each host may
// burst up to burst submissions and then refills at rate tokens per second.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*allowance
	rate    float64
	burst   float64
	now     func() time.Time
}

type allowance struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter starts a limiter with a background sweep of idle hosts.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := newRateLimiter(rate, burst, time.Now)
	go rl.sweepLoop()
	return rl
}

func newRateLimiter(rate float64, burst int, now func() time.Time) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*allowance),
		rate:    rate,
		burst:   float64(burst),
		now:     now,
	}
}

// Allow reports whether host may submit now. When it may not, wait is how
// long until the next token is available.
func (rl *RateLimiter) Allow(host string) (ok bool, wait time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	a, seen := rl.clients[host]
	if !seen {
		a = &allowance{tokens: rl.burst}
		rl.clients[host] = a
	} else {
		a.tokens = math.Min(rl.burst, a.tokens+now.Sub(a.seen).Seconds()*rl.rate)
	}
	a.seen = now

	if a.tokens >= 1 {
		a.tokens--
		return true, 0
	}
	if rl.rate <= 0 {
		return false, limiterIdleTTL
	}
	return false, time.Duration((1 - a.tokens) / rl.rate * float64(time.Second))
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-limiterIdleTTL)
	for host, a := range rl.clients {
		if a.seen.Before(cutoff) {
			delete(rl.clients, host)
		}
	}
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweep)
	defer ticker.Stop()
	for range ticker.C {
		rl.sweep()
	}
}

// clientHost keys a request by host only, so reconnecting from a new source
// port does not reset the allowance. chi's RealIP has already rewritten
// RemoteAddr when a proxy header was present.
func clientHost(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit rejects form submissions over the limit with 429 and a
// Retry-After header in whole seconds.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.Allow(clientHost(r))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "Too many submissions. Please wait a moment and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
