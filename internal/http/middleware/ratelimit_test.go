package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestRateLimiterBurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(0.5, 2, clock.now)

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, wait := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 2*time.Second, wait)

	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok, "allowances are per host")

	clock.t = clock.t.Add(2 * time.Second)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok, "one token refilled after 2s at 0.5/s")
}

func TestRateLimiterSweepDropsIdleHosts(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(1, 1, clock.now)
	rl.Allow("10.0.0.1")

	clock.t = clock.t.Add(limiterIdleTTL + time.Second)
	rl.Allow("10.0.0.2")
	rl.sweep()

	require.Len(t, rl.clients, 1)
	_, kept := rl.clients["10.0.0.2"]
	assert.True(t, kept)
}

func TestClientHostStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "192.168.1.7:51234"
	assert.Equal(t, "192.168.1.7", clientHost(req))

	req.Header.Set("X-Real-Ip", "41.90.1.1")
	assert.Equal(t, "41.90.1.1", clientHost(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(0.25, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(port string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.RemoteAddr = "10.0.0.1:" + port
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusCreated, send("4000").Code)

	rec := send("4001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "a new source port shares the host allowance")
	retry := rec.Header().Get("Retry-After")
	assert.Contains(t, []string{"3", "4"}, retry)
}
