package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    1,
		burst:   3,
		now:     time.Now,
	}

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("request past burst should be blocked")
	}
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	now := time.Now()
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    1,
		burst:   1,
		now:     func() time.Time { return now },
	}

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("first request should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("second immediate request should be blocked")
	}

	now = now.Add(2 * time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Fatalf("request after refill should be allowed")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    1,
		burst:   1,
		now:     time.Now,
	}

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("first client should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("second client should have its own bucket")
	}
}

func TestRateLimitMiddlewareRejectsWith429(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw := RateLimit(1, 1)
	wrapped := mw(handler)

	req := httptest.NewRequest(http.MethodPost, "/chat/message", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.9")

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
