package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, rate float64, burst int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewLimiter(rate, burst)
	limiter.now = clock.now
	t.Cleanup(limiter.Stop)
	return limiter, clock
}

func TestNewLimiterAllowsFirstRequest(t *testing.T) {
	limiter, _ := newTestLimiter(t, 10, 5)

	if !limiter.allow("192.168.1.1") {
		t.Error("expected first request from new client to be allowed")
	}
}

func TestRequestsExceedingBurstAreDenied(t *testing.T) {
	burst := 3
	limiter, _ := newTestLimiter(t, 1, burst)

	for i := 0; i < burst; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Errorf("request %d within burst of %d should be allowed", i+1, burst)
		}
	}

	if limiter.allow("192.168.1.1") {
		t.Error("request exceeding burst should be denied")
	}
}

func TestTokensReplenishOverTime(t *testing.T) {
	limiter, clock := newTestLimiter(t, 10, 2)

	limiter.allow("192.168.1.1")
	limiter.allow("192.168.1.1")
	if limiter.allow("192.168.1.1") {
		t.Error("expected request to be denied after exhausting burst")
	}

	clock.advance(150 * time.Millisecond)

	if !limiter.allow("192.168.1.1") {
		t.Error("expected request to be allowed after token replenishment")
	}
}

func TestTokensDoNotExceedBurst(t *testing.T) {
	burst := 3
	limiter, clock := newTestLimiter(t, 100, burst)

	limiter.allow("192.168.1.1")
	clock.advance(time.Minute)

	allowed := 0
	for i := 0; i < burst+2; i++ {
		if limiter.allow("192.168.1.1") {
			allowed++
		}
	}

	if allowed != burst {
		t.Errorf("expected %d requests allowed, got %d", burst, allowed)
	}
}

func TestDifferentClientsHaveIndependentLimits(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 1)

	limiter.allow("10.0.0.1")
	if limiter.allow("10.0.0.1") {
		t.Error("expected second request from first client to be denied")
	}
	if !limiter.allow("10.0.0.2") {
		t.Error("expected first request from second client to be allowed")
	}
}

func TestCleanupDropsIdleVisitors(t *testing.T) {
	limiter, clock := newTestLimiter(t, 1, 1)

	limiter.allow("10.0.0.1")
	clock.advance(idleTimeout / 2)
	limiter.allow("10.0.0.2")
	clock.advance(idleTimeout/2 + time.Second)

	limiter.cleanup()

	if _, ok := limiter.visitors["10.0.0.1"]; ok {
		t.Error("expected idle visitor to be removed")
	}
	if _, ok := limiter.visitors["10.0.0.2"]; !ok {
		t.Error("expected recent visitor to be kept")
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr strips port", "192.168.1.1:12345", "", "192.168.1.1"},
		{"ipv6 remote addr", "[::1]:8080", "", "::1"},
		{"remote addr without port", "192.168.1.1", "", "192.168.1.1"},
		{"forwarded single", "10.0.0.1:1", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain uses first", "10.0.0.1:1", "203.0.113.7, 10.0.0.2", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientKey(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMiddlewareReturns429WhenRateLimited(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 1)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "192.168.1.1:12345"
	firstRecorder := httptest.NewRecorder()
	handler.ServeHTTP(firstRecorder, first)

	if firstRecorder.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", firstRecorder.Code)
	}
	if firstRecorder.Body.String() != "ok" {
		t.Errorf("expected body ok, got %s", firstRecorder.Body.String())
	}

	// Different source port, same client.
	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.RemoteAddr = "192.168.1.1:23456"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, second)

	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Retry-After"); got != "10" {
		t.Errorf("expected Retry-After=10, got %s", got)
	}
	if got := recorder.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", got)
	}
	if !strings.Contains(recorder.Body.String(), "too many requests") {
		t.Errorf("expected error body, got %s", recorder.Body.String())
	}
}
