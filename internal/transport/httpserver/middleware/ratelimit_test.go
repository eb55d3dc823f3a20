package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitPerClient(t *testing.T) {
	limiter := NewRateLimit(1, 2)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := call("10.0.0.1:1234"); code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, code)
		}
	}
	if code := call("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once burst is spent, got %d", code)
	}
	if code := call("10.0.0.2:1234"); code != http.StatusNoContent {
		t.Fatalf("other clients must not be throttled, got %d", code)
	}

	now = now.Add(time.Minute)
	if code := call("10.0.0.1:1234"); code != http.StatusNoContent {
		t.Fatalf("expected token to refill, got %d", code)
	}
}
