package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"cardiai/config"
)

func TestRateLimiterTokenBucket(t *testing.T) {
	limiter, err := newRateLimiter(1, 2, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.allow("10.0.0.1") || !limiter.allow("10.0.0.1") {
		t.Fatalf("burst should be allowed")
	}
	if limiter.allow("10.0.0.1") {
		t.Fatalf("third request within the same instant should be rejected")
	}
	if !limiter.allow("10.0.0.2") {
		t.Fatalf("clients must not share buckets")
	}

	now = now.Add(time.Second)
	if !limiter.allow("10.0.0.1") {
		t.Fatalf("bucket should refill after one second")
	}
	if limiter.allow("10.0.0.1") {
		t.Fatalf("refill must not exceed the elapsed time")
	}
}

func TestRateLimiterBoundsClientTable(t *testing.T) {
	limiter, err := newRateLimiter(1, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, client := range []string{"a", "b", "c", "d"} {
		limiter.allow(client)
	}
	if n := limiter.clients.Len(); n != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", n)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := newTestHandler(t, func(cfg *config.HTTPConfig) {
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.Burst = 1
	})

	if w := do(handler, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w := do(handler, http.MethodGet, "/health", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if payload := decodeBody(t, w); payload["error"] != kindRateLimited {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := Chain(RecoveryMiddleware(zap.NewNop()), LoggerMiddleware(zap.NewNop()))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	w := do(handler, http.MethodGet, "/", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if payload := decodeBody(t, w); payload["error"] != kindInternal {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestLoggerMiddlewareSetsRequestID(t *testing.T) {
	var seen string
	handler := LoggerMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := do(handler, http.MethodGet, "/", "")
	if seen == "" || w.Header().Get("X-Request-ID") != seen {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, w.Header().Get("X-Request-ID"))
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := newTestHandler(t, func(cfg *config.HTTPConfig) {
		cfg.AllowedOrigins = []string{"https://clinic.example"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/predict/", nil)
	req.Header.Set("Origin", "https://clinic.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://clinic.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("origin should not be allowed, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := newTestHandler(t, nil)
	w := do(handler, http.MethodGet, "/app", "")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'self'") {
		t.Fatalf("unexpected CSP %q", csp)
	}
}
