package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_LocalFallback(t *testing.T) {
	store := NewLimiterStore()
	defer store.Stop()

	cfg := RateLimitConfig{
		Logger:  testLogger(),
		Enabled: true,
		Local:   store,
	}

	handler := RateLimit(cfg, "chat", 1, 1)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = "203.0.113.5:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("First request should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Second request should be limited, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

func TestRateLimit_KeyedByIPAndRoute(t *testing.T) {
	store := NewLimiterStore()
	defer store.Stop()

	cfg := RateLimitConfig{
		Logger:  testLogger(),
		Enabled: true,
		Local:   store,
	}

	chat := RateLimit(cfg, "chat", 1, 1)(okHandler())
	usage := RateLimit(cfg, "usage", 1, 1)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = "203.0.113.5:1234"

	rec := httptest.NewRecorder()
	chat.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("First chat request should pass, got %d", rec.Code)
	}

	// Other route has its own bucket
	rec = httptest.NewRecorder()
	usage.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Different route should not share the bucket, got %d", rec.Code)
	}

	// Other IP has its own bucket
	otherReq := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	otherReq.RemoteAddr = "203.0.113.6:1234"
	rec = httptest.NewRecorder()
	chat.ServeHTTP(rec, otherReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("Different IP should not share the bucket, got %d", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	store := NewLimiterStore()
	defer store.Stop()

	cfg := RateLimitConfig{
		Logger:  testLogger(),
		Enabled: false,
		Local:   store,
	}

	handler := RateLimit(cfg, "chat", 1, 1)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = "203.0.113.5:1234"

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Disabled limiter should pass all requests, got %d", rec.Code)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"xff_single", "198.51.100.1", "", "10.0.0.1:80", "198.51.100.1"},
		{"xff_multiple", "198.51.100.1, 10.0.0.2", "", "10.0.0.1:80", "198.51.100.1"},
		{"real_ip", "", "198.51.100.2", "10.0.0.1:80", "198.51.100.2"},
		{"remote_addr", "", "", "10.0.0.1:80", "10.0.0.1:80"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = test.remote
			if test.xff != "" {
				req.Header.Set("X-Forwarded-For", test.xff)
			}
			if test.realIP != "" {
				req.Header.Set("X-Real-IP", test.realIP)
			}

			if got := getClientIP(req); got != test.want {
				t.Errorf("getClientIP = %q, want %q", got, test.want)
			}
		})
	}
}
