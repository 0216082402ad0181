package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shosseini811/MultiGenQA/internal/cache"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Enabled bool
	// Cache backs rate limiting with Redis when configured.
	Cache *cache.Cache
	// Local is the in-process fallback used when Cache is nil.
	Local *LimiterStore
}

// RateLimit returns middleware that rate limits requests per client IP for
// one route. Uses Redis token buckets when available, otherwise an
// in-process limiter.
func RateLimit(cfg RateLimitConfig, route string, perMinute, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			if cfg.Cache != nil {
				result, err := cfg.Cache.CheckClientRateLimit(r.Context(), route, ip, perMinute, burst)
				if err != nil {
					cfg.Logger.Error("rate limit check failed",
						slog.String("error", err.Error()),
						slog.String("route", route),
						slog.String("ip", ip),
					)
					// Fail open - allow request
					next.ServeHTTP(w, r)
					return
				}

				setRateLimitHeaders(w, perMinute, result.Remaining, result.ResetAt)

				if !result.Allowed {
					cfg.Logger.Warn("rate limit exceeded",
						slog.String("route", route),
						slog.String("ip", ip),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
						slog.String("request_id", GetRequestID(r.Context())),
					)

					w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
					writeRateLimitError(w)
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			if cfg.Local != nil && !cfg.Local.Allow(route+":"+ip, perMinute, burst) {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("route", route),
					slog.String("ip", ip),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", "60")
				writeRateLimitError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// writeRateLimitError writes a 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Rate limit exceeded","message":"Too many requests. Please try again later."}`))
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers for proxied requests.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For first (may contain multiple IPs)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// Take the first IP (client IP)
		for i := range xff {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	return r.RemoteAddr
}
