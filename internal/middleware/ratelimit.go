package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/cache"
	"github.com/fintrack/fintrack/internal/metrics"
)

// RateLimiter consumes tokens from per-key buckets.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
	CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
// A nil Limiter disables limiting.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Metrics metrics.Recorder

	// Credential endpoints, per client IP.
	AuthPerMinute int
	AuthBurst     int

	// Authenticated API, per user.
	APIPerMinute int
	APIBurst     int
}

// RateLimitIP returns middleware that limits requests per client IP. It
// guards /register and /login against credential stuffing.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return rateLimit(cfg, "ip", cfg.AuthPerMinute, func(r *http.Request) (string, bool) {
		return clientIP(r), true
	}, func(ctx context.Context, key string) (*cache.RateLimitResult, error) {
		return cfg.Limiter.CheckIPRateLimit(ctx, key, cfg.AuthPerMinute, cfg.AuthBurst)
	})
}

// RateLimitUser returns middleware that limits requests per authenticated
// user. Must be applied after Auth.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return rateLimit(cfg, "user", cfg.APIPerMinute, func(r *http.Request) (string, bool) {
		userID := auth.UserIDFromContext(r.Context())
		return userID, userID != ""
	}, func(ctx context.Context, key string) (*cache.RateLimitResult, error) {
		return cfg.Limiter.CheckUserRateLimit(ctx, key, cfg.APIPerMinute, cfg.APIBurst)
	})
}

func rateLimit(
	cfg RateLimitConfig,
	scope string,
	limit int,
	keyFn func(*http.Request) (string, bool),
	check func(context.Context, string) (*cache.RateLimitResult, error),
) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		if cfg.Limiter == nil || limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := keyFn(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			result, err := check(r.Context(), key)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("scope", scope),
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				// Fail open when Redis is unavailable.
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				recorder.IncRateLimited(scope)
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("scope", scope),
					slog.String("ip", clientIP(r)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				writeError(w, http.StatusTooManyRequests, CodeRateLimited,
					fmt.Sprintf("rate limit exceeded, retry after %d seconds", int(result.RetryAfter/time.Second)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, result *cache.RateLimitResult) {
	if result.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware
// runs first and rewrites RemoteAddr from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
