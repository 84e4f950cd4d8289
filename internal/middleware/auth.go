package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/metrics"
)

// unauthenticatedMessage is returned for every authentication failure.
const unauthenticatedMessage = "please authenticate"

// TokenVerifier checks a bearer token and returns the user it was issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
	Metrics  metrics.Recorder
}

// Auth returns a middleware that requires a valid bearer token. On success
// the user id is stored in the request context; on failure the request is
// answered with 401 and the handler is not called.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := extractBearerToken(r)
			if reason != "" {
				rejectAuth(cfg.Logger, recorder, w, r, reason)
				return
			}

			userID, err := cfg.Verifier.Verify(token)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					reason = "expired_token"
				}
				rejectAuth(cfg.Logger, recorder, w, r, reason)
				return
			}

			annotateUser(r.Context(), userID)
			ctx := auth.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token from the Authorization header, or a
// failure reason when the header is missing or malformed.
func extractBearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing_token"
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid_scheme"
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", "missing_token"
	}
	return token, ""
}

func rejectAuth(logger *slog.Logger, recorder metrics.Recorder, w http.ResponseWriter, r *http.Request, reason string) {
	recorder.IncAuthRejected()
	if logger != nil {
		logger.Warn("authentication failed",
			slog.String("reason", reason),
			slog.String("ip", r.RemoteAddr),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		)
	}
	writeError(w, http.StatusUnauthorized, CodeUnauthenticated, unauthenticatedMessage)
}
