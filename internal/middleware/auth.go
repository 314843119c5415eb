package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/session"
)

// SessionValidator resolves a bearer token.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (session.Session, error)
}

// BearerToken extracts the token from the Authorization header. Browsers
// cannot set headers on WebSocket upgrades, so the token query parameter
// is accepted as well.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// RequireSession rejects requests without a valid session and stores the
// resolved session in the request context.
func RequireSession(v SessionValidator, notFound error, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			s, err := v.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, notFound) {
					writeJSONError(w, http.StatusUnauthorized, "Session expired. Please sign in again.")
					return
				}
				log.Error("session lookup failed", zap.Error(err))
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// RequireJobsKey guards the job endpoints with a shared key. An empty key
// disables the check.
func RequireJobsKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get("X-Jobs-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
