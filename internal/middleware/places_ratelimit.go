package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/tastetracker-backend/internal/session"
	"github.com/AnshRaj112/tastetracker-backend/pkg/clientip"
)

// Places lookups are billed upstream, so they get their own per-caller
// budget. Signed-in users: 60 req/min, burst 20. Anonymous: 10 req/min, burst 5.
const (
	placesAuthRPS    = 1
	placesAuthBurst  = 20
	placesAnonRPS    = 0.17
	placesAnonBurst  = 5
	placesPathPrefix = "/api/places"
)

type PlacesRateLimit struct {
	auth *keyedLimiters
	anon *keyedLimiters
}

func NewPlacesRateLimit(ctx context.Context) *PlacesRateLimit {
	l := &PlacesRateLimit{
		auth: newKeyedLimiters(rate.Limit(placesAuthRPS), placesAuthBurst),
		anon: newKeyedLimiters(rate.Limit(placesAnonRPS), placesAnonBurst),
	}
	go l.auth.runCleanup(ctx)
	go l.anon.runCleanup(ctx)
	return l
}

// Handler limits GET /api/places/*. Signed-in callers are keyed by user,
// everyone else by IP.
func (l *PlacesRateLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, placesPathPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		limiters, limit, key := l.anon, placesAnonBurst, "ip:"+clientip.RealClientIP(r)
		if s, ok := session.FromContext(r.Context()); ok {
			limiters, limit, key = l.auth, placesAuthBurst, "user:"+s.UserID
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		if !limiters.Allow(key) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			writeTooMany(w, "Too many place lookups. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
