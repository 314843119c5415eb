package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/handlers"
	"github.com/AnshRaj112/tastetracker-backend/internal/jobs"
	"github.com/AnshRaj112/tastetracker-backend/internal/middleware"
	"github.com/AnshRaj112/tastetracker-backend/internal/notify"
	"github.com/AnshRaj112/tastetracker-backend/internal/scheduler"
	"github.com/AnshRaj112/tastetracker-backend/internal/services"
)

const jobsKey = "s3cret"

func newRouter(t *testing.T) (http.Handler, *services.SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zap.NewNop()
	sessions := services.NewSessionStore(rdb)
	runner := jobs.NewRunner(nil, nil, notify.Disabled{}, log)
	sched := scheduler.New(time.UTC, time.Second, log)
	require.NoError(t, sched.Register(scheduler.Job{Name: jobs.JobMonthlyRecap, Spec: "0 10 1 * *", Fn: func(context.Context) error { return nil }}))

	r := chi.NewRouter()
	SetupRoutes(r, Handlers{
		Auth:    handlers.NewAuthHandler(services.NewAuthService(nil, sessions, services.NewLogMailer(log), "", log), log),
		Users:   handlers.NewUserHandler(nil, log),
		Entries: handlers.NewEntryHandler(nil, log),
		Places:  handlers.NewPlacesHandler(services.DisabledPlaces{}, log),
		Jobs:    handlers.NewJobsHandler(runner, sched, log),
		Streams: handlers.NewStreamHandler(nil, nil, services.DisabledPlaces{}, time.Millisecond, log),
	}, Guards{
		Session: middleware.RequireSession(sessions, services.ErrSessionNotFound, log),
		JobsKey: jobsKey,
	})
	return r, sessions
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRoutes_Health(t *testing.T) {
	h, _ := newRouter(t)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRoutes_SessionGuard(t *testing.T) {
	h, sessions := newRouter(t)

	for _, path := range []string{"/api/entries", "/api/auth/me", "/api/places/autocomplete?q=x", "/ws/entries"} {
		rec := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	s, err := sessions.Create(context.Background(), "user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/users/me/push-token", strings.NewReader("not json"))
	req.Header.Set("Authorization", "Bearer "+s.Token)
	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")

	req = httptest.NewRequest(http.MethodGet, "/api/places/autocomplete?q=pizza&token="+s.Token, nil)
	rec = serve(h, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoutes_Jobs(t *testing.T) {
	h, _ := newRouter(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	keyed := func(method, path string) *http.Request {
		r := httptest.NewRequest(method, path, nil)
		r.Header.Set("X-Jobs-Key", jobsKey)
		return r
	}

	rec = serve(h, keyed(http.MethodGet, "/api/jobs"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), jobs.JobMonthlyRecap)

	// the test endpoints win over /{name}
	rec = serve(h, keyed(http.MethodGet, "/api/jobs/monthly-recap/test"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing userId parameter", rec.Body.String())

	rec = serve(h, keyed(http.MethodGet, "/api/jobs/revisit-reminders/test"))
	assert.Equal(t, "Missing userId parameter", rec.Body.String())

	rec = serve(h, keyed(http.MethodGet, "/api/jobs/"+jobs.JobMonthlyRecap))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, keyed(http.MethodPost, "/api/jobs/unknown/run"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
