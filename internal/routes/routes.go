package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/tastetracker-backend/internal/handlers"
	"github.com/AnshRaj112/tastetracker-backend/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
	Entries *handlers.EntryHandler
	Places  *handlers.PlacesHandler
	Jobs    *handlers.JobsHandler
	Streams *handlers.StreamHandler
}

// Guards holds the middleware protecting route groups.
type Guards struct {
	// Session resolves the bearer token into a session.Session.
	Session func(http.Handler) http.Handler
	// Places throttles place lookups; nil disables it.
	Places  func(http.Handler) http.Handler
	JobsKey string
}

// SetupRoutes mounts every API route on r.
func SetupRoutes(r chi.Router, h Handlers, g Guards) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	// Public auth routes
	r.Post("/api/auth/signup", h.Auth.SignUp)
	r.Post("/api/auth/signin", h.Auth.SignIn)
	r.Post("/api/auth/forgot-password", h.Auth.ForgotPassword)
	r.Post("/api/auth/reset-password", h.Auth.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(g.Session)

		r.Get("/api/auth/me", h.Auth.Me)
		r.Post("/api/auth/signout", h.Auth.SignOut)

		r.Put("/api/users/me/push-token", h.Users.SetPushToken)
		r.Delete("/api/users/me/push-token", h.Users.ClearPushToken)

		r.Route("/api/entries", func(r chi.Router) {
			r.Get("/", h.Entries.List)
			r.Post("/", h.Entries.Create)
			r.Get("/search", h.Entries.Search)
			r.Get("/{id}", h.Entries.Get)
			r.Put("/{id}", h.Entries.Update)
			r.Delete("/{id}", h.Entries.Delete)
		})

		r.Route("/api/places", func(r chi.Router) {
			if g.Places != nil {
				r.Use(g.Places)
			}
			r.Get("/autocomplete", h.Places.Autocomplete)
			r.Get("/{placeID}", h.Places.Details)
		})

		// WebSocket streams (token may be passed as ?token=)
		r.Get("/ws/entries", h.Streams.Entries)
		r.Get("/ws/places", h.Streams.Places)
	})

	// Job control, guarded by X-Jobs-Key when configured
	r.Route("/api/jobs", func(r chi.Router) {
		r.Use(middleware.RequireJobsKey(g.JobsKey))

		r.Get("/", h.Jobs.List)
		r.Get("/monthly-recap/test", h.Jobs.TestMonthlyRecap)
		r.Get("/revisit-reminders/test", h.Jobs.TestRevisitReminders)
		r.Get("/{name}", h.Jobs.Status)
		r.Post("/{name}/run", h.Jobs.Run)
	})
}
