package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/jobs"
	"github.com/AnshRaj112/tastetracker-backend/internal/scheduler"
)

// JobTester runs a report job for a single user synchronously.
type JobTester interface {
	TestMonthlyRecap(ctx context.Context, userID string) (*jobs.RecapPreview, error)
	TestRevisitReminders(ctx context.Context, userID string) (*jobs.RevisitPreview, error)
}

// JobScheduler lists, inspects and triggers registered jobs.
type JobScheduler interface {
	List() []scheduler.ListItem
	Run(name string) error
	GetTask(name string) (*scheduler.TaskResult, error)
}

type JobsHandler struct {
	tester JobTester
	sched  JobScheduler
	log    *zap.Logger
}

func NewJobsHandler(tester JobTester, sched JobScheduler, log *zap.Logger) *JobsHandler {
	return &JobsHandler{tester: tester, sched: sched, log: log.Named("jobs_handler")}
}

const (
	msgMissingUserID  = "Missing userId parameter"
	msgNoPushToken    = "User has no FCM token"
	msgNoEntries      = "No entries found for user in last month"
	msgNothingToNudge = "No restaurants to notify about"
)

func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("userId"))
	if id == "" {
		writeText(w, http.StatusBadRequest, msgMissingUserID)
		return "", false
	}
	return id, true
}

// TestMonthlyRecap handles GET /api/jobs/monthly-recap/test?userId=.
func (h *JobsHandler) TestMonthlyRecap(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	preview, err := h.tester.TestMonthlyRecap(r.Context(), userID)
	if err != nil {
		if debug, ok := jobs.IsNoEntries(err); ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error": msgNoEntries,
				"debug": debug,
			})
			return
		}
		h.writeJobError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// TestRevisitReminders handles GET /api/jobs/revisit-reminders/test?userId=.
func (h *JobsHandler) TestRevisitReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	preview, err := h.tester.TestRevisitReminders(r.Context(), userID)
	if err != nil {
		if errors.Is(err, jobs.ErrNothingToRemind) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error":            msgNothingToNudge,
				"restaurantsFound": []string{},
			})
			return
		}
		h.writeJobError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *JobsHandler) writeJobError(w http.ResponseWriter, userID string, err error) {
	if errors.Is(err, jobs.ErrNoPushToken) {
		writeText(w, http.StatusNotFound, msgNoPushToken)
		return
	}
	h.log.Error("job test failed", zap.String("user_id", userID), zap.Error(err))
	writeText(w, http.StatusInternalServerError, err.Error())
}

// List handles GET /api/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"jobs":    h.sched.List(),
	})
}

// Status handles GET /api/jobs/{name}.
func (h *JobsHandler) Status(w http.ResponseWriter, r *http.Request) {
	res, err := h.sched.GetTask(chi.URLParam(r, "name"))
	if errors.Is(err, scheduler.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		writeInternal(w, h.log, "job status failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "task": res})
}

// Run handles POST /api/jobs/{name}/run. The job runs in the background.
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := h.sched.Run(name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "Job is already running")
	case err != nil:
		writeInternal(w, h.log, "job trigger failed", err)
	default:
		h.log.Info("job triggered manually", zap.String("job", name))
		writeJSON(w, http.StatusAccepted, Response{Success: true, Message: "Job started"})
	}
}
