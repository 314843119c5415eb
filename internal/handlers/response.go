// Package handlers exposes the HTTP and WebSocket API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/apperror"
	"github.com/AnshRaj112/tastetracker-backend/internal/session"
)

const maxBodyBytes = 1 << 20

// Response is the envelope every JSON endpoint shares.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// writeText answers with a bare text body, as the job test endpoints do.
func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeValidation answers 400 with the validation message and reports
// whether err was a validation failure.
func writeValidation(w http.ResponseWriter, err error) bool {
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return true
	}
	return false
}

func writeInternal(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// mustSession returns the session placed by the auth middleware.
func mustSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return s, ok
}
