package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/journal"
	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

// EntryService is the journal behaviour the entry endpoints need.
type EntryService interface {
	Create(ctx context.Context, userID string, in journal.EntryInput) (*models.JournalEntry, error)
	Update(ctx context.Context, userID, id string, in journal.EntryInput) (*models.JournalEntry, error)
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, id string) (*models.JournalEntry, error)
	List(ctx context.Context, userID string, f journal.Filter) ([]models.JournalEntry, error)
	SearchByName(ctx context.Context, userID, prefix string) ([]models.JournalEntry, error)
}

type EntryResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Entry   *models.JournalEntry `json:"entry,omitempty"`
}

type EntriesResponse struct {
	Success bool                  `json:"success"`
	Entries []models.JournalEntry `json:"entries"`
	Total   int                   `json:"total"`
}

type EntryHandler struct {
	entries EntryService
	log     *zap.Logger
}

func NewEntryHandler(entries EntryService, log *zap.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, log: log.Named("entry_handler")}
}

func (h *EntryHandler) writeEntryError(w http.ResponseWriter, err error) {
	switch {
	case writeValidation(w, err):
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, "Entry not found")
	default:
		writeInternal(w, h.log, "entry request failed", err)
	}
}

// Create handles POST /api/entries.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	var in journal.EntryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.entries.Create(r.Context(), s.UserID, in)
	if err != nil {
		h.writeEntryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, EntryResponse{Success: true, Message: "Entry created", Entry: e})
}

// Update handles PUT /api/entries/{id}.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	var in journal.EntryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.entries.Update(r.Context(), s.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeEntryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Message: "Entry updated", Entry: e})
}

// Delete handles DELETE /api/entries/{id}.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	if err := h.entries.Delete(r.Context(), s.UserID, chi.URLParam(r, "id")); err != nil {
		h.writeEntryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Entry deleted"})
}

// Get handles GET /api/entries/{id}.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	e, err := h.entries.Get(r.Context(), s.UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeEntryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: e})
}

// List handles GET /api/entries?q=&price=&minRating=&withCoordinates=.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	f, msg := parseFilter(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	list, err := h.entries.List(r.Context(), s.UserID, f)
	if err != nil {
		h.writeEntryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EntriesResponse{Success: true, Entries: list, Total: len(list)})
}

// Search handles GET /api/entries/search?prefix=.
func (h *EntryHandler) Search(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	list, err := h.entries.SearchByName(r.Context(), s.UserID, r.URL.Query().Get("prefix"))
	if err != nil {
		h.writeEntryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EntriesResponse{Success: true, Entries: list, Total: len(list)})
}

func parseFilter(r *http.Request) (journal.Filter, string) {
	q := r.URL.Query()
	f := journal.Filter{Query: q.Get("q")}

	if v := q.Get("price"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, "Invalid price filter"
		}
		f.PriceLevel = &n
	}
	if v := q.Get("minRating"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, "Invalid rating filter"
		}
		f.MinRating = &x
	}
	if v := q.Get("withCoordinates"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, "Invalid withCoordinates filter"
		}
		f.WithCoordinates = b
	}
	return f, ""
}
