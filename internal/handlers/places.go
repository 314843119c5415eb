package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/services"
)

type AutocompleteResponse struct {
	Success     bool                       `json:"success"`
	Session     string                     `json:"session"`
	Predictions []models.PlaceAutocomplete `json:"predictions"`
}

type PlaceResponse struct {
	Success bool                 `json:"success"`
	Place   *models.PlaceDetails `json:"place"`
}

type PlacesHandler struct {
	places services.PlacesProvider
	log    *zap.Logger
}

func NewPlacesHandler(places services.PlacesProvider, log *zap.Logger) *PlacesHandler {
	return &PlacesHandler{places: places, log: log.Named("places_handler")}
}

// sessionParam reads the client's autocomplete session token, starting a
// new one when it is missing or malformed.
func sessionParam(r *http.Request) uuid.UUID {
	if id, err := uuid.Parse(r.URL.Query().Get("session")); err == nil {
		return id
	}
	return uuid.New()
}

func (h *PlacesHandler) writePlacesError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPlaceNoCoordinates):
		writeError(w, http.StatusUnprocessableEntity, "Place has no coordinates")
	case errors.Is(err, services.ErrPlacesDisabled):
		writeError(w, http.StatusServiceUnavailable, "Place search is not configured")
	default:
		h.log.Error("places lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to fetch places")
	}
}

// Autocomplete handles GET /api/places/autocomplete?q=&session=.
func (h *PlacesHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	session := sessionParam(r)
	preds, err := h.places.Autocomplete(r.Context(), r.URL.Query().Get("q"), session)
	if err != nil {
		h.writePlacesError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AutocompleteResponse{Success: true, Session: session.String(), Predictions: preds})
}

// Details handles GET /api/places/{placeID}?session=. It ends the session.
func (h *PlacesHandler) Details(w http.ResponseWriter, r *http.Request) {
	placeID := strings.TrimSpace(chi.URLParam(r, "placeID"))
	if placeID == "" {
		writeError(w, http.StatusBadRequest, "Place id is required")
		return
	}
	place, err := h.places.Details(r.Context(), placeID, sessionParam(r))
	if err != nil {
		h.writePlacesError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PlaceResponse{Success: true, Place: place})
}
