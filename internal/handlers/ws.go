package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/services"
	"github.com/AnshRaj112/tastetracker-backend/internal/state"
	"github.com/AnshRaj112/tastetracker-backend/pkg/debounce"
)

// upgrader is shared by the stream endpoints. CORS is handled at the HTTP
// layer; mobile clients send no Origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	wsReadLimit  = 64 * 1024
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 60 * time.Second
	wsWriteWait  = 10 * time.Second
)

// EntrySnapshots loads the full ordered entry list of a user.
type EntrySnapshots interface {
	Snapshot(ctx context.Context, userID string) ([]models.JournalEntry, error)
}

// ChangeFeed signals when a user's entries change.
type ChangeFeed interface {
	Subscribe(userID string) (<-chan struct{}, func())
}

// StreamHandler serves the entry and place WebSocket streams.
type StreamHandler struct {
	entries  EntrySnapshots
	feed     ChangeFeed
	places   services.PlacesProvider
	debounce time.Duration
	log      *zap.Logger
}

func NewStreamHandler(entries EntrySnapshots, feed ChangeFeed, places services.PlacesProvider, debounceDelay time.Duration, log *zap.Logger) *StreamHandler {
	return &StreamHandler{
		entries:  entries,
		feed:     feed,
		places:   places,
		debounce: debounceDelay,
		log:      log.Named("stream"),
	}
}

func prepare(conn *websocket.Conn) {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
}

func writeFrame(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

func ping(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// Entries handles GET /ws/entries. The client receives the tagged state of
// its entry list: Loading first, then a Success snapshot after every change.
func (h *StreamHandler) Entries(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	prepare(conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	holder := state.NewHolder[[]models.JournalEntry]()
	holder.Set(state.Loading[[]models.JournalEntry]())
	states, unsubscribe := holder.Subscribe()
	defer unsubscribe()

	changes, stopFeed := h.feed.Subscribe(s.UserID)
	defer stopFeed()

	// reader: only control frames are expected; any error ends the stream
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		h.reload(ctx, holder, s.UserID)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				h.reload(ctx, holder, s.UserID)
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			if err := writeFrame(conn, st); err != nil {
				return
			}
		case <-ticker.C:
			if err := ping(conn); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) reload(ctx context.Context, holder *state.Holder[[]models.JournalEntry], userID string) {
	list, err := h.entries.Snapshot(ctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h.log.Error("failed to load entry snapshot", zap.String("user_id", userID), zap.Error(err))
		holder.Set(state.Error[[]models.JournalEntry]("Failed to load entries"))
		return
	}
	holder.Set(state.Success(list))
}

// PlacesClientMessage is sent by the search-as-you-type client.
type PlacesClientMessage struct {
	Type    string `json:"type"` // "query", "select", "clear"
	Query   string `json:"query,omitempty"`
	PlaceID string `json:"place_id,omitempty"`
}

// PlacesEvent is pushed to the client. Type is "predictions" or "place".
type PlacesEvent[T any] struct {
	Type  string         `json:"type"`
	Query string         `json:"query,omitempty"`
	State state.State[T] `json:"state"`
}

type predictionResult struct {
	query string
	state state.State[[]models.PlaceAutocomplete]
}

// Places handles GET /ws/places. Queries are debounced; only the last one
// in a quiet window reaches the provider, and a result that arrives after
// a newer query is dropped. A blank query resets to Idle at once.
func (h *StreamHandler) Places(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	prepare(conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	search := services.NewPlaceSearch(h.places)

	predictions := state.NewHolder[predictionResult]()
	predCh, unsubPred := predictions.Subscribe()
	defer unsubPred()
	<-predCh // drop the primed zero value

	place := state.NewHolder[*models.PlaceDetails]()
	placeCh, unsubPlace := place.Subscribe()
	defer unsubPlace()
	<-placeCh

	deb := debounce.New(h.debounce, func(q string, current func() bool) {
		if !current() {
			return
		}
		predictions.Set(state.Success(predictionResult{query: q, state: state.Loading[[]models.PlaceAutocomplete]()}))
		res, err := search.Autocomplete(ctx, q)
		if !current() {
			return
		}
		if err != nil {
			h.log.Warn("autocomplete failed", zap.Error(err))
			predictions.Set(state.Success(predictionResult{query: q, state: state.Error[[]models.PlaceAutocomplete]("Failed to fetch places")}))
			return
		}
		predictions.Set(state.Success(predictionResult{query: q, state: state.Success(res)}))
	})
	defer deb.Stop()

	go func() {
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg PlacesClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case "query":
				q := strings.TrimSpace(msg.Query)
				if q == "" {
					deb.Cancel()
					predictions.Set(state.Success(predictionResult{state: state.Idle[[]models.PlaceAutocomplete]()}))
					continue
				}
				deb.Push(q)
			case "select":
				deb.Cancel()
				place.Set(state.Loading[*models.PlaceDetails]())
				go func(id string) {
					details, err := search.Select(ctx, id)
					if err != nil {
						place.Set(state.Error[*models.PlaceDetails](placeErrorMessage(err)))
						return
					}
					place.Set(state.Success(details))
				}(msg.PlaceID)
			case "clear":
				deb.Cancel()
				search.Reset()
				predictions.Set(state.Success(predictionResult{state: state.Idle[[]models.PlaceAutocomplete]()}))
				place.Set(state.Idle[*models.PlaceDetails]())
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-predCh:
			if !ok {
				return
			}
			ev := PlacesEvent[[]models.PlaceAutocomplete]{Type: "predictions", Query: st.Data.query, State: st.Data.state}
			if err := writeFrame(conn, ev); err != nil {
				return
			}
		case st, ok := <-placeCh:
			if !ok {
				return
			}
			if err := writeFrame(conn, PlacesEvent[*models.PlaceDetails]{Type: "place", State: st}); err != nil {
				return
			}
		case <-ticker.C:
			if err := ping(conn); err != nil {
				return
			}
		}
	}
}

func placeErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrPlaceNoCoordinates):
		return "Place has no coordinates"
	case errors.Is(err, services.ErrPlacesDisabled):
		return "Place search is not configured"
	default:
		return "Failed to fetch place details"
	}
}
