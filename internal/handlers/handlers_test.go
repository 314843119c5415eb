package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/tastetracker-backend/internal/apperror"
	"github.com/AnshRaj112/tastetracker-backend/internal/journal"
	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/session"
)

const testUser = "user-1"

func authed(r *http.Request, userID string) *http.Request {
	return r.WithContext(session.WithSession(r.Context(), session.Session{UserID: userID, Token: "tok-" + userID}))
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func jsonUnmarshal(rec *httptest.ResponseRecorder, dest interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), dest)
}

// memEntries is an in-memory EntryService with journal-like validation.
type memEntries struct {
	mu      sync.Mutex
	entries map[string]models.JournalEntry
	err     error
}

func newMemEntries() *memEntries {
	return &memEntries{entries: map[string]models.JournalEntry{}}
}

func (m *memEntries) put(e models.JournalEntry) models.JournalEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	m.entries[e.ID.Hex()] = e
	return e
}

func (m *memEntries) Create(_ context.Context, userID string, in journal.EntryInput) (*models.JournalEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	if strings.TrimSpace(in.RestaurantName) == "" {
		return nil, apperror.Invalid("restaurant_name", "Restaurant name is required")
	}
	e := m.put(models.JournalEntry{UserID: userID, RestaurantName: in.RestaurantName, Location: in.Location})
	return &e, nil
}

func (m *memEntries) Update(ctx context.Context, userID, id string, in journal.EntryInput) (*models.JournalEntry, error) {
	e, err := m.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	e.RestaurantName = in.RestaurantName
	updated := m.put(*e)
	return &updated, nil
}

func (m *memEntries) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return journal.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memEntries) Get(_ context.Context, userID, id string) (*models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return nil, journal.ErrNotFound
	}
	return &e, nil
}

func (m *memEntries) List(ctx context.Context, userID string, f journal.Filter) ([]models.JournalEntry, error) {
	list, err := m.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return f.Apply(list), nil
}

func (m *memEntries) SearchByName(ctx context.Context, userID, prefix string) ([]models.JournalEntry, error) {
	list, err := m.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.JournalEntry, 0, len(list))
	for _, e := range list {
		if strings.HasPrefix(strings.ToLower(e.RestaurantName), strings.ToLower(prefix)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEntries) Snapshot(_ context.Context, userID string) ([]models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.JournalEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RestaurantName < out[j].RestaurantName })
	return out, nil
}

// fakePlaces answers from fixed tables and records calls.
type fakePlaces struct {
	mu       sync.Mutex
	queries  []string
	sessions []uuid.UUID
	preds    map[string][]models.PlaceAutocomplete
	details  map[string]*models.PlaceDetails
	err      error
	delay    time.Duration
}

func (f *fakePlaces) Autocomplete(ctx context.Context, q string, s uuid.UUID) ([]models.PlaceAutocomplete, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.sessions = append(f.sessions, s)
	delay, err := f.delay, f.err
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return f.preds[q], nil
}

func (f *fakePlaces) Details(_ context.Context, id string, s uuid.UUID) (*models.PlaceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
	if f.err != nil {
		return nil, f.err
	}
	return f.details[id], nil
}

func (f *fakePlaces) seenQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
