package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

var (
	ErrPlaceNoCoordinates = errors.New("place has no coordinates")
	ErrPlacesDisabled     = errors.New("places provider not configured")
)

// PlacesProvider looks up restaurants for the entry form. A session token
// groups the autocomplete calls and the final details call for billing.
type PlacesProvider interface {
	Autocomplete(ctx context.Context, query string, session uuid.UUID) ([]models.PlaceAutocomplete, error)
	Details(ctx context.Context, placeID string, session uuid.UUID) (*models.PlaceDetails, error)
}

type mapsClient interface {
	PlaceAutocomplete(ctx context.Context, r *maps.PlaceAutocompleteRequest) (maps.AutocompleteResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
}

// GooglePlaces is the Google Places implementation of PlacesProvider.
type GooglePlaces struct {
	client mapsClient
}

func NewGooglePlaces(apiKey string) (*GooglePlaces, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("places client: %w", err)
	}
	return &GooglePlaces{client: c}, nil
}

var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskPlaceID,
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskGeometryLocation,
}

// Autocomplete returns establishment predictions. A blank query returns an
// empty list without calling upstream.
func (g *GooglePlaces) Autocomplete(ctx context.Context, query string, session uuid.UUID) ([]models.PlaceAutocomplete, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.PlaceAutocomplete{}, nil
	}
	resp, err := g.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{
		Input:        query,
		SessionToken: maps.PlaceAutocompleteSessionToken(session),
		Types:        maps.AutocompletePlaceTypeEstablishment,
	})
	if err != nil {
		return nil, fmt.Errorf("places autocomplete: %w", err)
	}

	out := make([]models.PlaceAutocomplete, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		primary := p.StructuredFormatting.MainText
		if primary == "" {
			primary = p.Description
		}
		out = append(out, models.PlaceAutocomplete{
			PlaceID:       p.PlaceID,
			PrimaryText:   primary,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return out, nil
}

func (g *GooglePlaces) Details(ctx context.Context, placeID string, session uuid.UUID) (*models.PlaceDetails, error) {
	res, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:      placeID,
		SessionToken: maps.PlaceAutocompleteSessionToken(session),
		Fields:       detailFields,
	})
	if err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}
	loc := res.Geometry.Location
	if loc.Lat == 0 && loc.Lng == 0 {
		return nil, ErrPlaceNoCoordinates
	}
	return &models.PlaceDetails{
		PlaceID:   res.PlaceID,
		Name:      res.Name,
		Address:   res.FormattedAddress,
		Latitude:  loc.Lat,
		Longitude: loc.Lng,
	}, nil
}

// DisabledPlaces answers every call with ErrPlacesDisabled.
type DisabledPlaces struct{}

func (DisabledPlaces) Autocomplete(context.Context, string, uuid.UUID) ([]models.PlaceAutocomplete, error) {
	return nil, ErrPlacesDisabled
}

func (DisabledPlaces) Details(context.Context, string, uuid.UUID) (*models.PlaceDetails, error) {
	return nil, ErrPlacesDisabled
}

// CachedPlaces serves repeated autocomplete queries from Redis.
type CachedPlaces struct {
	next  PlacesProvider
	cache *Cache
	log   *zap.Logger
}

func NewCachedPlaces(next PlacesProvider, cache *Cache, log *zap.Logger) *CachedPlaces {
	return &CachedPlaces{next: next, cache: cache, log: log.Named("places")}
}

func (c *CachedPlaces) Autocomplete(ctx context.Context, query string, session uuid.UUID) ([]models.PlaceAutocomplete, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.PlaceAutocomplete{}, nil
	}
	key := CacheKey("places", strings.ToLower(query))

	var cached []models.PlaceAutocomplete
	if ok, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.log.Warn("places cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	out, err := c.next.Autocomplete(ctx, query, session)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, out); err != nil {
		c.log.Warn("places cache write failed", zap.Error(err))
	}
	return out, nil
}

func (c *CachedPlaces) Details(ctx context.Context, placeID string, session uuid.UUID) (*models.PlaceDetails, error) {
	return c.next.Details(ctx, placeID, session)
}

// PlaceSearch tracks the session token of one search-as-you-type flow.
// Selecting a place ends the session; the next query starts a new one.
type PlaceSearch struct {
	provider PlacesProvider

	mu    sync.Mutex
	token uuid.UUID
}

func NewPlaceSearch(provider PlacesProvider) *PlaceSearch {
	return &PlaceSearch{provider: provider, token: uuid.New()}
}

func (s *PlaceSearch) Token() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *PlaceSearch) Autocomplete(ctx context.Context, query string) ([]models.PlaceAutocomplete, error) {
	return s.provider.Autocomplete(ctx, query, s.Token())
}

// Select fetches details and rotates the session token.
func (s *PlaceSearch) Select(ctx context.Context, placeID string) (*models.PlaceDetails, error) {
	s.mu.Lock()
	token := s.token
	s.token = uuid.New()
	s.mu.Unlock()
	return s.provider.Details(ctx, placeID, token)
}

// Reset starts a new session without a details call.
func (s *PlaceSearch) Reset() {
	s.mu.Lock()
	s.token = uuid.New()
	s.mu.Unlock()
}
