// Package journal implements the entry operations exposed to clients.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/apperror"
	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/entries"
)

var ErrNotFound = entries.ErrNotFound

// EntryInput is the client payload for create and update. Nil rating,
// price level and visit date fall back to defaults.
type EntryInput struct {
	RestaurantName    string     `json:"restaurant_name" validate:"notblank"`
	VisitDate         *time.Time `json:"visit_date"`
	FoodQualityRating *float64   `json:"food_quality_rating" validate:"omitempty,gte=1,lte=5"`
	PriceLevel        *int       `json:"price_level" validate:"omitempty,gte=1,lte=4"`
	Location          string     `json:"location" validate:"notblank"`
	Notes             string     `json:"notes"`
	Latitude          *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude         *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// ChangeNotifier is told about every successful write.
type ChangeNotifier interface {
	EntriesChanged(ctx context.Context, userID string)
}

type Service struct {
	repo     entries.Repository
	notifier ChangeNotifier
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo entries.Repository, notifier ChangeNotifier, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		validate: apperror.NewValidator(),
		log:      log.Named("journal"),
		now:      time.Now,
	}
}

func (s *Service) changed(ctx context.Context, userID string) {
	if s.notifier != nil {
		s.notifier.EntriesChanged(ctx, userID)
	}
}

// Validate checks in and returns the first problem as a ValidationError.
func (s *Service) Validate(in EntryInput) error {
	if err := s.validate.Struct(in); err != nil {
		return apperror.FromValidator(err)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return apperror.Invalid("latitude", "Latitude and longitude must be provided together")
	}
	return nil
}

// apply copies the normalised input onto e.
func (s *Service) apply(e *models.JournalEntry, in EntryInput) {
	e.RestaurantName = strings.TrimSpace(in.RestaurantName)
	e.Location = strings.TrimSpace(in.Location)
	e.Notes = strings.TrimSpace(in.Notes)

	e.FoodQualityRating = models.DefaultFoodQualityRating
	if in.FoodQualityRating != nil {
		e.FoodQualityRating = *in.FoodQualityRating
	}
	e.PriceLevel = models.DefaultPriceLevel
	if in.PriceLevel != nil {
		e.PriceLevel = *in.PriceLevel
	}
	switch {
	case in.VisitDate != nil && !in.VisitDate.IsZero():
		e.VisitDate = in.VisitDate.UTC()
	case e.VisitDate.IsZero():
		e.VisitDate = s.now().UTC()
	}
	e.Latitude, e.Longitude = in.Latitude, in.Longitude
}

func (s *Service) Create(ctx context.Context, userID string, in EntryInput) (*models.JournalEntry, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e := &models.JournalEntry{UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.apply(e, in)

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.log.Debug("entry created", zap.String("user_id", userID), zap.String("entry_id", e.ID.Hex()))
	s.changed(ctx, userID)
	return e, nil
}

// Update replaces the editable fields of an existing entry. CreatedAt and
// the owner are kept.
func (s *Service) Update(ctx context.Context, userID, id string, in EntryInput) (*models.JournalEntry, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}
	e, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.apply(e, in)
	e.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.changed(ctx, userID)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID)
	return nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, userID, id)
}

// List returns the user's entries newest visit first, narrowed by f.
func (s *Service) List(ctx context.Context, userID string, f Filter) ([]models.JournalEntry, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return f.Apply(all), nil
}

func (s *Service) SearchByName(ctx context.Context, userID, prefix string) ([]models.JournalEntry, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return s.repo.ListByUser(ctx, userID)
	}
	return s.repo.SearchByName(ctx, userID, prefix)
}

// Snapshot is the full ordered list pushed to live subscribers.
func (s *Service) Snapshot(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	return s.List(ctx, userID, Filter{})
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
