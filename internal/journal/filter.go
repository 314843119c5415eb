package journal

import (
	"strings"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

// Filter narrows a user's entry list in process.
type Filter struct {
	// Query is a case-insensitive substring of the name or location.
	Query           string
	PriceLevel      *int
	MinRating       *float64
	WithCoordinates bool
}

func (f Filter) Apply(list []models.JournalEntry) []models.JournalEntry {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.JournalEntry, 0, len(list))
	for _, e := range list {
		if q != "" &&
			!strings.Contains(strings.ToLower(e.RestaurantName), q) &&
			!strings.Contains(strings.ToLower(e.Location), q) {
			continue
		}
		if f.PriceLevel != nil && e.PriceLevel != *f.PriceLevel {
			continue
		}
		if f.MinRating != nil && e.FoodQualityRating < *f.MinRating {
			continue
		}
		if f.WithCoordinates && !e.HasValidCoordinates() {
			continue
		}
		out = append(out, e)
	}
	return out
}
