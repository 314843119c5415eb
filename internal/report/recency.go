package report

import (
	"time"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

// RevisitMonths is how long a five-star restaurant may go unvisited before
// the user is reminded about it.
const RevisitMonths = 3

// StaleFavorites returns the names of restaurants the user rated five stars
// whose latest five-star visit is strictly older than monthsBack months.
// Names are matched case-sensitively and returned in first-seen order.
func StaleFavorites(entries []models.JournalEntry, now time.Time, monthsBack int) []string {
	cutoff := CutoffInstant(now, monthsBack)

	latest := make(map[string]time.Time)
	var order []string
	for _, e := range entries {
		if e.FoodQualityRating != models.MaxFoodQualityRating {
			continue
		}
		seen, ok := latest[e.RestaurantName]
		if !ok {
			order = append(order, e.RestaurantName)
		}
		if !ok || e.VisitDate.After(seen) {
			latest[e.RestaurantName] = e.VisitDate
		}
	}

	stale := make([]string, 0, len(order))
	for _, name := range order {
		if latest[name].Before(cutoff) {
			stale = append(stale, name)
		}
	}
	return stale
}
