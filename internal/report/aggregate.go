package report

import "github.com/AnshRaj112/tastetracker-backend/internal/models"

// UserStats summarises one user's visits over a month.
type UserStats struct {
	RestaurantCount int     `json:"restaurantCount"`
	AvgRating       float64 `json:"avgRating"`
	AvgPrice        float64 `json:"avgPrice"`
	MonthName       string  `json:"monthName"`
}

// SystemAverages summarises every user's visits over a month.
type SystemAverages struct {
	RestaurantCount int     `json:"restaurantCount"`
	AvgRating       float64 `json:"avgRating"`
	AvgPrice        float64 `json:"avgPrice"`
	TotalUsers      int     `json:"totalUsers"`
}

// UserStatsFor reduces a user's entries visited within rng. It returns nil
// when no entry qualifies, which callers treat as "nothing to report".
func UserStatsFor(entries []models.JournalEntry, rng MonthRange) *UserStats {
	var count int
	var ratingSum, priceSum float64
	for _, e := range entries {
		if !rng.Contains(e.VisitDate) {
			continue
		}
		count++
		ratingSum += e.FoodQualityRating
		priceSum += float64(e.PriceLevel)
	}
	if count == 0 {
		return nil
	}
	return &UserStats{
		RestaurantCount: count,
		AvgRating:       ratingSum / float64(count),
		AvgPrice:        priceSum / float64(count),
		MonthName:       rng.Name,
	}
}

// SystemAveragesFor reduces all users' entries visited within rng. Unlike
// UserStatsFor it returns the zero value when nothing qualifies.
func SystemAveragesFor(entries []models.JournalEntry, rng MonthRange) SystemAverages {
	var count int
	var ratingSum, priceSum float64
	users := make(map[string]struct{})
	for _, e := range entries {
		if !rng.Contains(e.VisitDate) {
			continue
		}
		count++
		ratingSum += e.FoodQualityRating
		priceSum += float64(e.PriceLevel)
		users[e.UserID] = struct{}{}
	}
	if count == 0 {
		return SystemAverages{}
	}
	return SystemAverages{
		RestaurantCount: count,
		AvgRating:       ratingSum / float64(count),
		AvgPrice:        priceSum / float64(count),
		TotalUsers:      len(users),
	}
}
