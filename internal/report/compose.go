package report

import (
	"fmt"
	"math"
	"strings"
)

// Notification is the user-visible part of a push message.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PriceSymbol maps a mean price tier to dollar signs.
func PriceSymbol(avg float64) string {
	switch {
	case avg <= 1.5:
		return "$"
	case avg <= 2.5:
		return "$$"
	case avg <= 3.5:
		return "$$$"
	default:
		return "$$$$"
	}
}

// FormatRating renders a mean rating with one decimal, rounding halves up.
func FormatRating(avg float64) string {
	return fmt.Sprintf("%.1f", math.Round(avg*10)/10)
}

// RecapNotification builds the monthly recap for one user.
func RecapNotification(user UserStats, system SystemAverages) Notification {
	noun := "restaurants"
	if user.RestaurantCount == 1 {
		noun = "restaurant"
	}

	var b strings.Builder
	b.WriteString("Your Stats:\n")
	fmt.Fprintf(&b, "🍽️ %d %s visited\n", user.RestaurantCount, noun)
	fmt.Fprintf(&b, "⭐ %s stars average\n", FormatRating(user.AvgRating))
	fmt.Fprintf(&b, "💰 %s average price\n", PriceSymbol(user.AvgPrice))
	b.WriteString("\n\n")
	b.WriteString("Community Stats:\n")
	fmt.Fprintf(&b, "🍽️ %d visits by %d users\n", system.RestaurantCount, system.TotalUsers)
	fmt.Fprintf(&b, "⭐ %s stars average\n", FormatRating(system.AvgRating))
	fmt.Fprintf(&b, "💰 %s average price", PriceSymbol(system.AvgPrice))

	return Notification{
		Title: fmt.Sprintf("%s Dining Recap 📊", user.MonthName),
		Body:  b.String(),
	}
}

// RevisitNotification builds the reminder for a non-empty list of names.
func RevisitNotification(restaurants []string) Notification {
	var body string
	switch n := len(restaurants); {
	case n == 0:
		return Notification{}
	case n == 1:
		body = fmt.Sprintf("You haven't visited %s in over %d months! Time to go back?", restaurants[0], RevisitMonths)
	case n <= 3:
		body = fmt.Sprintf("You haven't visited %s in over %d months!", strings.Join(restaurants, ", "), RevisitMonths)
	default:
		body = fmt.Sprintf("You have %d favorite restaurants you haven't visited in over %d months!", n, RevisitMonths)
	}
	return Notification{
		Title: "Miss your favorites? 🍽️",
		Body:  body,
	}
}
