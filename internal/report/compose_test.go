package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceSymbol(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{0, "$"},
		{1.5, "$"},
		{1.51, "$$"},
		{2.5, "$$"},
		{3.5, "$$$"},
		{3.51, "$$$$"},
		{4, "$$$$"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriceSymbol(tt.avg), "avg %v", tt.avg)
	}
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "4.3", FormatRating(4.25))
	assert.Equal(t, "4.0", FormatRating(4))
	assert.Equal(t, "3.7", FormatRating(11.0/3.0))
	assert.Equal(t, "0.0", FormatRating(0))
}

func TestRecapNotification(t *testing.T) {
	user := UserStats{RestaurantCount: 3, AvgRating: 4.25, AvgPrice: 2.4, MonthName: "February"}
	system := SystemAverages{RestaurantCount: 120, AvgRating: 3.94, AvgPrice: 2.6, TotalUsers: 17}

	n := RecapNotification(user, system)

	assert.Equal(t, "February Dining Recap 📊", n.Title)
	want := "Your Stats:\n" +
		"🍽️ 3 restaurants visited\n" +
		"⭐ 4.3 stars average\n" +
		"💰 $$ average price\n" +
		"\n\n" +
		"Community Stats:\n" +
		"🍽️ 120 visits by 17 users\n" +
		"⭐ 3.9 stars average\n" +
		"💰 $$$ average price"
	assert.Equal(t, want, n.Body)
}

func TestRecapNotification_Singular(t *testing.T) {
	n := RecapNotification(UserStats{RestaurantCount: 1, AvgRating: 5, AvgPrice: 1, MonthName: "May"}, SystemAverages{})
	assert.Contains(t, n.Body, "🍽️ 1 restaurant visited\n")
	assert.Contains(t, n.Body, "🍽️ 0 visits by 0 users\n")
}

func TestRevisitNotification(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"one", []string{"A"}, "You haven't visited A in over 3 months! Time to go back?"},
		{"two", []string{"A", "B"}, "You haven't visited A, B in over 3 months!"},
		{"three", []string{"A", "B", "C"}, "You haven't visited A, B, C in over 3 months!"},
		{"four", []string{"A", "B", "C", "D"}, "You have 4 favorite restaurants you haven't visited in over 3 months!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := RevisitNotification(tt.names)
			assert.Equal(t, "Miss your favorites? 🍽️", n.Title)
			assert.Equal(t, tt.want, n.Body)
		})
	}
}

func TestRevisitNotification_Empty(t *testing.T) {
	assert.Equal(t, Notification{}, RevisitNotification(nil))
	assert.Equal(t, Notification{}, RevisitNotification([]string{}))
}
