package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultFoodQualityRating = 3.0
	DefaultPriceLevel        = 2
	MaxFoodQualityRating     = 5.0
)

// JournalEntry is one restaurant visit recorded by a user
type JournalEntry struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"user_id" json:"user_id"`
	RestaurantName    string             `bson:"restaurant_name" json:"restaurant_name"`
	VisitDate         time.Time          `bson:"visit_date" json:"visit_date"`
	FoodQualityRating float64            `bson:"food_quality_rating" json:"food_quality_rating"`
	PriceLevel        int                `bson:"price_level" json:"price_level"`
	Location          string             `bson:"location" json:"location"`
	Notes             string             `bson:"notes" json:"notes"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
	Latitude          *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// HasValidCoordinates reports whether the entry can be placed on a map.
func (e JournalEntry) HasValidCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// PriceLevelDisplay renders the price level as dollar signs.
func (e JournalEntry) PriceLevelDisplay() string {
	if e.PriceLevel <= 0 {
		return ""
	}
	return strings.Repeat("$", e.PriceLevel)
}
