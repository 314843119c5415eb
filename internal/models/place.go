package models

// PlaceAutocomplete is one prediction returned while the user types
type PlaceAutocomplete struct {
	PlaceID       string `json:"place_id"`
	PrimaryText   string `json:"primary_text"`
	SecondaryText string `json:"secondary_text"`
}

// PlaceDetails is the resolved place picked from a prediction
type PlaceDetails struct {
	PlaceID   string  `json:"place_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
