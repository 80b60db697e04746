package ai

import "time"

// FoodItem is one food mention extracted from free text.
type FoodItem struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// ParsedEntry is the parser output. MealType is empty when neither the text
// nor the caller named one.
type ParsedEntry struct {
	Foods      []FoodItem `json:"foods"`
	MealType   string     `json:"meal_type,omitempty"`
	MealTime   *time.Time `json:"meal_time,omitempty"`
	Confidence float64    `json:"confidence"`
}
